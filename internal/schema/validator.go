// Package schema provides JSON schema validation for gallery payloads.
// It checks upload and comment forms, and the profanity word list, before they are used.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Document kinds understood by the Validator.
const (
	MediaUpload = "gallery.media.upload" // multipart fields of a media upload
	Comment     = "gallery.comment"      // multipart fields of a comment upload
	WordList    = "gallery.wordlist"     // banned-term list used by the profanity filter
)

// MaxCommentLength bounds comment content in characters.
const MaxCommentLength = 2048

var schemas = map[string]string{
	MediaUpload: `{"type":"object","required":["title","description","filetype"],"properties":{"title":{"type":"string","maxLength":255},"description":{"type":"string","maxLength":4096},"filetype":{"type":"string","enum":["image","video"]}}}`,
	Comment:     fmt.Sprintf(`{"type":"object","required":["content"],"properties":{"content":{"type":"string","minLength":1,"maxLength":%d,"pattern":"\\S"}}}`, MaxCommentLength),
	WordList:    `{"type":"array","minItems":1,"items":{"type":"string","minLength":1}}`,
}

// Validator validates documents against compiled JSON schemas.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles every known schema.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(schemas))}
	for kind, src := range schemas {
		if err := v.loadSchema(kind, src); err != nil {
			return nil, fmt.Errorf("failed to load schemas: %w", err)
		}
	}
	return v, nil
}

// loadSchema parses and compiles a JSON schema for a document kind.
func (v *Validator) loadSchema(kind, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", kind, err)
	}
	v.schemas[kind] = schema
	return nil
}

// Validate checks doc against the schema registered for kind.
// The returned error lists every violation, separated by "; ".
func (v *Validator) Validate(kind string, doc interface{}) error {
	schema, exists := v.schemas[kind]
	if !exists {
		return fmt.Errorf("schema not found for %s", kind)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return v.validateBytes(schema, raw)
}

// ValidateJSON checks raw JSON against the schema registered for kind.
func (v *Validator) ValidateJSON(kind string, raw []byte) error {
	schema, exists := v.schemas[kind]
	if !exists {
		return fmt.Errorf("schema not found for %s", kind)
	}
	return v.validateBytes(schema, raw)
}

func (v *Validator) validateBytes(schema *gojsonschema.Schema, raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
