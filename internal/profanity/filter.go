// Package profanity detects banned terms in user supplied text.
//
// Matching is case-insensitive and whole-word: a term only matches when it is
// not embedded in a longer word, so "class" does not match "ass".
package profanity

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/dijam/media-gallery/internal/schema"
)

//go:embed words.json
var embeddedWords []byte

// Filter reports whether text contains a banned term. It is immutable once
// built and safe for concurrent use.
type Filter struct {
	re    *regexp.Regexp
	terms int
}

// Load builds a Filter from the JSON word list at path, or from the embedded
// list when path is empty. The list is validated against the word-list schema.
func Load(v *schema.Validator, path string) (*Filter, error) {
	raw := embeddedWords
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read profanity list: %w", err)
		}
		raw = b
	}

	if err := v.ValidateJSON(schema.WordList, raw); err != nil {
		return nil, fmt.Errorf("invalid profanity list: %w", err)
	}

	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("failed to decode profanity list: %w", err)
	}
	return New(words), nil
}

// New compiles words into a single alternation. Duplicates and blank entries
// are ignored.
func New(words []string) *Filter {
	seen := make(map[string]struct{}, len(words))
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	if len(quoted) == 0 {
		return &Filter{}
	}

	// Longest first so alternation prefers "fucking" over "fuck".
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })

	return &Filter{
		re:    regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
		terms: len(quoted),
	}
}

// ContainsProfanity reports whether text contains any banned term as a whole word.
func (f *Filter) ContainsProfanity(text string) bool {
	if f.re == nil {
		return false
	}
	return f.re.MatchString(text)
}

// Terms returns the number of distinct banned terms.
func (f *Filter) Terms() int { return f.terms }
