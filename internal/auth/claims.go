package auth

import (
	"bytes"
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a gallery access token.
type Claims struct {
	Username optionalString `json:"username"`
	IsAdmin  optionalBool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Role derives the principal role from the isAdmin claim.
func (c *Claims) Role() Role {
	if c.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// optionalBool decodes to true only for the JSON literal true. Absent,
// null, or non-boolean values leave it false instead of failing the parse.
type optionalBool bool

func (b *optionalBool) UnmarshalJSON(data []byte) error {
	*b = optionalBool(bytes.Equal(bytes.TrimSpace(data), []byte("true")))
	return nil
}

// optionalString decodes JSON strings and treats every other value as empty.
type optionalString string

func (s *optionalString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		*s = ""
		return nil
	}
	*s = optionalString(v)
	return nil
}
