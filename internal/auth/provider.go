package auth

import (
	"context"
	"strings"

	errordefs "github.com/dijam/media-gallery/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Messages returned to clients when authentication fails.
const (
	MsgMissingToken    = "Missing token"
	MsgTokenNotLive    = "Token invalid or user deleted"
	MsgInvalidToken    = "Invalid JWT structure or signature"
	MsgMissingUsername = "Missing username in token"
)

// Provider turns a bearer token into a Principal.
type Provider struct {
	secret   []byte
	verifier Verifier
	parser   *jwt.Parser
}

// NewProvider creates a Provider that checks liveness with verifier and then
// validates HMAC signatures with secret.
func NewProvider(secret string, verifier Verifier) *Provider {
	return &Provider{
		secret:   []byte(secret),
		verifier: verifier,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})),
	}
}

// Authenticate verifies token remotely, then locally, and builds the principal.
// Every failure is an INVALID_CREDENTIALS error.
func (p *Provider) Authenticate(ctx context.Context, token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, errordefs.New(errordefs.INVALID_CREDENTIALS, MsgMissingToken, "")
	}

	if !p.verifier.Verify(ctx, token) {
		return Principal{}, errordefs.New(errordefs.INVALID_CREDENTIALS, MsgTokenNotLive, "")
	}

	claims := &Claims{}
	if _, err := p.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}); err != nil {
		return Principal{}, errordefs.Wrap(errordefs.INVALID_CREDENTIALS, MsgInvalidToken, "", err)
	}

	if claims.Username == "" {
		return Principal{}, errordefs.New(errordefs.INVALID_CREDENTIALS, MsgMissingUsername, "")
	}

	return Principal{
		Username: string(claims.Username),
		Role:     claims.Role(),
		Token:    token,
	}, nil
}
