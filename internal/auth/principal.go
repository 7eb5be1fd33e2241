// Package auth authenticates bearer tokens and enforces role-based access to routes.
//
// A request's principal travels in its context.Context: the Filter installs it,
// the Policy and handlers read it back with PrincipalFrom.
package auth

import "context"

// Role is the authority granted to an authenticated principal.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal is the authenticated identity attached to a single request.
type Principal struct {
	Username string
	Role     Role
	Token    string // raw bearer token, kept for downstream calls
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
