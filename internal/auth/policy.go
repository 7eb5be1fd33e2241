package auth

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	errordefs "github.com/dijam/media-gallery/internal/errors"
)

// Requirement is what a route demands of the request principal.
type Requirement int

const (
	Public        Requirement = iota // no principal needed
	Authenticated                    // any principal
	Admin                            // principal with RoleAdmin
)

func (r Requirement) String() string {
	switch r {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}

// Rule binds a path pattern to a requirement. A "*" segment matches exactly
// one path segment; a trailing "/**" matches the base path and everything below it.
type Rule struct {
	Pattern string
	Require Requirement
}

type compiledRule struct {
	segments []string
	subtree  bool
	require  Requirement
}

// Policy evaluates rules in order; the first match decides.
// Paths that match no rule are public.
type Policy struct {
	rules []compiledRule
}

// NewPolicy validates and compiles rules.
func NewPolicy(rules ...Rule) (*Policy, error) {
	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	for _, rule := range rules {
		if !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("pattern %q must start with /", rule.Pattern)
		}
		pattern, subtree := strings.CutSuffix(rule.Pattern, "/**")
		segments := splitPath(pattern)
		for _, seg := range segments {
			if seg == "**" {
				return nil, fmt.Errorf("pattern %q: ** is only allowed as the last segment", rule.Pattern)
			}
			if _, err := path.Match(seg, ""); err != nil {
				return nil, fmt.Errorf("pattern %q: %w", rule.Pattern, err)
			}
		}
		p.rules = append(p.rules, compiledRule{segments: segments, subtree: subtree, require: rule.Require})
	}
	return p, nil
}

// GalleryRules is the access table of the gallery API mounted under prefix.
func GalleryRules(prefix string) []Rule {
	return []Rule{
		{Pattern: "/assets/**", Require: Public},
		{Pattern: prefix + "/authentication/pingadmin", Require: Admin},
		{Pattern: prefix + "/media/upload", Require: Admin},
		{Pattern: prefix + "/media/comments/*/delete", Require: Admin},
		{Pattern: prefix + "/media/*/delete", Require: Admin},
		{Pattern: prefix + "/authentication/pingauth", Require: Authenticated},
		{Pattern: prefix + "/media/*/upload-comment", Require: Authenticated},
	}
}

// Requirement returns the requirement of the first rule matching urlPath.
func (p *Policy) Requirement(urlPath string) Requirement {
	segments := splitPath(path.Clean("/" + urlPath))
	for _, rule := range p.rules {
		if rule.matches(segments) {
			return rule.require
		}
	}
	return Public
}

// Check reports whether principal (nil when anonymous) may access urlPath.
// It returns an INVALID_CREDENTIALS error when a principal is needed but
// missing, and FORBIDDEN when the principal lacks the required role.
func (p *Policy) Check(principal *Principal, urlPath string) error {
	switch p.Requirement(urlPath) {
	case Authenticated:
		if principal == nil {
			return errordefs.New(errordefs.INVALID_CREDENTIALS, "Authentication required", "")
		}
	case Admin:
		if principal == nil {
			return errordefs.New(errordefs.INVALID_CREDENTIALS, "Authentication required", "")
		}
		if !principal.IsAdmin() {
			return errordefs.New(errordefs.FORBIDDEN, "Access denied", "")
		}
	}
	return nil
}

// Middleware enforces the policy on requests that already passed Filter.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var principal *Principal
		if pr, ok := PrincipalFrom(r.Context()); ok {
			principal = &pr
		}
		if err := p.Check(principal, r.URL.Path); err != nil {
			writeError(w, err.(*errordefs.Error))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (r compiledRule) matches(segments []string) bool {
	if r.subtree {
		if len(segments) < len(r.segments) {
			return false
		}
		segments = segments[:len(r.segments)]
	} else if len(segments) != len(r.segments) {
		return false
	}
	for i, pattern := range r.segments {
		if ok, _ := path.Match(pattern, segments[i]); !ok {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
