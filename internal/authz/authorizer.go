// Package authz decides from the role cookie whether a request may reach a route.
package authz

import (
	"strings"
	"time"

	"campus-portal/internal/domain"
)

// Denial reasons.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonUnknownRole     = "unknown_role"
	ReasonForbidden       = "forbidden"
)

// Decision is the outcome of a route check.
type Decision struct {
	Allowed   bool
	Role      domain.Role
	UserID    string
	SessionID string
	Reason    string
}

// Authorizer checks requests against the static permission table.
type Authorizer struct {
	secret []byte
	now    func() time.Time
}

func NewAuthorizer(secret string) *Authorizer {
	return &Authorizer{secret: []byte(secret), now: time.Now}
}

// IsPublic reports whether path needs no role at all.
func IsPublic(path string) bool {
	for _, p := range PublicPrefixes {
		if underPrefix(path, p) {
			return true
		}
	}
	return false
}

// Check decodes the role cookie and looks up whether role may call method on path.
func (a *Authorizer) Check(cookieValue, method, path string) Decision {
	claims, err := DecodeRoleCookie(a.secret, cookieValue, a.now())
	if err != nil {
		return Decision{Reason: ReasonUnauthenticated}
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return Decision{Reason: ReasonUnknownRole, UserID: claims.Subject}
	}
	d := Decision{Role: role, UserID: claims.Subject, SessionID: claims.SessionID}
	if Permits(role, method, path) {
		d.Allowed = true
		return d
	}
	d.Reason = ReasonForbidden
	return d
}

// Permits reports whether role may call method on path.
func Permits(role domain.Role, method, path string) bool {
	path = normalize(path)
	method = strings.ToUpper(method)
	rules, ok := permissions[role]
	if !ok {
		return false
	}
	for _, set := range [][]Rule{commonRules, rules} {
		for _, r := range set {
			if r.matches(path) && methodAllowed(r.Methods, method) {
				return true
			}
		}
	}
	return false
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// underPrefix matches on whole path segments: /api/exams covers /api/exams/1
// but not /api/exams-archive.
func underPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func (r Rule) matches(path string) bool {
	if r.Pattern != "" {
		return matchSegments(path, r.Pattern)
	}
	return underPrefix(path, r.Prefix)
}

func matchSegments(path, pattern string) bool {
	got := strings.Split(path, "/")
	want := strings.Split(pattern, "/")
	if len(got) != len(want) {
		return false
	}
	for i, seg := range want {
		if seg == "*" {
			if got[i] == "" {
				return false
			}
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}

func methodAllowed(methods []string, method string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
