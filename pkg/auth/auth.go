// Package auth provides credentials for authenticated repository access.
//
//go:generate mockgen -destination=./mocks/auth.go . Authenticator
package auth

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
)

// Authenticator applies credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type identifies a kind of credentials.
type Type string

// Authentication types.
const (
	UserPasswordType Type = "userpass"
	APITokenType     Type = "token"
	HeaderType       Type = "header"
)

// UserPassword authenticates with HTTP Basic credentials.
type UserPassword struct {
	Username string
	Password string
}

// Apply sets the Basic Authorization header. A missing username is an
// authentication error.
func (u UserPassword) Apply(req *http.Request) error {
	if u.Username == "" {
		return fmt.Errorf("%w: user login is required", errors.ErrAuthFailed)
	}
	req.SetBasicAuth(u.Username, u.Password)
	return nil
}

// Type returns UserPasswordType.
func (u UserPassword) Type() Type { return UserPasswordType }

// String hides the password.
func (u UserPassword) String() string {
	return fmt.Sprintf("UserPassword(%s, ***)", u.Username)
}

// APIToken authenticates with a bearer token.
type APIToken struct {
	Token string
}

// Apply sets the Bearer Authorization header.
func (a APIToken) Apply(req *http.Request) error {
	if a.Token == "" {
		return fmt.Errorf("%w: empty API token", errors.ErrAuthFailed)
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// Type returns APITokenType.
func (a APIToken) Type() Type { return APITokenType }

func (a APIToken) String() string { return "APIToken(***)" }

// Headers sets arbitrary request headers, e.g. a proxy token.
type Headers map[string]string

// Apply sets every header on req.
func (h Headers) Apply(req *http.Request) error {
	for k, v := range h {
		req.Header.Set(k, v)
	}
	return nil
}

// Type returns HeaderType.
func (h Headers) Type() Type { return HeaderType }

// Scoped maps URL prefixes to credentials.
type Scoped map[string]Authenticator

// ForURL returns the authenticator registered for the longest prefix of
// rawURL, or nil when none applies.
func (s Scoped) ForURL(rawURL string) Authenticator {
	prefixes := make([]string, 0, len(s))
	for prefix := range s {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	for _, prefix := range prefixes {
		if strings.HasPrefix(rawURL, prefix) {
			return s[prefix]
		}
	}
	return nil
}

// Apply applies the credentials matching the request URL, if any.
func (s Scoped) Apply(req *http.Request) error {
	if a := s.ForURL(req.URL.String()); a != nil {
		return a.Apply(req)
	}
	return nil
}

// Type returns the type of the single scoped authenticator, or HeaderType
// when several kinds are mixed.
func (s Scoped) Type() Type {
	var t Type
	for _, a := range s {
		if t != "" && a.Type() != t {
			return HeaderType
		}
		t = a.Type()
	}
	return t
}
