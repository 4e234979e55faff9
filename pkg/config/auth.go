package config

import (
	"fmt"

	"github.com/glorpus-work/enpkg/pkg/auth"
	"github.com/glorpus-work/enpkg/pkg/errors"
)

// AuthConfig holds the credentials of a repository. At most one kind is set.
type AuthConfig struct {
	UserPass *UserPassAuth `yaml:"userpass,omitempty"`
	Token    *TokenAuth    `yaml:"token,omitempty"`
	Header   *HeaderAuth   `yaml:"header,omitempty"`
}

// UserPassAuth holds configuration for HTTP Basic Authentication.
type UserPassAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TokenAuth holds configuration for API token authentication.
type TokenAuth struct {
	Token string `yaml:"token"`
}

// HeaderAuth holds configuration for custom header-based authentication.
type HeaderAuth struct {
	Headers map[string]string `yaml:"headers"`
}

func (a *AuthConfig) validate() error {
	if a == nil {
		return nil
	}
	n := 0
	for _, set := range []bool{a.UserPass != nil, a.Token != nil, a.Header != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("%w: exactly one of userpass, token or header must be set", errors.ErrConfigValidation)
	}
	return nil
}

// ToAuthenticator converts the configuration to an Authenticator, nil when
// no credentials are set.
func (a *AuthConfig) ToAuthenticator() auth.Authenticator {
	switch {
	case a == nil:
		return nil
	case a.UserPass != nil:
		return auth.UserPassword{Username: a.UserPass.Username, Password: a.UserPass.Password}
	case a.Token != nil:
		return auth.APIToken{Token: a.Token.Token}
	case a.Header != nil:
		return auth.Headers(a.Header.Headers)
	default:
		return nil
	}
}

// ToAuthMap returns the credentials of the enabled repositories keyed by
// their expanded URL. Returns nil if no repository has credentials.
func (c *Config) ToAuthMap() (auth.Scoped, error) {
	p, err := c.Platform()
	if err != nil {
		return nil, err
	}
	results := make(auth.Scoped)
	for _, repo := range c.Repositories {
		a := repo.Auth.ToAuthenticator()
		if a == nil || !repo.IsEnabled() {
			continue
		}
		u, err := p.FillURL(repo.URL)
		if err != nil {
			return nil, fmt.Errorf("repository '%s': %w", repo.Name, err)
		}
		results[u] = a
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}
