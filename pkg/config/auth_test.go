package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/enpkg/pkg/auth"
)

func TestToAuthenticator(t *testing.T) {
	tests := []struct {
		name     string
		config   *AuthConfig
		expected auth.Authenticator
	}{
		{name: "nil", config: nil, expected: nil},
		{name: "empty", config: &AuthConfig{}, expected: nil},
		{
			name:     "userpass",
			config:   &AuthConfig{UserPass: &UserPassAuth{Username: "user", Password: "pass"}},
			expected: auth.UserPassword{Username: "user", Password: "pass"},
		},
		{
			name:     "token",
			config:   &AuthConfig{Token: &TokenAuth{Token: "abc"}},
			expected: auth.APIToken{Token: "abc"},
		},
		{
			name:     "header",
			config:   &AuthConfig{Header: &HeaderAuth{Headers: map[string]string{"X-Api-Key": "k"}}},
			expected: auth.Headers{"X-Api-Key": "k"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.ToAuthenticator())
		})
	}
}

func TestToAuthMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.Platform = "osx-64"

	m, err := cfg.ToAuthMap()
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, cfg.AddRepository("free", "https://acme.com/free/{SUBDIR}", true))
	require.NoError(t, cfg.AddRepository("commercial", "https://acme.com/commercial/{SUBDIR}", true))
	require.NoError(t, cfg.AddRepository("disabled", "https://acme.com/old/", false))
	cfg.GetRepository("commercial").Auth = &AuthConfig{Token: &TokenAuth{Token: "abc"}}
	cfg.GetRepository("disabled").Auth = &AuthConfig{Token: &TokenAuth{Token: "old"}}

	m, err = cfg.ToAuthMap()
	require.NoError(t, err)
	assert.Equal(t, auth.Scoped{
		"https://acme.com/commercial/osx-64/": auth.APIToken{Token: "abc"},
	}, m)

	assert.Equal(t, auth.APIToken{Token: "abc"}, m.ForURL("https://acme.com/commercial/osx-64/numpy-1.8.0-1.egg"))
	assert.Nil(t, m.ForURL("https://acme.com/free/osx-64/index.json"))
}
