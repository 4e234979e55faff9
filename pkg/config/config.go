// Package config loads and validates the enpkg configuration: the install
// prefixes, the egg cache, the repositories with their credentials and the
// general settings. The configuration is a YAML file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/fsutil"
	"github.com/glorpus-work/enpkg/pkg/platform"
)

// Config represents the application configuration.
type Config struct {
	// Prefixes are the install prefixes, the first one receiving every
	// install and removal.
	Prefixes []string `yaml:"prefixes"`
	// RepositoryCache is the directory holding fetched eggs.
	RepositoryCache string `yaml:"repository_cache,omitempty"`

	Repositories []*RepositoryConfig `yaml:"repositories"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// RepositoryConfig represents a single repository. URL may hold the
// {ARCH}, {SUBDIR} and {PLATFORM} placeholders.
type RepositoryConfig struct {
	Name    string      `yaml:"name"`
	URL     string      `yaml:"url"`
	Enabled *bool       `yaml:"enabled,omitempty"`
	Auth    *AuthConfig `yaml:"auth,omitempty"`
}

// IsEnabled reports whether the repository is used. Repositories are enabled
// unless configured otherwise.
func (rc *RepositoryConfig) IsEnabled() bool {
	return rc.Enabled == nil || *rc.Enabled
}

// Settings represents general application settings.
type Settings struct {
	// Network settings
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`

	// PythonVersion restricts the eggs considered, empty for any.
	PythonVersion string `yaml:"python_version,omitempty"`
	// SelfPackage is the package manager's own package name.
	SelfPackage string `yaml:"self_package,omitempty"`
	// Platform overrides the detected platform, as "os/arch" or an egg tag
	// such as "rh5-64".
	Platform string `yaml:"platform,omitempty"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxConcurrent is the default maximum number of concurrent metadata requests.
	DefaultMaxConcurrent = 5

	// DefaultSelfPackage is the default name of the package manager's own package.
	DefaultSelfPackage = "enstaller"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	prefix := "."
	if dir, err := fsutil.GetDataDir(); err == nil {
		prefix = filepath.Join(dir, "prefix")
	}
	cache := filepath.Join(prefix, "LOCAL-REPO")
	if dir, err := fsutil.GetEggCacheDir(); err == nil {
		cache = dir
	}

	return &Config{
		Prefixes:        []string{prefix},
		RepositoryCache: cache,
		Repositories:    []*RepositoryConfig{},
		Settings: Settings{
			HTTPTimeout:   DefaultHTTPTimeout,
			MaxConcurrent: DefaultMaxConcurrent,
			SelfPackage:   DefaultSelfPackage,
			OutputFormat:  "text",
			LogLevel:      "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfigPath, err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigParse, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigValidation, err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to path atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfigPath, err)
	}
	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigDirectory, err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigEncode, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigEncode, err)
	}

	if err := fsutil.AtomicWriteFile(absPath, buf.Bytes(), fsutil.FileModeSecure); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigFileCreate, err)
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigMarshal, err)
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if len(c.Prefixes) == 0 {
		return errors.ErrNoPrefixes
	}
	for i, p := range c.Prefixes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: prefix %d is empty", errors.ErrConfigValidation, i)
		}
	}
	if err := validateRepositories(c.Repositories); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateRepositories(repos []*RepositoryConfig) error {
	repoNames := make(map[string]bool)
	for i, repo := range repos {
		if repo.Name == "" {
			return errors.ErrEmptyRepositoryNameWithIndex(i)
		}
		if repo.URL == "" {
			return errors.ErrRepositoryURLEmptyWithName(repo.Name)
		}
		if repoNames[repo.Name] {
			return errors.ErrRepositoryExistsWithName(repo.Name)
		}
		repoNames[repo.Name] = true
		if err := repo.Auth.validate(); err != nil {
			return fmt.Errorf("repository '%s': %w", repo.Name, err)
		}
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errors.ErrHTTPTimeoutNegative
	}
	if s.MaxConcurrent < 1 {
		return errors.ErrMaxConcurrentInvalid
	}
	if s.Platform != "" {
		if _, err := platform.Parse(s.Platform); err != nil {
			return err
		}
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, fsutil.AppName, "config.yaml"), nil
}

// Platform returns the configured platform, or the current one.
func (c *Config) Platform() (platform.Platform, error) {
	if c.Settings.Platform == "" {
		return platform.CurrentPlatform(), nil
	}
	return platform.Parse(c.Settings.Platform)
}

// RepositoryURLs returns the expanded URLs of the enabled repositories, in
// configuration order.
func (c *Config) RepositoryURLs() ([]string, error) {
	p, err := c.Platform()
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(c.Repositories))
	for _, repo := range c.Repositories {
		if !repo.IsEnabled() {
			continue
		}
		u, err := p.FillURL(repo.URL)
		if err != nil {
			return nil, fmt.Errorf("repository '%s': %w", repo.Name, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// AddRepository adds a repository to the configuration.
// Returns an error if a repository with the same name already exists.
func (c *Config) AddRepository(name, url string, enabled bool) error {
	if c.GetRepository(name) != nil {
		return errors.ErrRepositoryExistsWithName(name)
	}
	c.Repositories = append(c.Repositories, &RepositoryConfig{
		Name:    name,
		URL:     url,
		Enabled: &enabled,
	})
	return nil
}

// RemoveRepository removes a repository from the configuration.
func (c *Config) RemoveRepository(name string) bool {
	for i, repo := range c.Repositories {
		if repo.Name == name {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// GetRepository gets a repository configuration by name.
func (c *Config) GetRepository(name string) *RepositoryConfig {
	for _, repo := range c.Repositories {
		if repo.Name == name {
			return repo
		}
	}
	return nil
}

// EnableRepository enables or disables a repository.
func (c *Config) EnableRepository(name string, enabled bool) bool {
	repo := c.GetRepository(name)
	if repo == nil {
		return false
	}
	repo.Enabled = &enabled
	return true
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if len(c.Prefixes) == 0 {
		c.Prefixes = defaults.Prefixes
	}
	if c.RepositoryCache == "" {
		c.RepositoryCache = defaults.RepositoryCache
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Settings.SelfPackage == "" {
		c.Settings.SelfPackage = defaults.Settings.SelfPackage
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
