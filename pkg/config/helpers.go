package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// SetValue sets a configuration value by key
// Supported keys:
//   - repository_cache: string - Path to the egg cache
//   - http_timeout: duration - Timeout of HTTP requests, e.g. 30s
//   - max_concurrent: int - Concurrent metadata requests
//   - python_version: string - Python version of the considered eggs
//   - self_package: string - Name of the package manager's own package
//   - platform: string - Platform override, os/arch or an egg tag
//   - output_format: string - Output format (text, json)
//   - log_level: string - Logging level (debug, info, warn, error)
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "repository_cache":
		c.RepositoryCache = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		c.Settings.HTTPTimeout = d
	case "max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		c.Settings.MaxConcurrent = n
	case "python_version":
		c.Settings.PythonVersion = value
	case "self_package":
		c.Settings.SelfPackage = value
	case "platform":
		c.Settings.Platform = value
	case "output_format":
		c.Settings.OutputFormat = value
	case "log_level":
		c.Settings.LogLevel = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return c.Validate()
}

// GetValue returns a configuration value by key, as a string.
func (c *Config) GetValue(key string) (string, error) {
	if key == "repository_cache" {
		return c.RepositoryCache, nil
	}
	m := c.ToMap()
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return v, nil
}

// ToMap returns the settings keyed by their YAML name.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	// Convert Settings struct to map
	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "platform,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]

		var strValue string
		switch v := settingsValue.Field(i).Interface().(type) {
		case fmt.Stringer:
			strValue = v.String()
		case string:
			strValue = v
		default:
			strValue = fmt.Sprint(v)
		}

		result[yamlKey] = strValue
	}

	return result
}
