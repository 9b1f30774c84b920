package config

import (
	"encoding/json"
	"fmt"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/http"
	"gopkg.in/yaml.v3"
)

// Config represents the easyhttp configuration
type Config struct {
	BaseURI                      string            `json:"baseURI,omitempty" yaml:"baseURI,omitempty"`
	Proxy                        string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	ProxyUser                    string            `json:"proxyUser,omitempty" yaml:"proxyUser,omitempty"`
	ProxyPassword                string            `json:"proxyPassword,omitempty" yaml:"proxyPassword,omitempty"`
	BypassProxyForLocalAddresses *bool             `json:"bypassProxyForLocalAddresses,omitempty" yaml:"bypassProxyForLocalAddresses,omitempty"`
	TrustAllCertificates         *bool             `json:"trustAllCertificates,omitempty" yaml:"trustAllCertificates,omitempty"`
	Timeout                      int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds, 0 keeps the connect-only default
	Headers                      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	NoColor                      *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	History                      string            `json:"history,omitempty" yaml:"history,omitempty"` // sqlite file recording executed requests
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

func (c *Config) GetBypassProxyForLocalAddresses() bool {
	return getBool(c.BypassProxyForLocalAddresses, false)
}

func (c *Config) GetTrustAllCertificates() bool {
	return getBool(c.TrustAllCertificates, false)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetTimeout returns the request timeout, zero when unset
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".easyhttp.json",
	"easyhttp.json",
	".easyhttp.yaml",
	".easyhttp.yml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.BaseURI != "" {
		result.BaseURI = other.BaseURI
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.ProxyUser != "" {
		result.ProxyUser = other.ProxyUser
	}
	if other.ProxyPassword != "" {
		result.ProxyPassword = other.ProxyPassword
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.History != "" {
		result.History = other.History
	}

	// Boolean flags - only override if explicitly set in other config
	if other.BypassProxyForLocalAddresses != nil {
		result.BypassProxyForLocalAddresses = other.BypassProxyForLocalAddresses
	}
	if other.TrustAllCertificates != nil {
		result.TrustAllCertificates = other.TrustAllCertificates
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// ToDefaults converts the configuration into the process-wide request defaults
func (c *Config) ToDefaults() (http.Defaults, error) {
	d := http.Defaults{
		BaseURI:                      c.BaseURI,
		ProxyUser:                    c.ProxyUser,
		ProxyPassword:                c.ProxyPassword,
		BypassProxyForLocalAddresses: c.GetBypassProxyForLocalAddresses(),
		TrustAllCertificates:         c.GetTrustAllCertificates(),
	}

	if c.Proxy != "" {
		proxy := c.Proxy
		if !strings.Contains(proxy, "://") {
			proxy = "http://" + proxy
		}
		u, err := neturl.Parse(proxy)
		if err != nil {
			return http.Defaults{}, fmt.Errorf("invalid proxy %q: %w", c.Proxy, err)
		}
		if u.Host == "" {
			return http.Defaults{}, fmt.Errorf("invalid proxy %q: missing host", c.Proxy)
		}
		d.Proxy = u
	}

	return d, nil
}

// SaveConfig saves the configuration to a file, as YAML when the extension says so
func (c *Config) SaveConfig(path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
