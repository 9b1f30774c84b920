package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BypassProxyForLocalAddresses: BoolPtr(false),
		TrustAllCertificates:         BoolPtr(false),
		NoColor:                      BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	return c.BaseURI == "" &&
		c.Proxy == "" &&
		c.ProxyUser == "" &&
		c.ProxyPassword == "" &&
		!c.GetBypassProxyForLocalAddresses() &&
		!c.GetTrustAllCertificates() &&
		c.Timeout == 0 &&
		len(c.Headers) == 0 &&
		!c.GetNoColor() &&
		c.History == ""
}
