package config

const (
	// DefaultReadBufferSize bounds a single read; larger inbound chunks
	// are truncated, never reassembled.
	DefaultReadBufferSize = 4096

	DefaultMetricsPort = 9190
	DefaultMetricsPath = "/metrics"
)

// Default returns a config with every default applied and no port set.
// The port has no default; it must come from the config file or the
// command line.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.ReadBufferSize == 0 {
		c.Server.ReadBufferSize = DefaultReadBufferSize
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// Addr returns the listen address for the chat listener.
func (c *Config) Addr() string {
	return joinHostPort(c.Server.Host, c.Server.Port)
}

// MetricsAddr returns the listen address for the metrics endpoint.
func (c *Config) MetricsAddr() string {
	return joinHostPort(c.Server.Host, c.Metrics.Port)
}
