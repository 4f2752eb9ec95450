package config

// Config is the root configuration for a chat server instance.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the listening socket and read-path settings.
type ServerConfig struct {
	Host           string `yaml:"host"` // empty means all interfaces
	Port           int    `yaml:"port"`
	ReadBufferSize int    `yaml:"read_buffer_size"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}
