package config

// Config holds client configuration values.
type Config struct {
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	PrefsPath string `mapstructure:"prefs_path" yaml:"prefs_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL: "ws://localhost:3000/ws",
		LogLevel:  "info",
		PrefsPath: "poinz.db",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.PrefsPath != "" {
		c.PrefsPath = other.PrefsPath
	}
}
