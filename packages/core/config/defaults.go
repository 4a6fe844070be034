package config

import "time"

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
	DefaultConcurrency  = 5
	DefaultEnvFile      = ".env"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		FollowRedirects: true,
		VerifySSL:       true,
		Timeout:         DefaultTimeout,
		MaxRedirects:    DefaultMaxRedirects,
		Proxy:           "",
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		EnvFile:         DefaultEnvFile,
		Concurrency:     DefaultConcurrency,
		Rate:            0,
		NoColor:         false,
	}
}

func setDefaults(setter interface{ SetDefault(string, any) }) {
	d := DefaultConfig()
	setter.SetDefault("follow_redirects", d.FollowRedirects)
	setter.SetDefault("verify_ssl", d.VerifySSL)
	setter.SetDefault("timeout", d.Timeout)
	setter.SetDefault("max_redirects", d.MaxRedirects)
	setter.SetDefault("proxy", d.Proxy)
	setter.SetDefault("log_level", d.LogLevel)
	setter.SetDefault("log_format", d.LogFormat)
	setter.SetDefault("env_file", d.EnvFile)
	setter.SetDefault("concurrency", d.Concurrency)
	setter.SetDefault("rate", d.Rate)
	setter.SetDefault("no_color", d.NoColor)
}
