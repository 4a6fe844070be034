package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "SENDHTTP"

// Config represents the sendhttp configuration
type Config struct {
	FollowRedirects bool          `mapstructure:"follow_redirects"`
	VerifySSL       bool          `mapstructure:"verify_ssl"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRedirects    int           `mapstructure:"max_redirects" validate:"gte=0"`
	Proxy           string        `mapstructure:"proxy" validate:"omitempty,url"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `mapstructure:"log_format" validate:"oneof=console json"`
	EnvFile         string        `mapstructure:"env_file"`
	Concurrency     int           `mapstructure:"concurrency" validate:"gte=1"`
	Rate            float64       `mapstructure:"rate" validate:"gte=0"`
	NoColor         bool          `mapstructure:"no_color"`

	// File is the config file that was loaded, if any
	File string `mapstructure:"-"`
}

// ConfigName is the base name searched for in the working and home directories
const ConfigName = ".sendhttp"

// Options controls where Load looks for configuration.
type Options struct {
	// Path is an explicit config file; when set, it must exist
	Path string
	// Dirs are searched in order for ConfigName; defaults to "." and $HOME
	Dirs []string
	// DotEnv is loaded into the process environment before reading
	// SENDHTTP_* variables; a missing file is ignored
	DotEnv string
	// Overrides are applied last, keyed like the config file
	Overrides map[string]any
}

// Load reads configuration from defaults, config file, environment variables
// and overrides, then validates the result.
func Load(opts Options) (*Config, error) {
	if opts.DotEnv != "" {
		if err := godotenv.Load(opts.DotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.DotEnv, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.Path, err)
		}
	} else {
		dirs := opts.Dirs
		if len(dirs) == 0 {
			dirs = defaultDirs()
		}
		if path := findConfigFile(dirs); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigExtensions are tried in order for each search directory
var ConfigExtensions = []string{".yaml", ".yml", ".json"}

func findConfigFile(dirs []string) string {
	for _, dir := range dirs {
		for _, ext := range ConfigExtensions {
			path := filepath.Join(dir, ConfigName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func defaultDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return dirs
}

var validate = validator.New()

// Validate checks every field against its constraints and reports all
// violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
