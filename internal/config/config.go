// Package config loads venvlock settings from defaults, an optional YAML
// file and VENVLOCK_* environment variables, using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"mvdan.cc/sh/v3/shell"
)

const (
	// AppName is the application name.
	AppName = "venvlock"
	// EnvPrefix prefixes environment overrides, e.g. VENVLOCK_PYTHON.
	EnvPrefix = "VENVLOCK"
	// LocalFileName is looked up in the working directory.
	LocalFileName = ".venvlock.yaml"
	// UserFileName is looked up in the user config directory.
	UserFileName = "config.yaml"
)

// Config is the resolved configuration.
type Config struct {
	// Python is the interpreter used to run pip. $VAR references are
	// expanded by PythonPath.
	Python string `mapstructure:"python"`
	// PipArgs are extra pip install arguments, split with shell quoting rules.
	PipArgs    string `mapstructure:"pip_args"`
	Netrc      string `mapstructure:"netrc"`
	Transitive bool   `mapstructure:"transitive"`
	Verbose    bool   `mapstructure:"verbose"`
}

// LoadOptions selects where configuration is read from.
type LoadOptions struct {
	// ConfigFile, when set, is the only file consulted and must exist.
	ConfigFile string
	// WorkDir is searched for LocalFileName. Empty means the current directory.
	WorkDir string
	// UserDir overrides the user config directory.
	UserDir string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	cfg := Config{Python: "python3"}
	if os.Getenv("VIRTUAL_ENV") != "" {
		cfg.Python = filepath.Join("$VIRTUAL_ENV", "bin", "python")
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Netrc = filepath.Join(home, ".netrc")
	}
	return cfg
}

// UserDir returns the per-user configuration directory.
func UserDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Load resolves the configuration. It returns the path of the file that was
// read, or "" when only defaults and environment applied.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("python", defaults.Python)
	v.SetDefault("pip_args", defaults.PipArgs)
	v.SetDefault("netrc", defaults.Netrc)
	v.SetDefault("transitive", defaults.Transitive)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := findFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, path, nil
}

func findFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if !fileExists(opts.ConfigFile) {
			return "", fmt.Errorf("config file not found: %s", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}

	local := filepath.Join(opts.WorkDir, LocalFileName)
	if fileExists(local) {
		return local, nil
	}

	dir := opts.UserDir
	if dir == "" {
		var err error
		if dir, err = UserDir(); err != nil {
			// No user directory means no user config.
			return "", nil
		}
	}
	if user := filepath.Join(dir, UserFileName); fileExists(user) {
		return user, nil
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// PythonPath expands environment references in Python.
func (c *Config) PythonPath() (string, error) {
	p, err := shell.Expand(c.Python, os.Getenv)
	if err != nil {
		return "", fmt.Errorf("expanding python %q: %w", c.Python, err)
	}
	if p == "" {
		return "python3", nil
	}
	return p, nil
}

// PipArguments splits PipArgs into words.
func (c *Config) PipArguments() ([]string, error) {
	if strings.TrimSpace(c.PipArgs) == "" {
		return nil, nil
	}
	args, err := shell.Fields(c.PipArgs, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("splitting pip_args: %w", err)
	}
	return args, nil
}
