package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file checks of the loader for tests.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFileSystem struct{}

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv exports the variables of a .env file; variables already present
// in the environment win.
func (osFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig collects the loader options.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	EnvPrefix  string
	// Defaults are keyed by dotted path. Registering a key is also what makes
	// its environment variable visible to viper.
	Defaults map[string]any
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search for a YAML file.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile skips the search for a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix namespaces environment variables, e.g. VOICEPULSE_LLM_MODEL.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// WithDefaults registers dotted-path defaults.
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(lc *LoaderConfig) { lc.Defaults = defaults }
}

// configCandidates lists where a service's YAML file is looked for, in
// order.
func configCandidates(service string) []string {
	return []string{
		"./cmd/" + service + "/config.yml",
		"./" + service + ".yml",
		"./" + service + ".yaml",
		"./config/config.yml",
		"./config.yml",
		"./config.yaml",
	}
}

func envCandidates(service string) []string {
	return []string{
		"./.env." + service,
		"./cmd/" + service + "/.env",
		"./.env",
	}
}

// locate returns explicit if set, else the first existing candidate.
func locate(fs FileSystem, explicit string, candidates []string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range candidates {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig fills cfg from defaults, the YAML file, the .env file and the
// environment, in increasing order of precedence. A missing file is not an
// error.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: osFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	for key, value := range lc.Defaults {
		v.SetDefault(key, value)
	}

	if path := locate(lc.FileSystem, lc.ConfigFile, configCandidates(service)); path != "" && lc.FileSystem.Exists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	// The .env file must be exported before AutomaticEnv reads variables.
	if path := locate(lc.FileSystem, lc.EnvFile, envCandidates(service)); path != "" && lc.FileSystem.Exists(path) {
		if err := lc.FileSystem.LoadEnv(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	if lc.EnvPrefix != "" {
		v.SetEnvPrefix(lc.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal %s config: %w", service, err)
	}
	return nil
}
