package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file searched for from the working directory
// upwards.
const FileName = "schemahead.toml"

// EnvironmentConfig describes a single named environment from schemahead.toml.
type EnvironmentConfig struct {
	Endpoint    string `toml:"endpoint,omitempty"`
	Token       string `toml:"token,omitempty"`
	DatabaseURL string `toml:"database_url,omitempty"`
	Dialect     string `toml:"dialect,omitempty"`
}

type Config struct {
	DefaultEnvironment string                       `toml:"default_environment,omitempty"`
	SchemaDir          string                       `toml:"schema_dir,omitempty"`
	MigrationsDir      string                       `toml:"migrations_dir,omitempty"`
	HookFile           string                       `toml:"hook_file,omitempty"`
	DeployCommand      string                       `toml:"deploy_command,omitempty"`
	DeployParams       string                       `toml:"deploy_params,omitempty"`
	DiffCommand        string                       `toml:"diff_command,omitempty"`
	HeadStore          string                       `toml:"head_store,omitempty"`
	LogLevel           string                       `toml:"log_level,omitempty"`
	MetricsFile        string                       `toml:"metrics_file,omitempty"`
	RequestTimeout     string                       `toml:"request_timeout,omitempty"`
	Environments       map[string]EnvironmentConfig `toml:"environments,omitempty"`
	ConfigFilePath     string                       `toml:"-"`
}

// ConfigDir returns the directory holding the loaded config file, or "" when
// no file was found.
func (c *Config) ConfigDir() string {
	if c == nil || c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// LoadConfig searches for schemahead.toml starting at the working directory.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(startDir)
}

// LoadConfigFrom searches for schemahead.toml in startDir and its parents,
// stopping at the first project root. An empty Config is returned when no file
// is found.
func LoadConfigFrom(startDir string) (*Config, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, err
			}

			var config Config
			if err := toml.Unmarshal(data, &config); err != nil {
				return nil, err
			}

			config.ConfigFilePath = configPath
			return &config, nil
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	for _, marker := range []string{".git", "go.mod", "package.json"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
