package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/schemahead/schemahead/internal/errs"
)

const (
	defaultEnvironmentName = "local"
	defaultSchemaDir       = "database"
	defaultHookFile        = "job.go"
	defaultDeployCommand   = "prisma deploy"
	defaultDiffCommand     = "diff -ru"
	defaultLogLevel        = "info"
	defaultRequestTimeout  = 60 * time.Second

	HeadStoreGraphQL = "graphql"
	HeadStoreSQL     = "sql"
)

// Overrides holds values given on the command line. They take precedence over
// every other source.
type Overrides struct {
	Environment   string
	SchemaDir     string
	MigrationsDir string
	LogLevel      string
	MetricsFile   string
}

// processEnv is read from the process environment with the SCHEMAHEAD_
// prefix. Fields with an explicit tag also fall back to the bare name, which
// keeps PRISMA_ENDPOINT working.
type processEnv struct {
	Endpoint      string `envconfig:"PRISMA_ENDPOINT"`
	Token         string `envconfig:"PRISMA_TOKEN"`
	DatabaseURL   string `split_words:"true"`
	SchemaDir     string `split_words:"true"`
	MigrationsDir string `split_words:"true"`
	LogLevel      string `split_words:"true"`
	MetricsFile   string `split_words:"true"`
	DeployCommand string `split_words:"true"`
	DeployParams  string `split_words:"true"`
}

// Resolved is the fully-resolved configuration handed to every component.
// It is built once per invocation and passed by value.
type Resolved struct {
	Environment    string
	SchemaDir      string
	MigrationsDir  string
	HookFile       string
	DeployCommand  string
	DeployParams   string
	DiffCommand    string
	HeadStore      string
	Endpoint       string
	Token          string
	DatabaseURL    string
	Dialect        string
	LogLevel       string
	MetricsFile    string
	RequestTimeout time.Duration
	ConfigFilePath string
	DotenvPath     string
	FromDotenv     bool
}

// Resolve merges defaults, schemahead.toml, .env.<environment>, the process
// environment and command line overrides, in increasing precedence.
func Resolve(config *Config, overrides Overrides) (Resolved, error) {
	if config == nil {
		config = &Config{}
	}

	envName := strings.TrimSpace(overrides.Environment)
	if envName == "" {
		envName = config.DefaultEnvironment
	}
	if envName == "" {
		envName = defaultEnvironmentName
	}

	envConfig, envExists := config.Environments[envName]
	if len(config.Environments) > 0 && !envExists {
		return Resolved{}, fmt.Errorf("%w: environment %q not defined in %s", errs.ErrInvalidConfig, envName, config.ConfigFilePath)
	}

	resolved := Resolved{
		Environment:    envName,
		SchemaDir:      firstNonEmpty(config.SchemaDir, defaultSchemaDir),
		MigrationsDir:  config.MigrationsDir,
		HookFile:       firstNonEmpty(config.HookFile, defaultHookFile),
		DeployCommand:  firstNonEmpty(config.DeployCommand, defaultDeployCommand),
		DeployParams:   config.DeployParams,
		DiffCommand:    firstNonEmpty(config.DiffCommand, defaultDiffCommand),
		HeadStore:      firstNonEmpty(config.HeadStore, HeadStoreGraphQL),
		Endpoint:       envConfig.Endpoint,
		Token:          envConfig.Token,
		DatabaseURL:    envConfig.DatabaseURL,
		Dialect:        envConfig.Dialect,
		LogLevel:       firstNonEmpty(config.LogLevel, defaultLogLevel),
		MetricsFile:    config.MetricsFile,
		RequestTimeout: defaultRequestTimeout,
		ConfigFilePath: config.ConfigFilePath,
	}

	if config.RequestTimeout != "" {
		d, err := time.ParseDuration(config.RequestTimeout)
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: request_timeout: %v", errs.ErrInvalidConfig, err)
		}
		resolved.RequestTimeout = d
	}

	baseDir := config.ConfigDir()
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}

	resolved.DotenvPath = filepath.Join(baseDir, ".env."+envName)
	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return Resolved{}, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true
		applyDotenv(&resolved, values)
	} else if err != nil && !os.IsNotExist(err) {
		return Resolved{}, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
	}

	var env processEnv
	if err := envconfig.Process("schemahead", &env); err != nil {
		return Resolved{}, fmt.Errorf("%w: %v", errs.ErrInvalidConfig, err)
	}
	applyProcessEnv(&resolved, env)

	if overrides.LogLevel != "" {
		resolved.LogLevel = overrides.LogLevel
	}

	// Paths from files and the environment are relative to the config file;
	// paths given on the command line are relative to the working directory.
	cwd, err := os.Getwd()
	if err != nil {
		return Resolved{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	resolved.SchemaDir = resolvePath(resolved.SchemaDir, baseDir)
	resolved.MigrationsDir = resolvePath(resolved.MigrationsDir, baseDir)
	resolved.MetricsFile = resolvePath(resolved.MetricsFile, baseDir)
	if overrides.SchemaDir != "" {
		resolved.SchemaDir = resolvePath(overrides.SchemaDir, cwd)
	}
	if overrides.MigrationsDir != "" {
		resolved.MigrationsDir = resolvePath(overrides.MigrationsDir, cwd)
	}
	if overrides.MetricsFile != "" {
		resolved.MetricsFile = resolvePath(overrides.MetricsFile, cwd)
	}
	if resolved.MigrationsDir == "" {
		resolved.MigrationsDir = filepath.Join(resolved.SchemaDir, "migrations")
	}

	return resolved, nil
}

func applyDotenv(resolved *Resolved, values map[string]string) {
	if value := values["PRISMA_ENDPOINT"]; value != "" {
		resolved.Endpoint = value
	}
	if value := values["SCHEMAHEAD_ENDPOINT"]; value != "" {
		resolved.Endpoint = value
	}
	if value := values["PRISMA_TOKEN"]; value != "" {
		resolved.Token = value
	}
	if value := values["DATABASE_URL"]; value != "" {
		resolved.DatabaseURL = value
	}
	if value := values["SCHEMA_DIR"]; value != "" {
		resolved.SchemaDir = value
	}
	if value := values["MIGRATIONS_DIR"]; value != "" {
		resolved.MigrationsDir = value
	}
}

func applyProcessEnv(resolved *Resolved, env processEnv) {
	set := func(dst *string, value string) {
		if value != "" {
			*dst = value
		}
	}
	set(&resolved.Endpoint, env.Endpoint)
	set(&resolved.Token, env.Token)
	set(&resolved.DatabaseURL, env.DatabaseURL)
	set(&resolved.SchemaDir, env.SchemaDir)
	set(&resolved.MigrationsDir, env.MigrationsDir)
	set(&resolved.LogLevel, env.LogLevel)
	set(&resolved.MetricsFile, env.MetricsFile)
	set(&resolved.DeployCommand, env.DeployCommand)
	set(&resolved.DeployParams, env.DeployParams)
}

// resolvePath makes relative paths relative to the config directory.
func resolvePath(path, base string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
