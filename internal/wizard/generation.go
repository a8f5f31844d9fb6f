package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/schemahead/schemahead/internal/config"
)

// GenerateFiles writes schemahead.toml, the .env file for the environment and
// the schema and migrations directories under dir. An existing
// schemahead.toml is only replaced when force is set.
func GenerateFiles(dir string, env EnvironmentInput, force bool) (*InitResult, error) {
	result := &InitResult{}

	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return nil, fmt.Errorf("%s already exists, use --force to overwrite", configPath)
	}

	schemaDir := env.SchemaDir
	if schemaDir == "" {
		schemaDir = "database"
	}
	migrationsDir := filepath.Join(dir, schemaDir, "migrations")
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}
	result.SchemaDir = filepath.Join(dir, schemaDir)
	result.MigrationsDir = migrationsDir

	if err := generateConfigTOML(configPath, env, schemaDir); err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", config.FileName, err)
	}
	result.ConfigPath = configPath
	result.ConfigCreated = true

	envFilePath := filepath.Join(dir, ".env."+env.Name)
	if err := generateEnvFile(envFilePath, env); err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", envFilePath, err)
	}
	result.EnvFile = envFilePath

	updated, err := updateGitignore(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil, fmt.Errorf("failed to update .gitignore: %w", err)
	}
	result.GitignoreUpdated = updated

	return result, nil
}

// generateConfigTOML writes the non-secret settings. Credentials go to the
// .env file.
func generateConfigTOML(path string, env EnvironmentInput, schemaDir string) error {
	cfg := config.Config{
		DefaultEnvironment: env.Name,
		SchemaDir:          schemaDir,
		HeadStore:          env.HeadStore,
		Environments: map[string]config.EnvironmentConfig{
			env.Name: {Dialect: env.Dialect},
		},
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# schemahead configuration\n")
	b.WriteString("# Generated by: schemahead init\n")
	b.WriteString("#\n")
	b.WriteString(fmt.Sprintf("# Credentials: stored in .env.%s (never in this file)\n\n", env.Name))
	b.Write(data)

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func generateEnvFile(path string, env EnvironmentInput) error {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# schemahead environment: %s\n", env.Name))
	b.WriteString("# Generated by: schemahead init\n")
	b.WriteString("#\n")
	b.WriteString("# Do not commit this file if it contains secrets!\n")

	switch env.HeadStore {
	case "graphql":
		b.WriteString(fmt.Sprintf("PRISMA_ENDPOINT=%s\n", env.Endpoint))
		b.WriteString(fmt.Sprintf("PRISMA_TOKEN=%s\n", env.Token))
	case "sql":
		b.WriteString(fmt.Sprintf("DATABASE_URL=%s\n", env.DatabaseURL))
	}

	// Owner read/write only.
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

// updateGitignore adds the .env.* pattern unless it is already there.
func updateGitignore(path string) (bool, error) {
	content := ""
	if data, err := os.ReadFile(path); err == nil {
		content = string(data)
	}

	if strings.Contains(content, ".env.*") {
		return false, nil
	}

	content += `
# schemahead environment files (added by schemahead init)
.env.*
!.env.*.example
`
	return true, os.WriteFile(path, []byte(content), 0o644)
}
