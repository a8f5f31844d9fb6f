package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/schemahead/schemahead/internal/config"
)

func TestGenerateFiles_GraphQL(t *testing.T) {
	dir := t.TempDir()
	env := EnvironmentInput{
		Name:      "dev",
		HeadStore: "graphql",
		Endpoint:  "http://localhost:4466",
		Token:     "secret",
		SchemaDir: "database",
	}

	result, err := GenerateFiles(dir, env, false)
	if err != nil {
		t.Fatalf("Failed to generate files: %v", err)
	}

	if !result.ConfigCreated {
		t.Error("Expected config to be created")
	}
	if result.ConfigPath != filepath.Join(dir, config.FileName) {
		t.Errorf("Expected config path %s, got %s", filepath.Join(dir, config.FileName), result.ConfigPath)
	}
	if info, err := os.Stat(result.MigrationsDir); err != nil || !info.IsDir() {
		t.Errorf("Expected migrations directory at %s: %v", result.MigrationsDir, err)
	}

	cfg, err := config.LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if cfg.DefaultEnvironment != "dev" {
		t.Errorf("Expected default environment dev, got %q", cfg.DefaultEnvironment)
	}
	if cfg.SchemaDir != "database" {
		t.Errorf("Expected schema dir database, got %q", cfg.SchemaDir)
	}
	if cfg.HeadStore != "graphql" {
		t.Errorf("Expected head store graphql, got %q", cfg.HeadStore)
	}
	if _, ok := cfg.Environments["dev"]; !ok {
		t.Errorf("Expected environments.dev in config, got %v", cfg.Environments)
	}

	envData, err := os.ReadFile(result.EnvFile)
	if err != nil {
		t.Fatalf("Failed to read env file: %v", err)
	}
	content := string(envData)
	for _, want := range []string{"PRISMA_ENDPOINT=http://localhost:4466", "PRISMA_TOKEN=secret"} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected env file to contain %q, got:\n%s", want, content)
		}
	}

	info, err := os.Stat(result.EnvFile)
	if err != nil {
		t.Fatalf("Failed to stat env file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Expected env file mode 0600, got %v", info.Mode().Perm())
	}

	configData, err := os.ReadFile(result.ConfigPath)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	if strings.Contains(string(configData), "secret") {
		t.Error("Expected token to stay out of schemahead.toml")
	}
}

func TestGenerateFiles_SQL(t *testing.T) {
	dir := t.TempDir()
	env := EnvironmentInput{
		Name:        "local",
		HeadStore:   "sql",
		Dialect:     "sqlite",
		DatabaseURL: "file:head.db",
	}

	result, err := GenerateFiles(dir, env, false)
	if err != nil {
		t.Fatalf("Failed to generate files: %v", err)
	}

	if result.SchemaDir != filepath.Join(dir, "database") {
		t.Errorf("Expected default schema dir, got %s", result.SchemaDir)
	}

	cfg, err := config.LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	want := map[string]config.EnvironmentConfig{"local": {Dialect: "sqlite"}}
	if diff := cmp.Diff(want, cfg.Environments); diff != "" {
		t.Errorf("Environments mismatch (-want +got):\n%s", diff)
	}

	envData, err := os.ReadFile(filepath.Join(dir, ".env.local"))
	if err != nil {
		t.Fatalf("Failed to read env file: %v", err)
	}
	if !strings.Contains(string(envData), "DATABASE_URL=file:head.db") {
		t.Errorf("Expected DATABASE_URL in env file, got:\n%s", envData)
	}
}

func TestGenerateFiles_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	env := EnvironmentInput{Name: "dev", HeadStore: "graphql", Endpoint: "http://localhost:4466"}

	if _, err := GenerateFiles(dir, env, false); err != nil {
		t.Fatalf("Failed to generate files: %v", err)
	}

	_, err := GenerateFiles(dir, env, false)
	if err == nil {
		t.Fatal("Expected error when config exists, got nil")
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Errorf("Expected error to mention --force, got %v", err)
	}

	if _, err := GenerateFiles(dir, env, true); err != nil {
		t.Errorf("Expected force to overwrite, got %v", err)
	}
}

func TestUpdateGitignore(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".gitignore")
	if err := os.WriteFile(path, []byte("node_modules/\n"), 0o644); err != nil {
		t.Fatalf("Failed to write .gitignore: %v", err)
	}

	updated, err := updateGitignore(path)
	if err != nil {
		t.Fatalf("Failed to update .gitignore: %v", err)
	}
	if !updated {
		t.Error("Expected first update to modify .gitignore")
	}

	updated, err = updateGitignore(path)
	if err != nil {
		t.Fatalf("Failed to update .gitignore: %v", err)
	}
	if updated {
		t.Error("Expected second update to be a no-op")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read .gitignore: %v", err)
	}
	if !strings.HasPrefix(string(data), "node_modules/\n") {
		t.Errorf("Expected existing entries to be kept, got:\n%s", data)
	}
	if strings.Count(string(data), ".env.*\n") != 1 {
		t.Errorf("Expected exactly one .env.* entry, got:\n%s", data)
	}
}
