package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindEnvLocal_InCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env.local")
	if err := os.WriteFile(envPath, []byte("TEST=value"), 0644); err != nil {
		t.Fatal(err)
	}

	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result == "" {
		t.Error("expected to find .env.local in current directory")
	}
}

func TestFindEnvLocal_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	childDir := filepath.Join(tmpDir, "child")
	if err := os.Mkdir(childDir, 0755); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(tmpDir, ".env.local")
	if err := os.WriteFile(envPath, []byte("TEST=parent"), 0644); err != nil {
		t.Fatal(err)
	}

	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(childDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result == "" {
		t.Error("expected to find .env.local in parent directory")
	}
	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(envPath)
	resultResolved, _ := filepath.EvalSymlinks(result)
	if resultResolved != expectedResolved {
		t.Errorf("expected %s, got %s", expectedResolved, resultResolved)
	}
}

func TestFindEnvLocal_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result != "" {
		t.Errorf("expected empty string when no .env.local found, got %s", result)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GUILDSNAP_TOKEN", "bot-token")
	t.Setenv("GUILDSNAP_STORE_BACKEND", "sqlite")
	t.Setenv("GUILDSNAP_LOG_LEVEL", "debug")
	t.Setenv("GUILDSNAP_IGNORE_PREFIXES", "staff-, mod-,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "bot-token" {
		t.Errorf("expected token from env, got %q", cfg.Token)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", cfg.StoreBackend)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.LogLevel)
	}
	if len(cfg.IgnorePrefixes) != 2 || cfg.IgnorePrefixes[0] != "staff-" || cfg.IgnorePrefixes[1] != "mod-" {
		t.Errorf("unexpected ignore prefixes: %v", cfg.IgnorePrefixes)
	}
	if cfg.StoreDir == "" || cfg.DBPath == "" {
		t.Error("expected default store paths to be filled in")
	}
}

func TestLoad_BadBackend(t *testing.T) {
	t.Setenv("GUILDSNAP_STORE_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown store backend")
	}
}

func TestLoad_TokenFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	tokenPath := filepath.Join(tmpDir, "token")
	if err := os.WriteFile(tokenPath, []byte("file-token\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GUILDSNAP_TOKEN", "")
	t.Setenv("GUILDSNAP_TOKEN_FILE", tokenPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "file-token" {
		t.Errorf("expected token read from file, got %q", cfg.Token)
	}
}
