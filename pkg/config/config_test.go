package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/config"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.LoadWithEnv("", env(nil))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "reportgen.yaml")
	body := "database:\n  type: mysql\n  dsn: user@tcp(db)/reports\ntheme:\n  name: corporate\nloader:\n  timeout: 3s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := config.LoadWithEnv("", env(map[string]string{
		config.EnvConfigPath: path,
		config.EnvDBType:     "sqlite",
		config.EnvDBDSN:      ":memory:",
		config.EnvAllowHTTP:  "true",
	}))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DSN != ":memory:" {
		t.Fatalf("env did not override database: %+v", cfg.Database)
	}
	if cfg.Theme.Name != "corporate" || cfg.Theme.Variant != "light" {
		t.Fatalf("unexpected theme: %+v", cfg.Theme)
	}
	if !cfg.Loader.AllowHTTP || cfg.Loader.Timeout != 3*time.Second {
		t.Fatalf("unexpected loader: %+v", cfg.Loader)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if _, err := config.LoadWithEnv(filepath.Join(dir, "missing.yaml"), env(nil)); err == nil {
		t.Fatal("explicit missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("database:\n  type: oracle\n  dsn: x\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.LoadWithEnv(bad, env(nil)); err == nil {
		t.Fatal("unsupported database type should fail")
	}

	if _, err := config.LoadWithEnv(bad, env(map[string]string{config.EnvDBType: "memory", config.EnvAllowHTTP: "maybe"})); err == nil {
		t.Fatal("invalid bool should fail")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := config.Default()
	want.Database = config.DatabaseConfig{Type: "memory"}
	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := config.LoadWithEnv(path, env(nil))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
