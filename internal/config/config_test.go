package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("STEPSCOPE_HOME", home)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, ".stepscope", "config.json")
	if cfg.Path() != want {
		t.Fatalf("unexpected path %q", cfg.Path())
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.ActiveProfile != "default" || cfg.GetModel() != DefaultModel || cfg.IsValid() {
		t.Fatalf("unexpected default profile %+v", cfg)
	}

	s := cfg.Settings()
	if s.LatentGrid != 64 || s.LatentStride != 4 || s.BaseFPS != 30 || s.Workers != 8 {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if s.LogPath != filepath.Join(home, ".stepscope", "stepscope.log") {
		t.Fatalf("unexpected log path %q", s.LogPath)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"profiles":{"a":{"api_key":"k","model":"m"}},"active_profile":"a","viewer":{"latent_grid":32,"workers":2}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STEPSCOPE_LATENT_GRID", "16")
	t.Setenv("STEPSCOPE_ASSETS", "/data/seqs")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	s := cfg.Settings()
	if s.LatentGrid != 16 || s.Workers != 2 || s.Assets != "/data/seqs" {
		t.Fatalf("unexpected settings %+v", s)
	}
	if !cfg.IsValid() || cfg.GetAPIKey() != "k" {
		t.Fatal("profile a should be active")
	}

	cfg.SetAssets("")
	cfg.SetAssets("/flag/seqs")
	if cfg.Settings().Assets != "/flag/seqs" {
		t.Fatalf("flag override not applied: %q", cfg.Settings().Assets)
	}

	// Overrides stay out of the file.
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}
	saved, _ := os.ReadFile(path)
	if strings.Contains(string(saved), "/data/seqs") || strings.Contains(string(saved), "/flag/seqs") {
		t.Fatal("environment override persisted")
	}
}

func TestBadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("STEPSCOPE_WORKERS", "many")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestUseProfileAndFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"profiles":{"b":{"model":"mb"},"a":{"model":"ma"}},"active_profile":"gone"}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ActiveProfile != "a" || cfg.GetModel() != "ma" {
		t.Fatalf("expected fallback to first profile by name, got %q", cfg.ActiveProfile)
	}
	if err := cfg.UseProfile("b"); err != nil || cfg.GetModel() != "mb" {
		t.Fatalf("switch failed: %v", err)
	}
	if err := cfg.UseProfile("zzz"); err == nil {
		t.Fatal("unknown profile must fail")
	}
}
