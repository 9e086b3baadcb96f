package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/teienrich/pkg/teienrich/internalerr"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Editions != "./editions/*.xml" || cfg.Indices != "./indices/list*.xml" {
		t.Errorf("unexpected patterns %q %q", cfg.Editions, cfg.Indices)
	}
	if cfg.Selectors.References != ".//tei:rs[@ref]/@ref" {
		t.Errorf("unexpected reference selector %q", cfg.Selectors.References)
	}
	if cfg.LeadIn != "erwähnt in " {
		t.Errorf("unexpected lead-in %q", cfg.LeadIn)
	}
	if cfg.Handle.Prefix != "21.11115" {
		t.Errorf("unexpected handle prefix %q", cfg.Handle.Prefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "teienrich.yaml")

	content := `editions: data/editions/*.xml
base: https://id.example.org
selectors:
  title: .//tei:title/text()
  date: .//tei:date/@when
lead_in: "mentioned in "
blacklist:
  - "#DWpers0091"
handle:
  username: alice
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Editions != "data/editions/*.xml" {
		t.Errorf("Expected editions override, got %q", cfg.Editions)
	}
	if cfg.Indices != DefaultIndices {
		t.Errorf("Expected default indices, got %q", cfg.Indices)
	}
	if cfg.Selectors.References != ".//tei:rs[@ref]/@ref" {
		t.Errorf("reference selector lost its default: %q", cfg.Selectors.References)
	}
	if cfg.Selectors.Date != ".//tei:date/@when" {
		t.Errorf("unexpected date selector %q", cfg.Selectors.Date)
	}
	if cfg.LeadIn != "mentioned in " {
		t.Errorf("unexpected lead-in %q", cfg.LeadIn)
	}
	if len(cfg.Blacklist) != 1 {
		t.Errorf("Expected 1 blacklisted id, got %d", len(cfg.Blacklist))
	}
	if cfg.Handle.Username != "alice" || cfg.Handle.Provider == "" {
		t.Errorf("unexpected handle config %+v", cfg.Handle)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("editions: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateSelector(t *testing.T) {
	cfg := Default()
	cfg.Selectors.Date = ".//tei:date[@when"
	if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}

	cfg = Default()
	cfg.Editions = ""
	if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig for empty pattern, got %v", err)
	}
}

func TestLoadBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.yaml")
	content := `ids:
  - "#p1"
  - p2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	ids, err := LoadBlacklist(path)
	if err != nil {
		t.Fatalf("Failed to load blacklist: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("Expected 2 ids, got %d", len(ids))
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Should error on non-existent file")
	}
	if _, err := LoadBlacklist("/nonexistent/blacklist.yaml"); err == nil {
		t.Error("Should error on non-existent file")
	}
}
