package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.NonFilterableTypes) != 3 {
		t.Fatalf("unexpected default types: %v", cfg.NonFilterableTypes)
	}
	if cfg.MinCoverageWarn != 0.75 {
		t.Fatalf("unexpected default coverage target: %v", cfg.MinCoverageWarn)
	}
	if cfg.Concurrency != 4 || cfg.ServerPort != 8080 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxUploadBytes != 8<<20 {
		t.Fatalf("unexpected upload limit: %d", cfg.MaxUploadBytes)
	}
}

func TestNormalize(t *testing.T) {
	cfg := &Config{
		NonFilterableTypes: []string{" Text ", "", "SINGLE_VALUE"},
		Formats:            []string{" JSON ", ""},
	}
	cfg.Normalize()

	if len(cfg.NonFilterableTypes) != 2 || cfg.NonFilterableTypes[0] != "text" || cfg.NonFilterableTypes[1] != "single_value" {
		t.Fatalf("unexpected normalized types: %v", cfg.NonFilterableTypes)
	}
	if len(cfg.Formats) != 1 || cfg.Formats[0] != "json" {
		t.Fatalf("unexpected normalized formats: %v", cfg.Formats)
	}
}

func TestIsTypeNonFilterable(t *testing.T) {
	cfg := DefaultConfig()

	cases := map[string]bool{
		"text":         true,
		"TEXT":         true,
		"single_value": true,
		"looker_grid":  false,
		"":             false,
	}
	for vizType, want := range cases {
		if got := cfg.IsTypeNonFilterable(vizType); got != want {
			t.Fatalf("IsTypeNonFilterable(%q) = %v, want %v", vizType, got, want)
		}
	}

	cfg.NonFilterableTypes = []string{"single_*"}
	if !cfg.IsTypeNonFilterable("single_anything") {
		t.Fatal("expected glob pattern to match")
	}
	if cfg.IsTypeNonFilterable("text") {
		t.Fatal("expected non-matching type to be filterable")
	}

	// Invalid glob falls back to exact matching.
	cfg.NonFilterableTypes = []string{"weird["}
	if !cfg.IsTypeNonFilterable("weird[") {
		t.Fatal("expected invalid glob to match exactly")
	}
	if cfg.IsTypeNonFilterable("weirdx") {
		t.Fatal("expected invalid glob to only match exactly")
	}
}

func TestFileConfigFormatList(t *testing.T) {
	fc := &FileConfig{Formats: []string{"json", "sarif"}, Format: "text"}
	if got := fc.FormatList(); len(got) != 2 {
		t.Fatalf("expected plural field to win, got %v", got)
	}

	fc = &FileConfig{Format: " text "}
	if got := fc.FormatList(); len(got) != 1 || got[0] != "text" {
		t.Fatalf("expected singular fallback, got %v", got)
	}

	fc = &FileConfig{}
	if got := fc.FormatList(); got != nil {
		t.Fatalf("expected nil for empty config, got %v", got)
	}
}

func TestFileConfigApply(t *testing.T) {
	cfg := DefaultConfig()

	warn := 0.5
	workers := 8
	failOn := true
	fc := &FileConfig{
		NonFilterableTypes: []string{"text"},
		Format:             "sarif",
		OutputDir:          "./out",
		MinCoverageWarn:    &warn,
		Concurrency:        &workers,
		Baseline:           "known.json",
		FailOnFindings:     &failOn,
	}
	fc.Apply(cfg)

	if len(cfg.NonFilterableTypes) != 1 || cfg.NonFilterableTypes[0] != "text" {
		t.Fatalf("types not applied: %v", cfg.NonFilterableTypes)
	}
	if len(cfg.Formats) != 1 || cfg.Formats[0] != "sarif" {
		t.Fatalf("format not applied: %v", cfg.Formats)
	}
	if cfg.OutputDir != "./out" || cfg.MinCoverageWarn != 0.5 || cfg.Concurrency != 8 {
		t.Fatalf("values not applied: %+v", cfg)
	}
	if cfg.BaselinePath != "known.json" || !cfg.FailOnFindings {
		t.Fatalf("baseline settings not applied: %+v", cfg)
	}

	// Empty file config leaves defaults alone.
	cfg = DefaultConfig()
	(&FileConfig{}).Apply(cfg)
	if cfg.MinCoverageWarn != 0.75 || len(cfg.Formats) != 1 {
		t.Fatalf("empty config must not override defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".lookml-validator.yaml")
	content := "non_filterable_types:\n  - text\n  - single_*\nformats:\n  - json\n  - sarif\nmin_coverage_warn: 0.6\nconcurrency: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(fc.NonFilterableTypes) != 2 || len(fc.Formats) != 2 {
		t.Fatalf("unexpected config: %+v", fc)
	}
	if fc.MinCoverageWarn == nil || *fc.MinCoverageWarn != 0.6 {
		t.Fatalf("unexpected coverage target: %v", fc.MinCoverageWarn)
	}
	if fc.Concurrency == nil || *fc.Concurrency != 2 {
		t.Fatalf("unexpected concurrency: %v", fc.Concurrency)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("][ not yaml"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadFirstExistingFile(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(second, []byte("format: text\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	fc, loadedFrom, err := LoadFirstExistingFile([]string{
		filepath.Join(dir, "a.yaml"),
		second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc == nil || loadedFrom != second {
		t.Fatalf("expected second candidate to load, got %q", loadedFrom)
	}

	fc, loadedFrom, err = LoadFirstExistingFile([]string{filepath.Join(dir, "none.yaml")})
	if err != nil || fc != nil || loadedFrom != "" {
		t.Fatalf("expected clean miss, got %v %q %v", fc, loadedFrom, err)
	}

	if _, _, err := LoadFirstExistingFile([]string{dir}); err == nil {
		t.Fatal("expected error for directory path")
	}
}
