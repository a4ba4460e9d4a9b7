package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFileYAML is the canonical config filename.
	DefaultConfigFileYAML = ".lookml-validator.yaml"
	// DefaultConfigFileYML is a compatible alternate config filename.
	DefaultConfigFileYML = ".lookml-validator.yml"
)

// FileConfig represents values loaded from a .lookml-validator.yaml file.
type FileConfig struct {
	NonFilterableTypes []string `yaml:"non_filterable_types"`
	Formats            []string `yaml:"formats"`
	Format             string   `yaml:"format"`
	OutputDir          string   `yaml:"output"`
	MinCoverageWarn    *float64 `yaml:"min_coverage_warn"`
	Concurrency        *int     `yaml:"concurrency"`
	Baseline           string   `yaml:"baseline"`
	FailOnFindings     *bool    `yaml:"fail_on_findings"`
	ServerPort         *int     `yaml:"server_port"`
	RateLimitRPS       *int     `yaml:"rate_limit_rps"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
}

// FormatList returns the configured output formats from either the
// plural or the singular field.
func (fc *FileConfig) FormatList() []string {
	if fc == nil {
		return nil
	}
	if len(fc.Formats) > 0 {
		return fc.Formats
	}
	if format := strings.TrimSpace(fc.Format); format != "" {
		return []string{format}
	}
	return nil
}

// Normalize trims and removes empty items from list fields.
func (fc *FileConfig) Normalize() {
	if fc == nil {
		return
	}
	fc.NonFilterableTypes = normalizeList(fc.NonFilterableTypes)
	fc.Formats = normalizeList(fc.Formats)
	fc.AllowedOrigins = normalizeList(fc.AllowedOrigins)
	fc.Format = strings.TrimSpace(fc.Format)
	fc.OutputDir = strings.TrimSpace(fc.OutputDir)
	fc.Baseline = strings.TrimSpace(fc.Baseline)
}

// Apply overlays file values onto a Config. Flag handling runs after
// this, so explicitly set flags still win.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc == nil || cfg == nil {
		return
	}
	if len(fc.NonFilterableTypes) > 0 {
		cfg.NonFilterableTypes = fc.NonFilterableTypes
	}
	if formats := fc.FormatList(); len(formats) > 0 {
		cfg.Formats = formats
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.MinCoverageWarn != nil {
		cfg.MinCoverageWarn = *fc.MinCoverageWarn
	}
	if fc.Concurrency != nil {
		cfg.Concurrency = *fc.Concurrency
	}
	if fc.Baseline != "" {
		cfg.BaselinePath = fc.Baseline
	}
	if fc.FailOnFindings != nil {
		cfg.FailOnFindings = *fc.FailOnFindings
	}
	if fc.ServerPort != nil {
		cfg.ServerPort = *fc.ServerPort
	}
	if fc.RateLimitRPS != nil {
		cfg.RateLimitRPS = *fc.RateLimitRPS
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
}

// AutoLoadFile discovers and loads the first available config file.
func AutoLoadFile() (*FileConfig, string, error) {
	candidates := []string{
		DefaultConfigFileYAML,
		DefaultConfigFileYML,
	}

	if homeDir, err := os.UserHomeDir(); err == nil && strings.TrimSpace(homeDir) != "" {
		candidates = append(candidates,
			filepath.Join(homeDir, DefaultConfigFileYAML),
			filepath.Join(homeDir, DefaultConfigFileYML),
		)
	}

	return LoadFirstExistingFile(candidates)
}

// LoadFirstExistingFile loads the first config file that exists in paths.
func LoadFirstExistingFile(paths []string) (*FileConfig, string, error) {
	for _, path := range paths {
		candidate := strings.TrimSpace(path)
		if candidate == "" {
			continue
		}

		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("failed to access config file %q: %w", candidate, err)
		}
		if info.IsDir() {
			return nil, "", fmt.Errorf("config path %q is a directory, expected a file", candidate)
		}

		cfg, err := LoadFile(candidate)
		if err != nil {
			return nil, "", err
		}
		return cfg, candidate, nil
	}

	return nil, "", nil
}

// LoadFile loads config values from a specific YAML file path.
func LoadFile(path string) (*FileConfig, error) {
	filename := strings.TrimSpace(path)
	if filename == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", filename, err)
	}

	cfg := &FileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", filename, err)
	}

	cfg.Normalize()
	return cfg, nil
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}

	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
