package config

import (
	"path"
	"strings"
)

// Normalize trims config patterns and removes empty values.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.NonFilterableTypes = normalizePatterns(c.NonFilterableTypes)
	c.Formats = normalizePatterns(c.Formats)
}

// IsTypeNonFilterable reports whether a visualization type matches the
// configured non-filterable patterns. Patterns are exact names or
// path.Match globs ("single_*"); invalid globs fall back to exact match.
func (c *Config) IsTypeNonFilterable(vizType string) bool {
	if c == nil || len(c.NonFilterableTypes) == 0 {
		return false
	}

	value := normalizePattern(vizType)
	if value == "" {
		return false
	}

	for _, pattern := range c.NonFilterableTypes {
		if patternMatches(pattern, value) {
			return true
		}
	}

	return false
}

func normalizePatterns(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}

	normalized := make([]string, 0, len(values))
	for _, pattern := range values {
		p := normalizePattern(pattern)
		if p == "" {
			continue
		}
		normalized = append(normalized, p)
	}
	return normalized
}

func normalizePattern(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func patternMatches(pattern, value string) bool {
	normalizedPattern := normalizePattern(pattern)
	normalizedValue := normalizePattern(value)
	if normalizedPattern == "" || normalizedValue == "" {
		return false
	}

	// Invalid glob patterns are treated as exact matches.
	matched, err := path.Match(normalizedPattern, normalizedValue)
	if err == nil {
		return matched
	}
	return normalizedPattern == normalizedValue
}
