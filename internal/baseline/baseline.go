// Package baseline persists accepted coverage findings so reruns only
// surface regressions.
package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
)

const (
	// DefaultPath is used when --update-baseline is enabled without an explicit --baseline path.
	DefaultPath = ".lookml-validator-baseline.json"
	fileVersion = 1
)

// Set stores baseline fingerprints.
type Set map[string]struct{}

// File is the persisted baseline JSON payload.
type File struct {
	Version      int      `json:"version"`
	Fingerprints []string `json:"fingerprints"`
}

// Load reads a baseline file. Missing files return an empty set.
func Load(path string) (Set, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("baseline path is empty")
	}

	data, err := os.ReadFile(trimmed)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("read baseline file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse baseline file: %w", err)
	}
	if file.Version != 0 && file.Version != fileVersion {
		return nil, fmt.Errorf("unsupported baseline version: %d", file.Version)
	}

	set := Set{}
	for _, fingerprint := range file.Fingerprints {
		if fingerprint == "" {
			continue
		}
		set[fingerprint] = struct{}{}
	}

	return set, nil
}

// Save writes a baseline file with sorted, unique fingerprints.
func Save(path string, set Set) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return errors.New("baseline path is empty")
	}

	dir := filepath.Dir(trimmed)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create baseline directory: %w", err)
		}
	}

	payload := File{
		Version:      fileVersion,
		Fingerprints: Sorted(set),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal baseline file: %w", err)
	}

	if err := os.WriteFile(trimmed, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write baseline file: %w", err)
	}

	return nil
}

// AddAll inserts fingerprints into the target set.
func AddAll(target Set, fingerprints []string) {
	for _, fingerprint := range fingerprints {
		if fingerprint == "" {
			continue
		}
		target[fingerprint] = struct{}{}
	}
}

// Sorted returns sorted fingerprints from a set.
func Sorted(set Set) []string {
	fingerprints := make([]string, 0, len(set))
	for fingerprint := range set {
		fingerprints = append(fingerprints, fingerprint)
	}
	sort.Strings(fingerprints)
	return fingerprints
}

// CountFindings returns the number of report items treated as findings:
// filters with incomplete linkage plus unresolved listen diagnostics.
func CountFindings(report *models.Report) int {
	if report == nil {
		return 0
	}

	count := 0
	for i := range report.Dashboards {
		count += len(report.Dashboards[i].Findings())
		for _, diag := range report.Dashboards[i].Diagnostics {
			if diag.Kind == models.DiagUnresolvedListen {
				count++
			}
		}
	}
	return count
}

// CollectFingerprints extracts fingerprints for all current findings in the report.
func CollectFingerprints(report *models.Report) []string {
	set := Set{}
	if report == nil {
		return []string{}
	}

	for i := range report.Dashboards {
		dashboard := &report.Dashboards[i]
		for _, fc := range dashboard.Findings() {
			set[FingerprintCoverage(dashboard.Dashboard, fc)] = struct{}{}
		}
		for _, diag := range dashboard.Diagnostics {
			if diag.Kind == models.DiagUnresolvedListen {
				set[FingerprintDiagnostic(dashboard.Dashboard, diag)] = struct{}{}
			}
		}
	}

	return Sorted(set)
}

// SuppressKnown marks filter findings already present in the baseline
// set and drops known unresolved listen diagnostics. Coverage rows stay
// in the report so ratios and aggregates are unchanged; only the
// finding count moves.
func SuppressKnown(report *models.Report, known Set) (suppressed int, remaining int) {
	if report == nil || len(known) == 0 {
		return 0, CountFindings(report)
	}

	for i := range report.Dashboards {
		dashboard := &report.Dashboards[i]

		for j := range dashboard.Filters {
			fc := &dashboard.Filters[j]
			if fc.Status == models.StatusComplete || fc.Baselined {
				continue
			}
			fingerprint := FingerprintCoverage(dashboard.Dashboard, *fc)
			if _, exists := known[fingerprint]; exists {
				fc.Baselined = true
				suppressed++
			}
		}

		dashboard.Diagnostics, suppressed = filterDiagnostics(
			dashboard.Dashboard,
			dashboard.Diagnostics,
			known,
			suppressed,
		)
	}

	return suppressed, CountFindings(report)
}

// FingerprintCoverage returns a stable fingerprint for an incomplete
// filter linkage. Status is part of the identity: a filter moving from
// partial to missing is a new finding.
func FingerprintCoverage(dashboard string, fc models.FilterCoverage) string {
	return hash("coverage", dashboard, fc.Name, string(fc.Status))
}

// FingerprintDiagnostic returns a stable fingerprint for a link graph diagnostic.
func FingerprintDiagnostic(dashboard string, diag models.Diagnostic) string {
	return hash("diagnostic", dashboard, diag.Kind, diag.Tile, diag.Filter)
}

func filterDiagnostics(
	dashboard string,
	diagnostics []models.Diagnostic,
	known Set,
	suppressed int,
) ([]models.Diagnostic, int) {
	filtered := make([]models.Diagnostic, 0, len(diagnostics))
	for _, diag := range diagnostics {
		if diag.Kind == models.DiagUnresolvedListen {
			fingerprint := FingerprintDiagnostic(dashboard, diag)
			if _, exists := known[fingerprint]; exists {
				suppressed++
				continue
			}
		}
		filtered = append(filtered, diag)
	}
	return filtered, suppressed
}

func hash(parts ...string) string {
	canonical := strings.Join(parts, "\x1f")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
