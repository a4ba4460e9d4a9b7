package reporter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
	"github.com/nptlong93/lookml-filter-dashboard-validator/pkg/config"
)

const (
	ruleMissingLink      = "lookml-validator/MISSING_FILTER_LINK"
	rulePartialLink      = "lookml-validator/PARTIAL_FILTER_LINK"
	ruleUnresolvedListen = "lookml-validator/UNRESOLVED_LISTEN"

	ruleIndexMissingLink      = 0
	ruleIndexPartialLink      = 1
	ruleIndexUnresolvedListen = 2

	sarifFallbackLocationURI = "README.md"
	sarifSchemaURI           = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/cs01/schemas/sarif-schema-2.1.0.json"
)

var semanticVersionPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool               `json:"tool"`
	Results           []sarifResult           `json:"results"`
	AutomationDetails *sarifAutomationDetails `json:"automationDetails,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifAutomationDetails struct {
	ID string `json:"id"`
}

type sarifDriver struct {
	Name            string       `json:"name"`
	Version         string       `json:"version,omitempty"`
	InformationURI  string       `json:"informationUri,omitempty"`
	ShortDesc       sarifMessage `json:"shortDescription"`
	FullDesc        sarifMessage `json:"fullDescription"`
	Rules           []sarifRule  `json:"rules"`
	SemanticVersion string       `json:"semanticVersion,omitempty"`
}

type sarifRule struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ShortDesc     sarifMessage `json:"shortDescription"`
	FullDesc      sarifMessage `json:"fullDescription"`
	DefaultConfig sarifConfig  `json:"defaultConfiguration"`
}

type sarifConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           *int              `json:"ruleIndex,omitempty"`
	Level               string            `json:"level,omitempty"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          map[string]any    `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation  `json:"physicalLocation,omitempty"`
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

type sarifLogicalLocation struct {
	Name               string `json:"name,omitempty"`
	FullyQualifiedName string `json:"fullyQualifiedName,omitempty"`
	Kind               string `json:"kind,omitempty"`
}

// WriteSARIF writes SARIF 2.1.0 output to report.sarif.
func WriteSARIF(report *models.Report, cfg *config.Config) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	reportVersion := report.Version
	if reportVersion == "" {
		reportVersion = report.Metadata.Version
	}

	output := sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchemaURI,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:            "lookml-validator",
						Version:         reportVersion,
						SemanticVersion: normalizeSemanticVersion(reportVersion),
						InformationURI:  "https://github.com/nptlong93/lookml-filter-dashboard-validator",
						ShortDesc: sarifMessage{
							Text: "LookML dashboard filter coverage analyzer",
						},
						FullDesc: sarifMessage{
							Text: "Detects dashboard filters with missing or partial tile linkage and listen entries naming undeclared filters.",
						},
						Rules: []sarifRule{
							{
								ID:        ruleMissingLink,
								Name:      "MISSING_FILTER_LINK",
								ShortDesc: sarifMessage{Text: "Filter is linked to no tiles"},
								FullDesc:  sarifMessage{Text: "The dashboard filter has no listening tiles among the filterable visualizations and has no effect."},
								DefaultConfig: sarifConfig{
									Level: "warning",
								},
							},
							{
								ID:        rulePartialLink,
								Name:      "PARTIAL_FILTER_LINK",
								ShortDesc: sarifMessage{Text: "Filter is linked to some tiles only"},
								FullDesc:  sarifMessage{Text: "The dashboard filter is listened to by some but not all filterable tiles, which can produce inconsistent views."},
								DefaultConfig: sarifConfig{
									Level: "note",
								},
							},
							{
								ID:        ruleUnresolvedListen,
								Name:      "UNRESOLVED_LISTEN",
								ShortDesc: sarifMessage{Text: "Tile listens to an undeclared filter"},
								FullDesc:  sarifMessage{Text: "A tile's listen block names a filter that is not declared on the dashboard; the entry is dead configuration."},
								DefaultConfig: sarifConfig{
									Level: "note",
								},
							},
						},
					},
				},
				Results: buildSARIFResults(report),
				AutomationDetails: &sarifAutomationDetails{
					ID: "lookml-validator/analyze",
				},
			},
		},
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal SARIF: %w", err)
	}

	outputPath := filepath.Join(cfg.OutputDir, "report.sarif")
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report.sarif: %w", err)
	}

	return nil
}

func buildSARIFResults(report *models.Report) []sarifResult {
	results := make([]sarifResult, 0)
	if report == nil {
		return results
	}

	for i := range report.Dashboards {
		dashboard := &report.Dashboards[i]

		for _, fc := range dashboard.Findings() {
			results = append(results, coverageResult(dashboard, fc))
		}

		for _, diag := range dashboard.Diagnostics {
			if diag.Kind != models.DiagUnresolvedListen {
				continue
			}
			fingerprint := hashFinding("diagnostic", diag.Kind, dashboard.Dashboard, diag.Tile, diag.Filter)
			results = append(results, sarifResult{
				RuleID:    ruleUnresolvedListen,
				RuleIndex: ruleIndexPtr(ruleIndexUnresolvedListen),
				Level:     "note",
				Message: sarifMessage{Text: fmt.Sprintf(
					"Tile %q on dashboard %q listens to undeclared filter %q.",
					diag.Tile, dashboard.Dashboard, diag.Filter,
				)},
				Locations: dashboardLocation(dashboard, diag.Filter),
				PartialFingerprints: map[string]string{
					"lookml-validator/findingHash": fingerprint,
				},
				Properties: map[string]any{
					"category":  "unresolved_listen",
					"dashboard": dashboard.Dashboard,
					"tile":      diag.Tile,
					"filter":    diag.Filter,
				},
			})
		}
	}

	return results
}

func coverageResult(dashboard *models.AnalysisReport, fc models.FilterCoverage) sarifResult {
	ruleID := rulePartialLink
	ruleIndex := ruleIndexPartialLink
	level := "note"
	message := fmt.Sprintf(
		"Filter %q on dashboard %q is linked to %d of %d filterable tiles (%.1f%%).",
		fc.Name, dashboard.Dashboard, fc.LinkedTileCount, fc.FilterableTileCount, fc.CoverageRatio*100,
	)

	if fc.Status == models.StatusMissing {
		ruleID = ruleMissingLink
		ruleIndex = ruleIndexMissingLink
		level = "warning"
		message = fmt.Sprintf(
			"Filter %q on dashboard %q is linked to no tiles and has no effect.",
			fc.Name, dashboard.Dashboard,
		)
	}

	fingerprint := hashFinding("coverage", dashboard.Dashboard, fc.Name, string(fc.Status))

	return sarifResult{
		RuleID:    ruleID,
		RuleIndex: ruleIndexPtr(ruleIndex),
		Level:     level,
		Message:   sarifMessage{Text: message},
		Locations: dashboardLocation(dashboard, fc.Name),
		PartialFingerprints: map[string]string{
			"lookml-validator/findingHash": fingerprint,
		},
		Properties: map[string]any{
			"category":         string(fc.Status),
			"dashboard":        dashboard.Dashboard,
			"filter":           fc.Name,
			"coverage_ratio":   fc.CoverageRatio,
			"linked_tiles":     fc.LinkedTileCount,
			"filterable_tiles": fc.FilterableTileCount,
		},
	}
}

func dashboardLocation(dashboard *models.AnalysisReport, filterName string) []sarifLocation {
	uri := strings.TrimSpace(dashboard.SourcePath)
	if uri == "" {
		uri = sarifFallbackLocationURI
	}
	uri = filepath.ToSlash(uri)

	name := strings.TrimSpace(filterName)
	if name == "" {
		name = dashboard.Dashboard
	}

	return []sarifLocation{
		{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: uri},
				Region: &sarifRegion{
					StartLine: 1,
				},
			},
			LogicalLocations: []sarifLogicalLocation{
				{
					Name:               name,
					FullyQualifiedName: dashboard.Dashboard + "/" + name,
					Kind:               "filter",
				},
			},
		},
	}
}

func normalizeSemanticVersion(version string) string {
	normalized := strings.TrimSpace(strings.TrimPrefix(version, "v"))
	if semanticVersionPattern.MatchString(normalized) {
		return normalized
	}
	return ""
}

func hashFinding(parts ...string) string {
	canonical := strings.Join(parts, "\x1f")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func ruleIndexPtr(index int) *int {
	value := index
	return &value
}
