package models

import "time"

// Status classifies a filter's coverage ratio.
type Status string

const (
	StatusComplete Status = "complete" // ratio == 1.0
	StatusPartial  Status = "partial"  // 0 < ratio < 1.0
	StatusMissing  Status = "missing"  // ratio == 0
)

// StatusFor maps a coverage ratio to its status. The thresholds are
// closed: complete requires exactly 1.0 and missing requires exactly 0.
func StatusFor(ratio float64) Status {
	switch {
	case ratio == 1.0:
		return StatusComplete
	case ratio == 0:
		return StatusMissing
	default:
		return StatusPartial
	}
}

// FilterCoverage is the per-filter analysis result
type FilterCoverage struct {
	Name                string   `json:"name"`
	Title               string   `json:"title,omitempty"`
	Type                string   `json:"type,omitempty"`
	Field               string   `json:"field,omitempty"`
	LinkedTiles         []string `json:"linked_tiles"` // tile keys, dashboard declaration order
	LinkedTileCount     int      `json:"linked_tile_count"`
	FilterableTileCount int      `json:"filterable_tile_count"`
	CoverageRatio       float64  `json:"coverage_ratio"` // 0 when the denominator is 0
	Status              Status   `json:"status"`
	Baselined           bool     `json:"baselined,omitempty"` // suppressed by an accepted baseline
}

// Aggregates holds dashboard-wide statistics over coverage ratios.
// With zero declared filters the aggregates are undefined: NoFilters is
// set and the numeric fields are omitted rather than reported as 0.
type Aggregates struct {
	NoFilters bool     `json:"no_filters,omitempty"`
	Mean      *float64 `json:"mean,omitempty"`
	Median    *float64 `json:"median,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Complete  int      `json:"complete"`
	Partial   int      `json:"partial"`
	Missing   int      `json:"missing"`
}

// ExploreStat summarizes filter linkage per explore used by the
// dashboard's tiles. Display statistic only; it never feeds coverage.
type ExploreStat struct {
	Explore           string  `json:"explore"`
	TotalTiles        int     `json:"total_tiles"`
	TilesWithListen   int     `json:"tiles_with_listen"`
	TilesWithoutListen int     `json:"tiles_without_listen"`
	LinkedPercent     float64 `json:"linked_percent"`
}

// AnalysisReport is the immutable output of one dashboard analysis
type AnalysisReport struct {
	Dashboard           string           `json:"dashboard"`
	SourcePath          string           `json:"source_path,omitempty"`
	TotalFilters        int              `json:"total_filters"`
	TotalTiles          int              `json:"total_tiles"`
	FilterableTileCount int              `json:"filterable_tile_count"`
	Filters             []FilterCoverage `json:"filters"` // declaration order
	Aggregates          Aggregates       `json:"aggregates"`
	ExploreStats        []ExploreStat    `json:"explore_stats,omitempty"`
	Diagnostics         []Diagnostic     `json:"diagnostics,omitempty"`
}

// Findings returns the filters whose linkage needs attention (status
// missing or partial). Baselined entries are excluded. These feed
// baseline fingerprints and the fail-on-findings exit code.
func (r *AnalysisReport) Findings() []FilterCoverage {
	findings := make([]FilterCoverage, 0)
	for _, fc := range r.Filters {
		if fc.Status != StatusComplete && !fc.Baselined {
			findings = append(findings, fc)
		}
	}
	return findings
}

// Report is the complete CLI output structure covering a whole run
type Report struct {
	Tool       string           `json:"tool"`
	Version    string           `json:"version"`
	Timestamp  string           `json:"timestamp"`
	Metadata   Metadata         `json:"metadata"`
	Dashboards []AnalysisReport `json:"dashboards"`
	Failures   []InputFailure   `json:"failures,omitempty"`
}

// Metadata contains report generation info
type Metadata struct {
	GeneratedAt        time.Time `json:"generated_at"`
	DashboardsAnalyzed int       `json:"dashboards_analyzed"`
	DashboardsFailed   int       `json:"dashboards_failed"`
	AnalysisDuration   string    `json:"analysis_duration"`
	Version            string    `json:"version"`
	NonFilterableTypes []string  `json:"non_filterable_types"`
}

// InputFailure records a dashboard file that could not be analyzed.
// Structural parse errors abort only the file they occur in.
type InputFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
