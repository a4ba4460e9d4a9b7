package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
	"github.com/nptlong93/lookml-filter-dashboard-validator/pkg/config"
)

const (
	textANSIReset = "\x1b[0m"
	textANSIBold  = "\x1b[1m"
)

// WriteText writes a human-readable text report to report.txt and stdout.
func WriteText(report *models.Report, cfg *config.Config) error {
	return writeText(report, cfg, os.Stdout)
}

func writeText(report *models.Report, cfg *config.Config, out io.Writer) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if out == nil {
		return fmt.Errorf("writer is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rendered := renderTextReport(report, cfg, supportsANSI(out))
	outputPath := filepath.Join(cfg.OutputDir, "report.txt")

	if err := os.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write report.txt: %w", err)
	}

	if _, err := io.WriteString(out, rendered); err != nil {
		return fmt.Errorf("failed to write text report to output: %w", err)
	}

	return nil
}

func renderTextReport(report *models.Report, cfg *config.Config, useANSI bool) string {
	var b strings.Builder

	generatedAt := strings.TrimSpace(report.Timestamp)
	if generatedAt == "" {
		if !report.Metadata.GeneratedAt.IsZero() {
			generatedAt = report.Metadata.GeneratedAt.UTC().Format(time.RFC3339)
		} else {
			generatedAt = "unknown"
		}
	}

	writeTextSectionHeader(&b, "LookML Filter Coverage Report", useANSI)
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt)
	fmt.Fprintf(&b, "Dashboards analyzed: %d\n", report.Metadata.DashboardsAnalyzed)
	if report.Metadata.DashboardsFailed > 0 {
		fmt.Fprintf(&b, "Dashboards failed: %d\n", report.Metadata.DashboardsFailed)
	}
	if len(report.Metadata.NonFilterableTypes) > 0 {
		fmt.Fprintf(&b, "Non-filterable types: %s\n", strings.Join(report.Metadata.NonFilterableTypes, ", "))
	}
	b.WriteString("\n")

	for i := range report.Dashboards {
		renderDashboardSection(&b, &report.Dashboards[i], cfg, useANSI)
	}

	if len(report.Failures) > 0 {
		writeTextSectionHeader(&b, "Failed Inputs", useANSI)
		for _, failure := range report.Failures {
			fmt.Fprintf(&b, "- %s: %s\n", failure.Path, failure.Error)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderDashboardSection(b *strings.Builder, dashboard *models.AnalysisReport, cfg *config.Config, useANSI bool) {
	writeTextSectionHeader(b, "Dashboard: "+dashboard.Dashboard, useANSI)
	if dashboard.SourcePath != "" {
		fmt.Fprintf(b, "Source: %s\n", dashboard.SourcePath)
	}
	fmt.Fprintf(b, "Filters: %d\n", dashboard.TotalFilters)
	fmt.Fprintf(b, "Tiles: %d (%d filterable)\n", dashboard.TotalTiles, dashboard.FilterableTileCount)

	agg := dashboard.Aggregates
	if agg.NoFilters {
		b.WriteString("No filters declared; coverage is undefined.\n\n")
	} else {
		fmt.Fprintf(b, "Coverage: mean=%s median=%s min=%s max=%s\n",
			formatRatio(agg.Mean), formatRatio(agg.Median), formatRatio(agg.Min), formatRatio(agg.Max))
		fmt.Fprintf(b, "Status counts: complete=%d partial=%d missing=%d\n\n", agg.Complete, agg.Partial, agg.Missing)

		b.WriteString("FILTER                                   STATUS    COVERAGE  LINKED\n")
		b.WriteString("-------------------------------------------------------------------\n")
		for _, fc := range dashboard.Filters {
			status := string(fc.Status)
			if fc.Baselined {
				status += "*"
			}
			fmt.Fprintf(b, "%-40s %-9s %7.1f%%  %d/%d\n",
				truncateTextValue(filterLabel(fc), 40),
				status,
				fc.CoverageRatio*100,
				fc.LinkedTileCount,
				fc.FilterableTileCount,
			)
		}
		b.WriteString("\n")

		renderFilterDetails(b, dashboard, cfg, useANSI)
	}

	if len(dashboard.ExploreStats) > 0 {
		writeTextSectionHeader(b, "Explore Statistics", useANSI)
		for _, stat := range dashboard.ExploreStats {
			fmt.Fprintf(b, "- %s: %d tiles, %d with listens (%.1f%%)\n",
				stat.Explore, stat.TotalTiles, stat.TilesWithListen, stat.LinkedPercent)
		}
		b.WriteString("\n")
	}

	if len(dashboard.Diagnostics) > 0 {
		writeTextSectionHeader(b, "Diagnostics", useANSI)
		for _, diag := range dashboard.Diagnostics {
			fmt.Fprintf(b, "- %s\n", formatDiagnostic(diag))
		}
		b.WriteString("\n")
	}
}

func renderFilterDetails(b *strings.Builder, dashboard *models.AnalysisReport, cfg *config.Config, useANSI bool) {
	findings := dashboard.Findings()
	if len(findings) == 0 {
		return
	}

	writeTextSectionHeader(b, "Details", useANSI)
	for _, fc := range findings {
		fmt.Fprintf(b, "%s | status=%s | coverage=%.1f%%\n", filterLabel(fc), fc.Status, fc.CoverageRatio*100)

		if len(fc.LinkedTiles) == 0 {
			b.WriteString("  linked tiles: none\n")
		} else {
			b.WriteString("  linked tiles:\n")
			for _, tile := range fc.LinkedTiles {
				fmt.Fprintf(b, "    - %s\n", tile)
			}
		}

		if cfg != nil && fc.CoverageRatio < cfg.MinCoverageWarn {
			fmt.Fprintf(b, "  recommendation: link this filter to more tiles (below %.0f%% target)\n",
				cfg.MinCoverageWarn*100)
		}
		b.WriteString("\n")
	}
}

func writeTextSectionHeader(b *strings.Builder, title string, useANSI bool) {
	header := title
	if useANSI {
		header = textANSIBold + title + textANSIReset
	}
	fmt.Fprintf(b, "%s\n", header)
	fmt.Fprintf(b, "%s\n", strings.Repeat("-", len(title)))
}

func supportsANSI(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}

	info, err := file.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

func filterLabel(fc models.FilterCoverage) string {
	if fc.Title != "" && fc.Title != fc.Name {
		return fmt.Sprintf("%s (%s)", fc.Name, fc.Title)
	}
	return fc.Name
}

func formatDiagnostic(diag models.Diagnostic) string {
	switch diag.Kind {
	case models.DiagUnresolvedListen:
		return fmt.Sprintf("tile %q listens to undeclared filter %q", diag.Tile, diag.Filter)
	case models.DiagDuplicateLink:
		return fmt.Sprintf("tile %q declares filter %q more than once", diag.Tile, diag.Filter)
	case models.DiagUnresolvedDependency:
		return fmt.Sprintf("filter dependency references undeclared filter %q", diag.Filter)
	default:
		detail := diag.Detail
		if detail == "" {
			detail = diag.Filter
		}
		return fmt.Sprintf("%s: %s", diag.Kind, detail)
	}
}

func formatRatio(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *value*100)
}

func truncateTextValue(value string, width int) string {
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}
