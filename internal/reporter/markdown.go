package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
	"github.com/nptlong93/lookml-filter-dashboard-validator/pkg/config"
)

// WriteMarkdown writes the report as a Markdown document to report.md.
func WriteMarkdown(report *models.Report, cfg *config.Config) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rendered := renderMarkdownReport(report)
	outputPath := filepath.Join(cfg.OutputDir, "report.md")
	if err := os.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write report.md: %w", err)
	}

	return nil
}

func renderMarkdownReport(report *models.Report) string {
	var b strings.Builder

	b.WriteString("# LookML Filter Coverage Report\n\n")

	generatedAt := strings.TrimSpace(report.Timestamp)
	if generatedAt == "" && !report.Metadata.GeneratedAt.IsZero() {
		generatedAt = report.Metadata.GeneratedAt.UTC().Format(time.RFC3339)
	}
	if generatedAt != "" {
		fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt)
	}

	fmt.Fprintf(&b, "Dashboards analyzed: %d", report.Metadata.DashboardsAnalyzed)
	if report.Metadata.DashboardsFailed > 0 {
		fmt.Fprintf(&b, " (%d failed)", report.Metadata.DashboardsFailed)
	}
	b.WriteString("\n\n")

	for i := range report.Dashboards {
		renderMarkdownDashboard(&b, &report.Dashboards[i])
	}

	if len(report.Failures) > 0 {
		b.WriteString("## Failed Inputs\n\n")
		for _, failure := range report.Failures {
			fmt.Fprintf(&b, "- `%s`: %s\n", failure.Path, failure.Error)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderMarkdownDashboard(b *strings.Builder, dashboard *models.AnalysisReport) {
	fmt.Fprintf(b, "## %s\n\n", dashboard.Dashboard)
	if dashboard.SourcePath != "" {
		fmt.Fprintf(b, "Source: `%s`\n\n", dashboard.SourcePath)
	}

	agg := dashboard.Aggregates
	if agg.NoFilters {
		b.WriteString("No filters declared; coverage is undefined.\n\n")
		return
	}

	fmt.Fprintf(b, "%d filters, %d tiles (%d filterable). ", dashboard.TotalFilters, dashboard.TotalTiles, dashboard.FilterableTileCount)
	fmt.Fprintf(b, "Mean coverage %s, status counts: %d complete / %d partial / %d missing.\n\n",
		formatRatio(agg.Mean), agg.Complete, agg.Partial, agg.Missing)

	b.WriteString("| Filter | Status | Coverage | Linked |\n")
	b.WriteString("|--------|--------|----------|--------|\n")
	for _, fc := range dashboard.Filters {
		status := markdownStatus(fc.Status)
		if fc.Baselined {
			status += " (baselined)"
		}
		fmt.Fprintf(b, "| %s | %s | %.1f%% | %d/%d |\n",
			markdownEscape(filterLabel(fc)),
			status,
			fc.CoverageRatio*100,
			fc.LinkedTileCount,
			fc.FilterableTileCount,
		)
	}
	b.WriteString("\n")

	if len(dashboard.ExploreStats) > 0 {
		b.WriteString("### Explores\n\n")
		b.WriteString("| Explore | Tiles | With listens | Linked |\n")
		b.WriteString("|---------|-------|--------------|--------|\n")
		for _, stat := range dashboard.ExploreStats {
			fmt.Fprintf(b, "| %s | %d | %d | %.1f%% |\n",
				markdownEscape(stat.Explore), stat.TotalTiles, stat.TilesWithListen, stat.LinkedPercent)
		}
		b.WriteString("\n")
	}

	if len(dashboard.Diagnostics) > 0 {
		b.WriteString("### Diagnostics\n\n")
		for _, diag := range dashboard.Diagnostics {
			fmt.Fprintf(b, "- %s\n", formatDiagnostic(diag))
		}
		b.WriteString("\n")
	}
}

func markdownStatus(status models.Status) string {
	switch status {
	case models.StatusComplete:
		return "✅ complete"
	case models.StatusPartial:
		return "🟡 partial"
	case models.StatusMissing:
		return "🔴 missing"
	default:
		return string(status)
	}
}

func markdownEscape(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
