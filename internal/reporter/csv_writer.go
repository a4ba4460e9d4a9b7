package reporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
	"github.com/nptlong93/lookml-filter-dashboard-validator/pkg/config"
)

var csvHeader = []string{
	"dashboard",
	"filter",
	"title",
	"type",
	"field",
	"status",
	"coverage_ratio",
	"linked_tiles",
	"filterable_tiles",
	"baselined",
}

// WriteCSV writes one row per filter to report.csv. Dashboards with no
// filters contribute no rows.
func WriteCSV(report *models.Report, cfg *config.Config) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(cfg.OutputDir, "report.csv")
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report.csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range report.Dashboards {
		dashboard := &report.Dashboards[i]
		for _, fc := range dashboard.Filters {
			record := []string{
				dashboard.Dashboard,
				fc.Name,
				fc.Title,
				fc.Type,
				fc.Field,
				string(fc.Status),
				strconv.FormatFloat(fc.CoverageRatio, 'f', 4, 64),
				strconv.Itoa(fc.LinkedTileCount),
				strconv.Itoa(fc.FilterableTileCount),
				strconv.FormatBool(fc.Baselined),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write csv record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush report.csv: %w", err)
	}

	return nil
}
