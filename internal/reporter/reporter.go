// Package reporter renders analysis reports in the supported output
// formats: text, json, csv, markdown and sarif.
package reporter

import (
	"fmt"
	"strings"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
	"github.com/nptlong93/lookml-filter-dashboard-validator/pkg/config"
)

// Reporter generates report files for a completed run.
type Reporter interface {
	Generate(report *models.Report) error
}

type reporter struct {
	config *config.Config
}

// New creates a reporter that writes every format configured in
// cfg.Formats to cfg.OutputDir.
func New(cfg *config.Config) Reporter {
	return &reporter{
		config: cfg,
	}
}

func (r *reporter) Generate(report *models.Report) error {
	formats := r.config.Formats
	if len(formats) == 0 {
		formats = []string{"json"}
	}

	for _, format := range formats {
		if err := writeFormat(report, r.config, format); err != nil {
			return err
		}
	}

	return nil
}

func writeFormat(report *models.Report, cfg *config.Config, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return WriteJSON(report, cfg)
	case "text":
		return WriteText(report, cfg)
	case "csv":
		return WriteCSV(report, cfg)
	case "markdown", "md":
		return WriteMarkdown(report, cfg)
	case "sarif":
		return WriteSARIF(report, cfg)
	default:
		return fmt.Errorf("unsupported report format: %q", format)
	}
}
