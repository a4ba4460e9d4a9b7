package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/analyzer"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/baseline"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/reporter"
	"github.com/nptlong93/lookml-filter-dashboard-validator/pkg/config"
)

var supportedFormats = map[string]bool{
	"json":     true,
	"text":     true,
	"csv":      true,
	"markdown": true,
	"md":       true,
	"sarif":    true,
}

// dashboardSuffixes are matched when expanding directory arguments.
var dashboardSuffixes = []string{".dashboard.lookml", ".lookml", ".yaml", ".yml"}

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	var configPath string
	var typesCSV string
	var formatsCSV string

	cmd := &cobra.Command{
		Use:   "analyze <path>...",
		Short: "Analyze dashboard filter coverage and generate report",
		Long: `Analyze LookML dashboard definitions to determine which filters are
linked to tiles, compute per-filter coverage, and write a report.

Paths may be dashboard files or directories; directories are searched
recursively for dashboard definitions.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, loadedFrom, err := loadFileConfig(configPath)
			if err != nil {
				return err
			}
			if fileCfg != nil {
				applyFileConfig(cmd, fileCfg, cfg)
				if cfg.Verbose {
					cmd.PrintErrf("Loaded config from %s\n", loadedFrom)
				}
			}

			if typesCSV != "" {
				cfg.NonFilterableTypes = splitCSV(typesCSV)
			}
			if formatsCSV != "" {
				cfg.Formats = splitCSV(formatsCSV)
			}
			cfg.Normalize()

			for _, format := range cfg.Formats {
				if !supportedFormats[format] {
					return fmt.Errorf("invalid --format value: %q", format)
				}
			}
			if cfg.MinCoverageWarn < 0 || cfg.MinCoverageWarn > 1 {
				return fmt.Errorf("invalid --min-coverage-warn value: must be between 0 and 1")
			}
			if cfg.Concurrency < 1 {
				return fmt.Errorf("invalid --concurrency value: must be at least 1")
			}
			if cfg.UpdateBaseline && cfg.BaselinePath == "" {
				cfg.BaselinePath = baseline.DefaultPath
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cfg, args)
		},
	}

	// Analysis flags
	cmd.Flags().StringVar(&typesCSV, "non-filterable-types", "", "Comma-separated visualization types excluded from coverage (globs allowed)")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Worker pool size for batch analysis")

	// Output flags
	cmd.Flags().StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Output directory")
	cmd.Flags().StringVar(&formatsCSV, "formats", "", "Comma-separated output formats (json, text, csv, markdown, sarif)")
	cmd.Flags().Float64Var(&cfg.MinCoverageWarn, "min-coverage-warn", cfg.MinCoverageWarn, "Coverage ratio below which a recommendation is emitted")

	// Baseline flags
	cmd.Flags().StringVar(&cfg.BaselinePath, "baseline", "", "Baseline file for suppressing known findings")
	cmd.Flags().BoolVar(&cfg.UpdateBaseline, "update-baseline", false, "Write current findings to the baseline file")
	cmd.Flags().BoolVar(&cfg.FailOnFindings, "fail-on-findings", false, "Exit non-zero when unsuppressed findings remain")

	// Operational flags
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: auto-discover .lookml-validator.yaml)")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "Verbose logging")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Dry run mode (don't write output)")

	return cmd
}

// runAnalyze executes the analysis workflow
func runAnalyze(ctx context.Context, cfg *config.Config, args []string) error {
	startTime := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}

	paths, err := collectDashboardFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no dashboard files found under %s", strings.Join(args, ", "))
	}

	fmt.Printf("Analyzing %d dashboard file(s)...\n", len(paths))
	batch := analyzer.NewBatch(cfg.Concurrency, analyzer.Options{
		NonFilterableTypes: cfg.NonFilterableTypes,
		Verbose:            cfg.Verbose,
	})
	results := batch.Run(ctx, paths)

	report := buildReport(cfg, results, startTime)
	fmt.Printf("Analyzed %d dashboard(s), %d failed\n",
		report.Metadata.DashboardsAnalyzed, report.Metadata.DashboardsFailed)

	suppressed := 0
	findings := baseline.CountFindings(report)
	if cfg.BaselinePath != "" && !cfg.UpdateBaseline {
		known, err := baseline.Load(cfg.BaselinePath)
		if err != nil {
			return err
		}
		suppressed, findings = baseline.SuppressKnown(report, known)
		if suppressed > 0 {
			fmt.Printf("Suppressed %d baselined finding(s)\n", suppressed)
		}
	}

	if cfg.UpdateBaseline {
		set := baseline.Set{}
		baseline.AddAll(set, baseline.CollectFingerprints(report))
		if err := baseline.Save(cfg.BaselinePath, set); err != nil {
			return err
		}
		fmt.Printf("Baseline written to %s (%d fingerprints)\n", cfg.BaselinePath, len(set))
	}

	if !cfg.DryRun {
		if err := reporter.New(cfg).Generate(report); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		fmt.Printf("Report written to: %s\n", cfg.OutputDir)
	} else {
		fmt.Println("Dry run mode - skipping output")
	}

	duration := time.Since(startTime)
	fmt.Printf("Analysis complete in %s (%d finding(s))\n", duration.Round(time.Millisecond), findings)

	if len(report.Failures) > 0 && report.Metadata.DashboardsAnalyzed == 0 {
		// Every input failed; surface the first error for the exit code.
		return fmt.Errorf("all inputs failed: %s", report.Failures[0].Error)
	}

	if cfg.FailOnFindings && findings > 0 {
		return &FindingsError{Count: findings}
	}

	return nil
}

// buildReport assembles the run-level report from batch results.
func buildReport(cfg *config.Config, results []analyzer.BatchResult, startTime time.Time) *models.Report {
	now := time.Now()

	dashboards := make([]models.AnalysisReport, 0, len(results))
	failures := make([]models.InputFailure, 0)
	for _, result := range results {
		if result.Err != nil {
			failures = append(failures, models.InputFailure{
				Path:  result.Path,
				Error: result.Err.Error(),
			})
			continue
		}
		dashboards = append(dashboards, *result.Result.Report)
	}

	return &models.Report{
		Tool:      "lookml-validator",
		Version:   version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Metadata: models.Metadata{
			GeneratedAt:        now,
			DashboardsAnalyzed: len(dashboards),
			DashboardsFailed:   len(failures),
			AnalysisDuration:   time.Since(startTime).Round(time.Millisecond).String(),
			Version:            version,
			NonFilterableTypes: cfg.NonFilterableTypes,
		},
		Dashboards: dashboards,
		Failures:   failures,
	}
}

// collectDashboardFiles expands file and directory arguments into a
// sorted, de-duplicated list of dashboard definition paths.
func collectDashboardFiles(args []string) ([]string, error) {
	seen := map[string]struct{}{}
	paths := make([]string, 0, len(args))

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %q: %w", arg, err)
		}

		if !info.IsDir() {
			add(arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			if isDashboardFile(entry.Name()) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %q: %w", arg, err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isDashboardFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range dashboardSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func loadFileConfig(configPath string) (*config.FileConfig, string, error) {
	if configPath != "" {
		fileCfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, "", err
		}
		return fileCfg, configPath, nil
	}
	return config.AutoLoadFile()
}

// applyFileConfig overlays config-file values, skipping anything the
// user set explicitly on the command line.
func applyFileConfig(cmd *cobra.Command, fileCfg *config.FileConfig, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("non-filterable-types") {
		fileCfg.NonFilterableTypes = nil
	}
	if flags.Changed("formats") {
		fileCfg.Formats = nil
		fileCfg.Format = ""
	}
	if flags.Changed("output") {
		fileCfg.OutputDir = ""
	}
	if flags.Changed("min-coverage-warn") {
		fileCfg.MinCoverageWarn = nil
	}
	if flags.Changed("concurrency") {
		fileCfg.Concurrency = nil
	}
	if flags.Changed("baseline") {
		fileCfg.Baseline = ""
	}
	if flags.Changed("fail-on-findings") {
		fileCfg.FailOnFindings = nil
	}

	fileCfg.Apply(cfg)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
