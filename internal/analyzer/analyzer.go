// Package analyzer wires the parse → link → coverage pipeline together.
package analyzer

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/coverage"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/linker"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/parser"
)

// Options controls one analysis pass.
type Options struct {
	// NonFilterableTypes overrides the visualization types excluded
	// from coverage denominators. Nil means the linker defaults.
	NonFilterableTypes []string
	Verbose            bool
}

// Result bundles everything one analysis produces. The dashboard and
// graph ride along so renderers and exporters can draw nodes and edges
// without re-deriving them from the report.
type Result struct {
	Dashboard *models.Dashboard      `json:"dashboard"`
	Links     []models.Link          `json:"links"`
	Deps      []models.DependencyEdge `json:"dependencies,omitempty"`
	Report    *models.AnalysisReport `json:"report"`

	graph *linker.Graph
}

// Graph returns the built link graph backing this result.
func (r *Result) Graph() *linker.Graph {
	return r.graph
}

// Analyze runs the full pipeline over one dashboard definition. It
// either returns a complete result or fails with a single structural
// error (malformed input or duplicate filter names); everything else is
// represented inside the report as diagnostics. Pure function: analyzing
// the same source twice yields identical results, and independent calls
// share no state.
func Analyze(source []byte, path string, opts Options) (*Result, error) {
	dashboard, err := parser.Parse(source, path)
	if err != nil {
		return nil, err
	}

	graph := linker.Build(dashboard, linker.Options{
		NonFilterableTypes: opts.NonFilterableTypes,
	})

	report, err := coverage.Compute(dashboard, graph)
	if err != nil {
		// Builder contract violation; not reachable from user data.
		return nil, err
	}

	if opts.Verbose {
		slog.Debug("analyzed dashboard",
			slog.String("dashboard", dashboard.Name),
			slog.Int("filters", len(dashboard.Filters)),
			slog.Int("tiles", len(dashboard.Tiles)),
			slog.Int("links", len(graph.Links())),
			slog.Int("diagnostics", len(graph.Diagnostics())),
		)
	}

	return &Result{
		Dashboard: dashboard,
		Links:     graph.Links(),
		Deps:      graph.Dependencies(),
		Report:    report,
		graph:     graph,
	}, nil
}

// AnalyzeFile runs the pipeline over a dashboard definition on disk.
func AnalyzeFile(path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard file: %w", err)
	}
	return Analyze(data, path, opts)
}
