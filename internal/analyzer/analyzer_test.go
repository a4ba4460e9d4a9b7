package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/parser"
)

const sampleDashboard = `- dashboard: sales_overview
  title: Sales Overview
  filters:
  - name: date
    type: date_filter
  - name: region
    type: field_filter
  elements:
  - name: orders
    type: looker_grid
    listen:
      date: orders.created_date
      region: orders.region
  - name: revenue
    type: looker_line
    listen:
      date: orders.created_date
  - name: headline
    type: text
`

func TestAnalyzePipeline(t *testing.T) {
	result, err := Analyze([]byte(sampleDashboard), "sales.dashboard.lookml", Options{})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if result.Dashboard.Name != "sales_overview" {
		t.Fatalf("unexpected dashboard: %q", result.Dashboard.Name)
	}
	if len(result.Links) != 3 {
		t.Fatalf("expected 3 links, got %v", result.Links)
	}
	if result.Report.FilterableTileCount != 2 {
		t.Fatalf("expected 2 filterable tiles, got %d", result.Report.FilterableTileCount)
	}
	if result.Graph() == nil {
		t.Fatal("expected graph to be attached")
	}

	byName := map[string]models.Status{}
	for _, fc := range result.Report.Filters {
		byName[fc.Name] = fc.Status
	}
	if byName["date"] != models.StatusComplete || byName["region"] != models.StatusPartial {
		t.Fatalf("unexpected statuses: %v", byName)
	}
}

func TestAnalyzeIsPure(t *testing.T) {
	first, err := Analyze([]byte(sampleDashboard), "x.lookml", Options{})
	if err != nil {
		t.Fatalf("first analyze failed: %v", err)
	}
	second, err := Analyze([]byte(sampleDashboard), "x.lookml", Options{})
	if err != nil {
		t.Fatalf("second analyze failed: %v", err)
	}

	if !reflect.DeepEqual(first.Report, second.Report) {
		t.Fatal("expected identical reports for identical input")
	}
}

func TestAnalyzeMalformedInput(t *testing.T) {
	_, err := Analyze([]byte("][ not yaml"), "bad.lookml", Options{})
	var malformed *parser.MalformedDefinitionError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedDefinitionError, got %v", err)
	}
}

func TestAnalyzeCustomTypes(t *testing.T) {
	result, err := Analyze([]byte(sampleDashboard), "x.lookml", Options{
		NonFilterableTypes: []string{"looker_line", "text"},
	})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if result.Report.FilterableTileCount != 1 {
		t.Fatalf("expected 1 filterable tile, got %d", result.Report.FilterableTileCount)
	}
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.dashboard.lookml")
	if err := os.WriteFile(path, []byte(sampleDashboard), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	result, err := AnalyzeFile(path, Options{})
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}
	if result.Report.SourcePath != path {
		t.Fatalf("unexpected source path: %q", result.Report.SourcePath)
	}

	if _, err := AnalyzeFile(filepath.Join(dir, "missing.lookml"), Options{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBatchRunKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 0, 5)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		path := filepath.Join(dir, name+".dashboard.lookml")
		if err := os.WriteFile(path, []byte(sampleDashboard), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		paths = append(paths, path)
	}

	results := NewBatch(3, Options{}).Run(context.Background(), paths)
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, result := range results {
		if result.Path != paths[i] {
			t.Fatalf("result %d out of order: %q", i, result.Path)
		}
		if result.Err != nil {
			t.Fatalf("unexpected error for %q: %v", result.Path, result.Err)
		}
	}
}

func TestBatchRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.dashboard.lookml")
	bad := filepath.Join(dir, "bad.lookml")
	if err := os.WriteFile(good, []byte(sampleDashboard), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(bad, []byte("][ not yaml"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	results := NewBatch(2, Options{}).Run(context.Background(), []string{good, bad})

	if results[0].Err != nil || results[0].Result == nil {
		t.Fatalf("expected good file to succeed: %+v", results[0])
	}
	if results[1].Err == nil || results[1].Result != nil {
		t.Fatalf("expected bad file to fail: %+v", results[1])
	}
}

func TestBatchRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{"a.lookml", "b.lookml"}
	results := NewBatch(1, Options{}).Run(ctx, paths)

	// Workers may drain entries already queued, but a pre-cancelled
	// context must leave at least the later inputs unprocessed.
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Err == nil {
		t.Fatal("expected error for unprocessed input")
	}
}

func TestNewBatchClampsWorkers(t *testing.T) {
	b := NewBatch(0, Options{})
	if b.workers != 1 {
		t.Fatalf("expected workers clamped to 1, got %d", b.workers)
	}
}
