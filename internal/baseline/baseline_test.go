package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		Dashboards: []models.AnalysisReport{
			{
				Dashboard: "sales_overview",
				Filters: []models.FilterCoverage{
					{Name: "date", Status: models.StatusComplete, CoverageRatio: 1.0},
					{Name: "region", Status: models.StatusPartial, CoverageRatio: 0.5},
					{Name: "channel", Status: models.StatusMissing, CoverageRatio: 0},
				},
				Diagnostics: []models.Diagnostic{
					{Kind: models.DiagUnresolvedListen, Tile: "orders", Filter: "ghost"},
				},
			},
		},
	}
}

func TestLoadMissingFileReturnsEmptySet(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %d entries", len(set))
	}
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	if _, err := Load("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "baseline.json")

	set := Set{}
	AddAll(set, []string{"bbb", "aaa", "", "aaa"})

	if err := Save(path, set); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 fingerprints, got %d", len(loaded))
	}

	sorted := Sorted(loaded)
	if sorted[0] != "aaa" || sorted[1] != "bbb" {
		t.Fatalf("unexpected fingerprints: %v", sorted)
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := os.WriteFile(path, []byte(`{"version":99,"fingerprints":[]}`), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestCountFindings(t *testing.T) {
	if got := CountFindings(nil); got != 0 {
		t.Fatalf("expected 0 for nil report, got %d", got)
	}

	// Two incomplete filters plus one unresolved listen.
	if got := CountFindings(sampleReport()); got != 3 {
		t.Fatalf("expected 3 findings, got %d", got)
	}
}

func TestCollectFingerprintsIsStable(t *testing.T) {
	first := CollectFingerprints(sampleReport())
	second := CollectFingerprints(sampleReport())

	if len(first) != 3 {
		t.Fatalf("expected 3 fingerprints, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("fingerprints not stable at index %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestFingerprintCoverageIncludesStatus(t *testing.T) {
	partial := FingerprintCoverage("dash", models.FilterCoverage{Name: "region", Status: models.StatusPartial})
	missing := FingerprintCoverage("dash", models.FilterCoverage{Name: "region", Status: models.StatusMissing})
	if partial == missing {
		t.Fatalf("expected distinct fingerprints for different statuses")
	}
}

func TestSuppressKnown(t *testing.T) {
	report := sampleReport()
	known := Set{}
	AddAll(known, CollectFingerprints(sampleReport()))

	suppressed, remaining := SuppressKnown(report, known)
	if suppressed != 3 {
		t.Fatalf("expected 3 suppressed, got %d", suppressed)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", remaining)
	}

	// Coverage rows stay in place so aggregates are untouched.
	dashboard := report.Dashboards[0]
	if len(dashboard.Filters) != 3 {
		t.Fatalf("expected filter rows preserved, got %d", len(dashboard.Filters))
	}
	if !dashboard.Filters[1].Baselined || !dashboard.Filters[2].Baselined {
		t.Fatalf("expected incomplete filters marked baselined")
	}
	if dashboard.Filters[0].Baselined {
		t.Fatalf("complete filter must not be marked baselined")
	}
	if len(dashboard.Diagnostics) != 0 {
		t.Fatalf("expected known diagnostics removed, got %d", len(dashboard.Diagnostics))
	}
}

func TestSuppressKnownWithEmptySet(t *testing.T) {
	report := sampleReport()
	suppressed, remaining := SuppressKnown(report, Set{})
	if suppressed != 0 {
		t.Fatalf("expected 0 suppressed, got %d", suppressed)
	}
	if remaining != 3 {
		t.Fatalf("expected 3 remaining, got %d", remaining)
	}
}

func TestSuppressKnownPartialBaseline(t *testing.T) {
	report := sampleReport()
	known := Set{}
	AddAll(known, []string{
		FingerprintCoverage("sales_overview", models.FilterCoverage{Name: "region", Status: models.StatusPartial}),
	})

	suppressed, remaining := SuppressKnown(report, known)
	if suppressed != 1 {
		t.Fatalf("expected 1 suppressed, got %d", suppressed)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 remaining, got %d", remaining)
	}
}
