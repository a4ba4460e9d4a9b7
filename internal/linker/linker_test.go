package linker

import (
	"testing"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
)

func testDashboard() *models.Dashboard {
	return &models.Dashboard{
		Name: "sales_overview",
		Filters: []models.Filter{
			{Name: "date", ListensToFilters: []string{"region"}},
			{Name: "region"},
			{Name: "channel"},
		},
		Tiles: []models.Tile{
			{
				Key:  "orders",
				Type: "looker_grid",
				Listen: map[string]string{
					"date":   "orders.created_date",
					"region": "orders.region",
				},
			},
			{
				Key:  "revenue",
				Type: "looker_line",
				Listen: map[string]string{
					"date": "orders.created_date",
				},
			},
			{
				Key:  "headline",
				Type: "text",
				Listen: map[string]string{
					"date": "orders.created_date",
				},
			},
		},
	}
}

func TestBuildLinks(t *testing.T) {
	g := Build(testDashboard(), Options{})

	// Four resolved listens: two on orders, one on revenue, one on the
	// text tile (kept in the graph, excluded from coverage).
	if len(g.Links()) != 4 {
		t.Fatalf("expected 4 links, got %d: %v", len(g.Links()), g.Links())
	}

	first := g.Links()[0]
	if first.Filter != "date" || first.Tile != "orders" || first.Field != "orders.created_date" {
		t.Fatalf("unexpected first link: %+v", first)
	}

	tiles, ok := g.TilesFor("date")
	if !ok {
		t.Fatal("expected date filter in graph")
	}
	if len(tiles) != 3 {
		t.Fatalf("expected date linked to 3 tiles, got %v", tiles)
	}

	tiles, ok = g.TilesFor("channel")
	if !ok || len(tiles) != 0 {
		t.Fatalf("expected declared-but-unlinked filter with empty slice, got %v ok=%v", tiles, ok)
	}

	if _, ok := g.TilesFor("ghost"); ok {
		t.Fatal("expected undeclared filter to report ok=false")
	}

	if filters := g.FiltersFor("orders"); len(filters) != 2 {
		t.Fatalf("expected orders to listen to 2 filters, got %v", filters)
	}
}

func TestBuildFilterableTiles(t *testing.T) {
	g := Build(testDashboard(), Options{})

	if g.FilterableTileCount() != 2 {
		t.Fatalf("expected 2 filterable tiles, got %d", g.FilterableTileCount())
	}
	if !g.IsTileFilterable("orders") || g.IsTileFilterable("headline") {
		t.Fatal("unexpected filterable classification")
	}

	keys := g.FilterableTiles()
	if len(keys) != 2 || keys[0] != "orders" || keys[1] != "revenue" {
		t.Fatalf("unexpected filterable tiles: %v", keys)
	}
}

func TestBuildUnresolvedListenDiagnostic(t *testing.T) {
	dashboard := testDashboard()
	dashboard.Tiles[0].Listen["ghost"] = "orders.ghost"

	g := Build(dashboard, Options{})

	found := false
	for _, diag := range g.Diagnostics() {
		if diag.Kind == models.DiagUnresolvedListen && diag.Filter == "ghost" && diag.Tile == "orders" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unresolved listen diagnostic, got %v", g.Diagnostics())
	}

	// The unresolved entry must not become a link.
	for _, link := range g.Links() {
		if link.Filter == "ghost" {
			t.Fatal("unresolved listen must not produce a link")
		}
	}
}

func TestBuildListenMatchingIsCaseSensitive(t *testing.T) {
	dashboard := testDashboard()
	dashboard.Tiles[1].Listen = map[string]string{"Date": "orders.created_date"}

	g := Build(dashboard, Options{})

	for _, link := range g.Links() {
		if link.Tile == "revenue" {
			t.Fatalf("case-mismatched listen must not link, got %+v", link)
		}
	}

	found := false
	for _, diag := range g.Diagnostics() {
		if diag.Kind == models.DiagUnresolvedListen && diag.Filter == "Date" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected diagnostic for case-mismatched listen")
	}
}

func TestBuildDuplicateLinkDiagnostic(t *testing.T) {
	// Two tiles sharing a key collapse to one link plus a diagnostic.
	dashboard := &models.Dashboard{
		Name:    "d",
		Filters: []models.Filter{{Name: "date"}},
		Tiles: []models.Tile{
			{Key: "orders", Type: "looker_grid", Listen: map[string]string{"date": "a"}},
			{Key: "orders", Type: "looker_grid", Listen: map[string]string{"date": "b"}},
		},
	}

	g := Build(dashboard, Options{})

	if len(g.Links()) != 1 {
		t.Fatalf("expected 1 link, got %v", g.Links())
	}
	found := false
	for _, diag := range g.Diagnostics() {
		if diag.Kind == models.DiagDuplicateLink && diag.Tile == "orders" && diag.Filter == "date" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected duplicate link diagnostic, got %v", g.Diagnostics())
	}
}

func TestBuildDependencies(t *testing.T) {
	g := Build(testDashboard(), Options{})

	deps := g.Dependencies()
	if len(deps) != 1 || deps[0].From != "region" || deps[0].To != "date" {
		t.Fatalf("unexpected dependencies: %v", deps)
	}
}

func TestBuildUnresolvedDependencyDiagnostic(t *testing.T) {
	dashboard := testDashboard()
	dashboard.Filters[0].ListensToFilters = []string{"nonexistent"}

	g := Build(dashboard, Options{})

	if len(g.Dependencies()) != 0 {
		t.Fatalf("expected no dependency edges, got %v", g.Dependencies())
	}
	found := false
	for _, diag := range g.Diagnostics() {
		if diag.Kind == models.DiagUnresolvedDependency && diag.Filter == "nonexistent" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected unresolved dependency diagnostic")
	}
}

func TestBuildCustomNonFilterableTypes(t *testing.T) {
	dashboard := testDashboard()

	g := Build(dashboard, Options{NonFilterableTypes: []string{"looker_*"}})
	if g.FilterableTileCount() != 1 {
		t.Fatalf("expected only the text tile filterable, got %d", g.FilterableTileCount())
	}
	if !g.IsTileFilterable("headline") {
		t.Fatal("expected text tile filterable under custom patterns")
	}

	// Empty (non-nil) list disables exclusion entirely.
	g = Build(dashboard, Options{NonFilterableTypes: []string{}})
	if g.FilterableTileCount() != 3 {
		t.Fatalf("expected all tiles filterable, got %d", g.FilterableTileCount())
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	first := Build(testDashboard(), Options{})
	second := Build(testDashboard(), Options{})

	if len(first.Links()) != len(second.Links()) {
		t.Fatalf("link counts differ: %d vs %d", len(first.Links()), len(second.Links()))
	}
	for i := range first.Links() {
		if first.Links()[i] != second.Links()[i] {
			t.Fatalf("link order differs at %d: %+v vs %+v", i, first.Links()[i], second.Links()[i])
		}
	}
}

func TestIsFilterable(t *testing.T) {
	cases := []struct {
		vizType  string
		patterns []string
		want     bool
	}{
		{"looker_grid", DefaultNonFilterableTypes, true},
		{"text", DefaultNonFilterableTypes, false},
		{"single_value", DefaultNonFilterableTypes, false},
		{"SINGLE_VALUE", DefaultNonFilterableTypes, false},
		{"single_number", DefaultNonFilterableTypes, false},
		{"", DefaultNonFilterableTypes, true},
		{"single_anything", []string{"single_*"}, false},
		{"looker_grid", []string{"single_*"}, true},
		// Invalid glob falls back to exact matching.
		{"weird[", []string{"weird["}, false},
		{"other", []string{"weird["}, true},
	}

	for _, tc := range cases {
		if got := IsFilterable(tc.vizType, tc.patterns); got != tc.want {
			t.Fatalf("IsFilterable(%q, %v) = %v, want %v", tc.vizType, tc.patterns, got, tc.want)
		}
	}
}
