// Package linker builds the bipartite filter↔tile link graph from a
// parsed dashboard. The graph is assembled in a single pass and is
// immutable once returned; callers never observe a partially built one.
package linker

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
)

// DefaultNonFilterableTypes are the visualization types that never
// support listen bindings and are excluded from coverage denominators.
var DefaultNonFilterableTypes = []string{"text", "single_value", "single_number"}

// Options controls graph construction.
type Options struct {
	// NonFilterableTypes is a list of visualization type patterns
	// (exact names or path.Match globs, e.g. "single_*") whose tiles
	// are excluded from the filterable denominator. Nil means
	// DefaultNonFilterableTypes.
	NonFilterableTypes []string
}

func (o Options) nonFilterableTypes() []string {
	if o.NonFilterableTypes == nil {
		return DefaultNonFilterableTypes
	}
	return o.NonFilterableTypes
}

// linkKey uniquely identifies a filter→tile edge
type linkKey struct {
	Filter string
	Tile   string
}

// Graph is the bipartite link graph for one dashboard.
type Graph struct {
	links           []models.Link
	dependencies    []models.DependencyEdge
	diagnostics     []models.Diagnostic
	tilesByFilter   map[string][]string
	filtersByTile   map[string][]string
	filterableTiles []string
	filterableSet   map[string]struct{}
}

// Build derives the link graph from a dashboard. Listen entries naming
// undeclared filters become diagnostics, never errors; filter-name
// matching is exact and case-sensitive.
func Build(dashboard *models.Dashboard, opts Options) *Graph {
	g := &Graph{
		links:           make([]models.Link, 0),
		dependencies:    make([]models.DependencyEdge, 0),
		diagnostics:     make([]models.Diagnostic, 0),
		tilesByFilter:   make(map[string][]string, len(dashboard.Filters)),
		filtersByTile:   make(map[string][]string, len(dashboard.Tiles)),
		filterableTiles: make([]string, 0, len(dashboard.Tiles)),
		filterableSet:   make(map[string]struct{}, len(dashboard.Tiles)),
	}

	declared := make(map[string]struct{}, len(dashboard.Filters))
	for _, filter := range dashboard.Filters {
		declared[filter.Name] = struct{}{}
		g.tilesByFilter[filter.Name] = make([]string, 0)
	}

	patterns := opts.nonFilterableTypes()
	seen := make(map[linkKey]struct{})

	for i := range dashboard.Tiles {
		tile := &dashboard.Tiles[i]
		if IsFilterable(tile.Type, patterns) {
			g.filterableTiles = append(g.filterableTiles, tile.Key)
			g.filterableSet[tile.Key] = struct{}{}
		}

		// Listen keys are iterated in sorted order so the graph is
		// byte-identical across runs on the same input.
		for _, filterName := range sortedKeys(tile.Listen) {
			if _, ok := declared[filterName]; !ok {
				g.diagnostics = append(g.diagnostics, models.Diagnostic{
					Kind:   models.DiagUnresolvedListen,
					Tile:   tile.Key,
					Filter: filterName,
					Detail: fmt.Sprintf("tile %q listens to undeclared filter %q", tile.Key, filterName),
				})
				continue
			}

			key := linkKey{Filter: filterName, Tile: tile.Key}
			if _, dup := seen[key]; dup {
				g.diagnostics = append(g.diagnostics, models.Diagnostic{
					Kind:   models.DiagDuplicateLink,
					Tile:   tile.Key,
					Filter: filterName,
					Detail: fmt.Sprintf("tile %q declares more than one listen on filter %q", tile.Key, filterName),
				})
				continue
			}
			seen[key] = struct{}{}

			g.links = append(g.links, models.Link{
				Filter: filterName,
				Tile:   tile.Key,
				Field:  tile.Listen[filterName],
			})
			g.tilesByFilter[filterName] = append(g.tilesByFilter[filterName], tile.Key)
			g.filtersByTile[tile.Key] = append(g.filtersByTile[tile.Key], filterName)
		}
	}

	for _, filter := range dashboard.Filters {
		for _, dep := range filter.ListensToFilters {
			if _, ok := declared[dep]; !ok {
				g.diagnostics = append(g.diagnostics, models.Diagnostic{
					Kind:   models.DiagUnresolvedDependency,
					Filter: dep,
					Detail: fmt.Sprintf("filter %q listens to undeclared filter %q", filter.Name, dep),
				})
				continue
			}
			g.dependencies = append(g.dependencies, models.DependencyEdge{
				From: dep,
				To:   filter.Name,
			})
		}
	}

	return g
}

// IsFilterable reports whether a visualization type supports listen
// bindings under the given non-filterable patterns. Invalid glob
// patterns are treated as exact matches, as in config exclusion lists.
func IsFilterable(vizType string, nonFilterablePatterns []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(vizType))
	for _, pattern := range nonFilterablePatterns {
		p := strings.ToLower(strings.TrimSpace(pattern))
		if p == "" {
			continue
		}
		matched, err := path.Match(p, normalized)
		if err == nil && matched {
			return false
		}
		if err != nil && p == normalized {
			return false
		}
	}
	return true
}

// Links returns every derived filter→tile link in tile declaration order.
func (g *Graph) Links() []models.Link {
	return g.links
}

// Dependencies returns the filter→filter dependency edges.
func (g *Graph) Dependencies() []models.DependencyEdge {
	return g.dependencies
}

// Diagnostics returns the data-quality findings collected during the build.
func (g *Graph) Diagnostics() []models.Diagnostic {
	return g.diagnostics
}

// TilesFor returns the tile keys linked to a filter, in declaration
// order. The second result is false for undeclared filter names.
func (g *Graph) TilesFor(filterName string) ([]string, bool) {
	tiles, ok := g.tilesByFilter[filterName]
	return tiles, ok
}

// FiltersFor returns the filter names a tile listens to, in sorted order.
func (g *Graph) FiltersFor(tileKey string) []string {
	return g.filtersByTile[tileKey]
}

// FilterableTiles returns the keys of tiles that count toward coverage
// denominators, in declaration order.
func (g *Graph) FilterableTiles() []string {
	return g.filterableTiles
}

// FilterableTileCount returns the coverage denominator.
func (g *Graph) FilterableTileCount() int {
	return len(g.filterableTiles)
}

// IsTileFilterable reports whether the tile with the given key counts
// toward coverage denominators.
func (g *Graph) IsTileFilterable(tileKey string) bool {
	_, ok := g.filterableSet[tileKey]
	return ok
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
