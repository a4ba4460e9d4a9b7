// Package coverage computes per-filter coverage ratios, status
// classification, and dashboard-wide aggregates from a built link graph.
package coverage

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/linker"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
)

// ErrInconsistentGraph marks a builder contract violation: the graph
// references a filter absent from the dashboard model. This is a
// programming fault, not bad user data.
var ErrInconsistentGraph = errors.New("link graph is inconsistent with dashboard model")

// Compute derives the analysis report for one dashboard. Pure function;
// the only failure mode is a structural invariant violation in the
// graph, which indicates a bug in the builder.
func Compute(dashboard *models.Dashboard, graph *linker.Graph) (*models.AnalysisReport, error) {
	filterableCount := graph.FilterableTileCount()

	report := &models.AnalysisReport{
		Dashboard:           dashboard.Name,
		SourcePath:          dashboard.SourcePath,
		TotalFilters:        len(dashboard.Filters),
		TotalTiles:          len(dashboard.Tiles),
		FilterableTileCount: filterableCount,
		Filters:             make([]models.FilterCoverage, 0, len(dashboard.Filters)),
		Diagnostics:         graph.Diagnostics(),
	}

	for _, filter := range dashboard.Filters {
		linked, ok := graph.TilesFor(filter.Name)
		if !ok {
			return nil, fmt.Errorf("filter %q missing from link graph: %w", filter.Name, ErrInconsistentGraph)
		}

		// Count distinct filterable tiles only; links on text-style
		// tiles are kept in the graph for rendering but cannot count
		// toward a denominator they are excluded from.
		linkedFilterable := make([]string, 0, len(linked))
		for _, tileKey := range linked {
			if _, exists := dashboard.TileByKey(tileKey); !exists {
				return nil, fmt.Errorf("tile %q missing from dashboard model: %w", tileKey, ErrInconsistentGraph)
			}
			if graph.IsTileFilterable(tileKey) {
				linkedFilterable = append(linkedFilterable, tileKey)
			}
		}

		ratio := 0.0
		if filterableCount > 0 {
			ratio = float64(len(linkedFilterable)) / float64(filterableCount)
		}

		report.Filters = append(report.Filters, models.FilterCoverage{
			Name:                filter.Name,
			Title:               filter.Title,
			Type:                filter.Type,
			Field:               filter.Field,
			LinkedTiles:         linkedFilterable,
			LinkedTileCount:     len(linkedFilterable),
			FilterableTileCount: filterableCount,
			CoverageRatio:       ratio,
			Status:              models.StatusFor(ratio),
		})
	}

	report.Aggregates = aggregate(report.Filters)
	report.ExploreStats = exploreStats(dashboard, graph)

	return report, nil
}

// aggregate computes mean/median/min/max over coverage ratios plus
// per-status counts. Zero filters means the numeric aggregates are
// undefined, reported explicitly instead of as spurious zeros.
func aggregate(filters []models.FilterCoverage) models.Aggregates {
	if len(filters) == 0 {
		return models.Aggregates{NoFilters: true}
	}

	agg := models.Aggregates{}
	ratios := make([]float64, 0, len(filters))
	sum := 0.0

	for _, fc := range filters {
		ratios = append(ratios, fc.CoverageRatio)
		sum += fc.CoverageRatio

		switch fc.Status {
		case models.StatusComplete:
			agg.Complete++
		case models.StatusPartial:
			agg.Partial++
		case models.StatusMissing:
			agg.Missing++
		}
	}

	sort.Float64s(ratios)

	mean := sum / float64(len(ratios))
	median := ratios[len(ratios)/2]
	if len(ratios)%2 == 0 {
		median = (ratios[len(ratios)/2-1] + ratios[len(ratios)/2]) / 2
	}
	min := ratios[0]
	max := ratios[len(ratios)-1]

	agg.Mean = &mean
	agg.Median = &median
	agg.Min = &min
	agg.Max = &max

	return agg
}

// exploreStats summarizes, per explore, how many tiles carry at least
// one resolved listen binding. Tiles with no explore attribute are
// grouped under the empty explore name.
func exploreStats(dashboard *models.Dashboard, graph *linker.Graph) []models.ExploreStat {
	type tally struct {
		total  int
		linked int
	}

	tallies := make(map[string]*tally)
	order := make([]string, 0)

	for i := range dashboard.Tiles {
		tile := &dashboard.Tiles[i]
		entry, exists := tallies[tile.Explore]
		if !exists {
			entry = &tally{}
			tallies[tile.Explore] = entry
			order = append(order, tile.Explore)
		}
		entry.total++
		if len(graph.FiltersFor(tile.Key)) > 0 {
			entry.linked++
		}
	}

	stats := make([]models.ExploreStat, 0, len(order))
	for _, explore := range order {
		entry := tallies[explore]
		percent := 0.0
		if entry.total > 0 {
			percent = float64(entry.linked) / float64(entry.total) * 100
		}
		stats = append(stats, models.ExploreStat{
			Explore:            explore,
			TotalTiles:         entry.total,
			TilesWithListen:    entry.linked,
			TilesWithoutListen: entry.total - entry.linked,
			LinkedPercent:      percent,
		})
	}

	return stats
}
