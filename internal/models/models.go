package models

// Filter represents a dashboard-level filter declared in the filters block
type Filter struct {
	Name                string   `json:"name"`
	Title               string   `json:"title,omitempty"`
	Type                string   `json:"type,omitempty"` // 'date_filter', 'field_filter', etc.
	Field               string   `json:"field,omitempty"`
	Model               string   `json:"model,omitempty"`
	Explore             string   `json:"explore,omitempty"`
	DefaultValue        string   `json:"default_value,omitempty"`
	Required            bool     `json:"required,omitempty"`
	AllowMultipleValues bool     `json:"allow_multiple_values,omitempty"`
	ListensToFilters    []string `json:"listens_to_filters,omitempty"` // filter→filter dependencies, display only
}

// Label returns the display label for a filter (title, falling back to name).
func (f *Filter) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// Tile represents a single visualization element from the elements block
type Tile struct {
	Name    string            `json:"name,omitempty"`
	Title   string            `json:"title,omitempty"`
	Type    string            `json:"type,omitempty"` // 'looker_grid', 'looker_line', 'text', etc.
	Explore string            `json:"explore,omitempty"`
	Listen  map[string]string `json:"listen,omitempty"` // filter name → field
	Fields  []string          `json:"fields,omitempty"`
	Row     int               `json:"row,omitempty"`
	Col     int               `json:"col,omitempty"`
	Width   int               `json:"width,omitempty"`
	Height  int               `json:"height,omitempty"`

	// Key is the stable identity used in links and reports. The parser
	// fills it from Name, then Title, then a positional fallback, since
	// LookML elements are not required to carry either attribute.
	Key string `json:"key"`
}

// Label returns the display label for a tile (title, falling back to key).
func (t *Tile) Label() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Key
}

// Dashboard is the parsed model of one dashboard definition file
type Dashboard struct {
	Name       string   `json:"name"`
	Title      string   `json:"title,omitempty"`
	SourcePath string   `json:"source_path,omitempty"`
	Filters    []Filter `json:"filters"` // declaration order, name-unique
	Tiles      []Tile   `json:"tiles"`   // declaration order
}

// FilterByName returns the declared filter with the given name, if any.
// Matching is exact and case-sensitive.
func (d *Dashboard) FilterByName(name string) (*Filter, bool) {
	for i := range d.Filters {
		if d.Filters[i].Name == name {
			return &d.Filters[i], true
		}
	}
	return nil, false
}

// TileByKey returns the tile with the given key, if any.
func (d *Dashboard) TileByKey(key string) (*Tile, bool) {
	for i := range d.Tiles {
		if d.Tiles[i].Key == key {
			return &d.Tiles[i], true
		}
	}
	return nil, false
}

// Link is the derived filter→tile relation meaning "this tile listens to
// this filter". Links are never created directly; they exist only inside
// a built link graph.
type Link struct {
	Filter string `json:"filter"`
	Tile   string `json:"tile"`            // tile key
	Field  string `json:"field,omitempty"` // field the tile applies the filter to
}

// DependencyEdge is a filter→filter listens_to_filters relation. It is
// carried for renderers and never affects coverage.
type DependencyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Diagnostic kinds produced by the link graph builder.
const (
	DiagUnresolvedListen     = "unresolved_listen"
	DiagDuplicateLink        = "duplicate_link"
	DiagUnresolvedDependency = "unresolved_dependency"
)

// Diagnostic is a non-fatal data-quality finding collected during graph
// construction, e.g. a listen entry naming an undeclared filter.
type Diagnostic struct {
	Kind   string `json:"kind"`
	Tile   string `json:"tile,omitempty"` // tile key, empty for filter-level diagnostics
	Filter string `json:"filter"`         // the referenced filter name
	Detail string `json:"detail,omitempty"`
}
