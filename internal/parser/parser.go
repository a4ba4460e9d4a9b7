package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/models"
)

// LookML dashboard files are YAML: a one-element sequence whose element
// is a mapping carrying the dashboard attributes plus `filters:` and
// `elements:` block lists. A bare top-level mapping is also accepted.

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

type flexString string

// UnmarshalYAML accepts any scalar where a string is expected
// (default_value: 30 and default_value: "30" are both valid LookML).
// Non-scalar values decode to the empty string instead of failing.
func (s *flexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = flexString(node.Value)
	}
	return nil
}

type rawFilter struct {
	Name                string                `yaml:"name"`
	Title               string                `yaml:"title"`
	Type                string                `yaml:"type"`
	Field               string                `yaml:"field"`
	Model               string                `yaml:"model"`
	Explore             string                `yaml:"explore"`
	DefaultValue        flexString            `yaml:"default_value"`
	Required            bool                  `yaml:"required"`
	AllowMultipleValues bool                  `yaml:"allow_multiple_values"`
	ListensToFilters    []string              `yaml:"listens_to_filters"`
	UISettings          map[string]flexString `yaml:"ui_config"`
}

type rawElement struct {
	Name             string                `yaml:"name"`
	Title            string                `yaml:"title"`
	SingleValueTitle string                `yaml:"single_value_title"`
	Type             string                `yaml:"type"`
	Explore          string                `yaml:"explore"`
	Listen           map[string]flexString `yaml:"listen"`
	Fields           []string              `yaml:"fields"`
	Row              int                   `yaml:"row"`
	Col              int                   `yaml:"col"`
	Width            int                   `yaml:"width"`
	Height           int                   `yaml:"height"`
}

type rawDashboard struct {
	Dashboard string       `yaml:"dashboard"`
	Title     string       `yaml:"title"`
	Filters   []rawFilter  `yaml:"filters"`
	Elements  []rawElement `yaml:"elements"`
}

// Parse reads one dashboard definition and produces the structured
// model. path is used only for error messages and the SourcePath field.
// Pure function: no I/O, no shared state.
func Parse(source []byte, path string) (*models.Dashboard, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, malformed(path, err, "invalid YAML: "+trimYAMLError(err))
	}

	root, err := dashboardNode(&doc, path)
	if err != nil {
		return nil, err
	}

	var raw rawDashboard
	if err := root.Decode(&raw); err != nil {
		return nil, &MalformedDefinitionError{
			Path:   path,
			Line:   root.Line,
			Column: root.Column,
			Reason: "dashboard block does not match the expected structure: " + trimYAMLError(err),
			cause:  err,
		}
	}

	dashboard := &models.Dashboard{
		Name:       dashboardName(&raw),
		Title:      raw.Title,
		SourcePath: path,
		Filters:    make([]models.Filter, 0, len(raw.Filters)),
		Tiles:      make([]models.Tile, 0, len(raw.Elements)),
	}

	seen := make(map[string]struct{}, len(raw.Filters))
	for i, rf := range raw.Filters {
		name := rf.Name
		if name == "" {
			name = rf.Title
		}
		if name == "" {
			// Unnamed filters cannot collide: positional identity.
			name = fmt.Sprintf("filter[%d]", i)
		}
		if _, dup := seen[name]; dup {
			return nil, &DuplicateFilterError{Path: path, Name: name}
		}
		seen[name] = struct{}{}

		dashboard.Filters = append(dashboard.Filters, models.Filter{
			Name:                name,
			Title:               rf.Title,
			Type:                rf.Type,
			Field:               rf.Field,
			Model:               rf.Model,
			Explore:             rf.Explore,
			DefaultValue:        string(rf.DefaultValue),
			Required:            rf.Required,
			AllowMultipleValues: rf.AllowMultipleValues,
			ListensToFilters:    normalizeList(rf.ListensToFilters),
		})
	}

	usedKeys := make(map[string]struct{}, len(raw.Elements))
	for i, re := range raw.Elements {
		title := re.Title
		if title == "" {
			title = re.SingleValueTitle
		}

		tile := models.Tile{
			Name:    re.Name,
			Title:   title,
			Type:    re.Type,
			Explore: re.Explore,
			Listen:  listenMap(re.Listen),
			Fields:  normalizeList(re.Fields),
			Row:     re.Row,
			Col:     re.Col,
			Width:   re.Width,
			Height:  re.Height,
		}
		tile.Key = tileKey(&tile, i, usedKeys)
		usedKeys[tile.Key] = struct{}{}

		dashboard.Tiles = append(dashboard.Tiles, tile)
	}

	return dashboard, nil
}

// ParseFile reads and parses a dashboard definition from disk.
func ParseFile(path string) (*models.Dashboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard file: %w", err)
	}
	return Parse(data, path)
}

// dashboardNode locates the dashboard mapping inside the YAML document:
// the first element of a top-level sequence, or the top-level mapping.
func dashboardNode(doc *yaml.Node, path string) (*yaml.Node, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, malformed(path, nil, "document is empty")
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if len(root.Content) == 0 {
			return nil, &MalformedDefinitionError{
				Path:   path,
				Line:   root.Line,
				Column: root.Column,
				Reason: "dashboard list is empty",
			}
		}
		first := root.Content[0]
		if first.Kind != yaml.MappingNode {
			return nil, &MalformedDefinitionError{
				Path:   path,
				Line:   first.Line,
				Column: first.Column,
				Reason: "expected a dashboard block, found a " + nodeKind(first),
			}
		}
		return first, nil
	case yaml.MappingNode:
		return root, nil
	default:
		return nil, &MalformedDefinitionError{
			Path:   path,
			Line:   root.Line,
			Column: root.Column,
			Reason: "expected a dashboard block or list of dashboard blocks, found a " + nodeKind(root),
		}
	}
}

func dashboardName(raw *rawDashboard) string {
	if raw.Dashboard != "" {
		return raw.Dashboard
	}
	if raw.Title != "" {
		return raw.Title
	}
	return "unknown_dashboard"
}

// tileKey derives the stable tile identity: name, then title, then a
// positional fallback. Already-used keys also fall back positionally so
// keys stay unique within one dashboard.
func tileKey(tile *models.Tile, index int, used map[string]struct{}) string {
	candidates := []string{tile.Name, tile.Title}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
	return fmt.Sprintf("element[%d]", index)
}

func listenMap(listen map[string]flexString) map[string]string {
	if len(listen) == 0 {
		return map[string]string{}
	}
	result := make(map[string]string, len(listen))
	for filterName, field := range listen {
		result[filterName] = string(field)
	}
	return result
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	return normalized
}

func malformed(path string, cause error, reason string) *MalformedDefinitionError {
	err := &MalformedDefinitionError{
		Path:   path,
		Reason: reason,
		cause:  cause,
	}
	if cause != nil {
		if matches := yamlLinePattern.FindStringSubmatch(cause.Error()); matches != nil {
			if line, convErr := strconv.Atoi(matches[1]); convErr == nil {
				err.Line = line
			}
		}
	}
	return err
}

func trimYAMLError(err error) string {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, "yaml: ")
	return strings.ReplaceAll(msg, "\n", "; ")
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown node"
	}
}
