package parser

import "fmt"

// MalformedDefinitionError means the input text is not a well-formed
// dashboard definition. Fatal to the parse call; carries a location hint.
type MalformedDefinitionError struct {
	Path   string
	Line   int
	Column int
	Reason string
	cause  error
}

func (e *MalformedDefinitionError) Error() string {
	location := e.Path
	if location == "" {
		location = "dashboard"
	}
	if e.Line > 0 {
		location = fmt.Sprintf("%s:%d", location, e.Line)
		if e.Column > 0 {
			location = fmt.Sprintf("%s:%d", location, e.Column)
		}
	}
	return fmt.Sprintf("%s: malformed dashboard definition: %s", location, e.Reason)
}

func (e *MalformedDefinitionError) Unwrap() error {
	return e.cause
}

// DuplicateFilterError means two filters share a name. Coverage
// accounting is keyed by filter name, so this is fatal.
type DuplicateFilterError struct {
	Path string
	Name string
}

func (e *DuplicateFilterError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("duplicate filter name %q", e.Name)
	}
	return fmt.Sprintf("%s: duplicate filter name %q", e.Path, e.Name)
}
