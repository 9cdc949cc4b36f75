package viewer

import "fmt"

// Column describes one grid column: the record field it reads, the
// header label, and a fixed display width.
type Column struct {
	Name  string
	Label string
	Width int
}

// SchemaProvider returns the ordered column specs for a record kind.
type SchemaProvider func(kind string) []Column

// ConfigError reports an invalid column configuration. Layout problems
// are hard failures; silently truncating columns produces misaligned
// grids that are far harder to debug than a loud error.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "viewer configuration: " + e.Reason
}

// columnSeparator sits between adjacent columns.
const columnSeparator = " "

// validateColumns checks a schema provider's output at construction.
func validateColumns(kind string, cols []Column) error {
	if len(cols) == 0 {
		return &ConfigError{Reason: fmt.Sprintf("no columns declared for kind %q", kind)}
	}
	for i, col := range cols {
		if col.Name == "" {
			return &ConfigError{Reason: fmt.Sprintf("column %d of kind %q has no field name", i, kind)}
		}
		if col.Width <= 0 {
			return &ConfigError{Reason: fmt.Sprintf("column %q of kind %q has width %d", col.Name, kind, col.Width)}
		}
	}
	return nil
}

// totalWidth is the full grid width: declared column widths plus one
// separator between each adjacent pair.
func totalWidth(cols []Column) int {
	w := 0
	for _, col := range cols {
		w += col.Width
	}
	if len(cols) > 1 {
		w += (len(cols) - 1) * len(columnSeparator)
	}
	return w
}

// checkFit verifies the grid fits the available width at render time.
func checkFit(cols []Column, available int) error {
	if need := totalWidth(cols); need > available {
		return &ConfigError{
			Reason: fmt.Sprintf("columns need width %d but only %d is available", need, available),
		}
	}
	return nil
}
