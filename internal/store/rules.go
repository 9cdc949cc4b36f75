package store

import (
	"fmt"
	"time"
)

// FieldType tags the expected type of a record field.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeList      FieldType = "list"
)

// Rules is the validation rule set for one collection: fields that
// must be present, and expected types for fields that are.
type Rules struct {
	Required []string
	Types    map[string]FieldType
}

// Validate checks a record against the rule set and returns all
// violations, not just the first. An empty slice means the record is
// valid.
func (ru Rules) Validate(rec Record) []string {
	var violations []string

	for _, field := range ru.Required {
		v, ok := rec[field]
		if !ok || v == nil || v == "" {
			violations = append(violations, fmt.Sprintf("required field %q is missing", field))
		}
	}

	for field, kind := range ru.Types {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		if !kind.accepts(v) {
			violations = append(violations,
				fmt.Sprintf("field %q should be %s, got %T", field, kind, v))
		}
	}

	return violations
}

// accepts reports whether a value satisfies the field type. Loaded
// data arrives through JSON, so integers may surface as float64 and
// timestamps as RFC 3339 strings; both are accepted.
func (ft FieldType) accepts(v any) bool {
	switch ft {
	case FieldTypeString:
		_, ok := v.(string)
		return ok
	case FieldTypeInteger:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		default:
			return false
		}
	case FieldTypeBoolean:
		_, ok := v.(bool)
		return ok
	case FieldTypeTimestamp:
		switch s := v.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339, s)
			return err == nil
		default:
			return false
		}
	case FieldTypeList:
		switch v.(type) {
		case []any, []string:
			return true
		default:
			return false
		}
	default:
		return false
	}
}
