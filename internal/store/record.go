package store

import (
	"time"
)

// Field names the store itself manages on every record.
const (
	FieldID         = "id"
	FieldCreatedAt  = "created_at"
	FieldModifiedAt = "modified_at"
)

// Record is a generic string-keyed record. The store treats records as
// opaque except for the identifier and whatever the collection's rule
// set declares; the domain layer gives fields their meaning.
type Record map[string]any

// ID returns the record identifier, or "" if unset.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// Clone returns a copy of the record. List values are copied so a
// clone can be mutated without aliasing the original.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		if list, ok := v.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			v = cp
		}
		c[k] = v
	}
	return c
}

// stamp sets the modification timestamp, and the creation timestamp if
// it is not already present.
func (r Record) stamp(now time.Time) {
	if _, ok := r[FieldCreatedAt]; !ok {
		r[FieldCreatedAt] = now
	}
	r[FieldModifiedAt] = now
}

// cloneRecords deep-copies a record slice.
func cloneRecords(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}
