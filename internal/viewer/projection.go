package viewer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"termtask/internal/store"
)

// CellText renders a record field for display, comparison, and edit
// seeding. Values arrive either as live Go types or as their JSON
// decodings, so both shapes are handled.
func CellText(rec store.Record, field string) string {
	return cellText(rec, field)
}

func cellText(rec store.Record, field string) string {
	v, ok := rec[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// matchesFilters reports whether a record satisfies every active
// predicate. Predicates are case-insensitive substring checks and are
// conjunctive.
func matchesFilters(rec store.Record, filters map[string]string) bool {
	for field, want := range filters {
		if !strings.Contains(strings.ToLower(cellText(rec, field)), strings.ToLower(want)) {
			return false
		}
	}
	return true
}

// compareValues orders two display values. When both parse as numbers
// the comparison is numeric; otherwise it is a case-insensitive string
// compare. Returns <0, 0, >0.
func compareValues(a, b string) int {
	an, aerr := strconv.ParseFloat(strings.TrimSpace(a), 64)
	bn, berr := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// project builds the filtered, sorted view of a collection snapshot.
// The result is a fresh slice; the projection is always rebuilt, never
// mutated in place.
func project(recs []store.Record, filters map[string]string, sortField string, ascending bool) []store.Record {
	out := make([]store.Record, 0, len(recs))
	for _, rec := range recs {
		if matchesFilters(rec, filters) {
			out = append(out, rec)
		}
	}

	if sortField != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(cellText(out[i], sortField), cellText(out[j], sortField))
			if ascending {
				return c < 0
			}
			return c > 0
		})
	}
	return out
}
