package store

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"
)

// digestRecords computes a content digest over a record slice. The
// viewer compares digests to decide whether a poll actually changed
// anything; the digest must be stable across map iteration order.
func digestRecords(recs []Record) uint64 {
	h := fnv.New64a()
	for _, rec := range recs {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%s=%s;", k, canonicalValue(rec[k]))
		}
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// canonicalValue renders a field value deterministically.
func canonicalValue(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case []any:
		s := "["
		for i, item := range t {
			if i > 0 {
				s += ","
			}
			s += canonicalValue(item)
		}
		return s + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
