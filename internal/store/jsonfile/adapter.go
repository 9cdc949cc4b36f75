// Package jsonfile persists store collections as a single JSON
// document on disk. The document maps collection names to arrays of
// record objects. Writes go through a temp file and rename so a crash
// mid-write never leaves a truncated data file behind.
package jsonfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"termtask/internal/store"
)

// Adapter reads and writes one JSON data file.
type Adapter struct {
	path string
}

// New returns an adapter bound to the given file path. The file does
// not need to exist yet; a missing file loads as empty.
func New(path string) *Adapter {
	return &Adapter{path: path}
}

// Path returns the data file path.
func (a *Adapter) Path() string {
	return a.path
}

// Load reads the data file into collections. A missing file is not an
// error: a fresh install starts empty. A present but malformed file is
// an error; silently treating it as empty would invite data loss on
// the next save.
func (a *Adapter) Load() (map[string][]store.Record, error) {
	raw, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return map[string][]store.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.path, err)
	}

	if len(raw) == 0 {
		return map[string][]store.Record{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("parse %s: not valid JSON", a.path)
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("parse %s: top level must be an object", a.path)
	}

	data := make(map[string][]store.Record)
	var parseErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			parseErr = fmt.Errorf("parse %s: collection %q is not an array", a.path, key.String())
			return false
		}
		recs := []store.Record{}
		for _, item := range value.Array() {
			if !item.IsObject() {
				parseErr = fmt.Errorf("parse %s: collection %q contains a non-object entry", a.path, key.String())
				return false
			}
			fields, ok := item.Value().(map[string]any)
			if !ok {
				parseErr = fmt.Errorf("parse %s: collection %q contains a non-object entry", a.path, key.String())
				return false
			}
			recs = append(recs, store.Record(fields))
		}
		data[key.String()] = recs
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return data, nil
}

// Save writes all collections as one pretty-printed JSON document.
// Collection keys are written in sorted order so successive saves of
// equal data produce identical files.
func (a *Adapter) Save(data map[string][]store.Record) error {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := []byte("{}")
	var err error
	for _, name := range names {
		recs := data[name]
		if recs == nil {
			recs = []store.Record{}
		}
		doc, err = sjson.SetBytes(doc, name, recs)
		if err != nil {
			return fmt.Errorf("encode collection %q: %w", name, err)
		}
	}
	doc = pretty.PrettyOptions(doc, &pretty.Options{Indent: "  ", SortKeys: true})

	return a.writeAtomic(doc)
}

// writeAtomic writes the document to a temp file in the target
// directory and renames it over the data file. Rename within one
// directory is atomic on POSIX filesystems.
func (a *Adapter) writeAtomic(doc []byte) error {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(a.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", a.path, err)
	}
	return nil
}
