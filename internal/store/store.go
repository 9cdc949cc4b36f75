// Package store implements the observable, transactional data store
// backing the grid view. It holds named collections of generic
// records, validates mutations against per-collection rule sets,
// persists full snapshots through an external adapter, and notifies
// typed subscribers after every successful mutation.
//
// Locking discipline: every mutating or consistency-sensitive reading
// operation takes the collection's lock for its critical section.
// Event dispatch happens strictly after the lock is released, so a
// callback may call back into the store without deadlocking.
package store

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Adapter is the persistence seam. The store treats it as an opaque
// full-snapshot read/write; there is no incremental contract.
type Adapter interface {
	Load() (map[string][]Record, error)
	Save(map[string][]Record) error
}

// Logger is the subset of the application logger the store uses.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// maxIDAttempts bounds identifier-generation retries on the
// vanishingly rare collision.
const maxIDAttempts = 5

// collection is one record kind. The store is its sole writer.
type collection struct {
	mu      sync.Mutex
	name    string
	rules   Rules
	records []Record
	dirty   bool
}

// Store is the authoritative in-memory data set. Construct one with
// New and hand it to consumers by reference; it owns its own locks.
type Store struct {
	adapter Adapter
	log     Logger

	// saveMu serializes Save and Load, which span all collections.
	saveMu sync.Mutex

	// collections is fixed at construction; the map itself is never
	// mutated afterward, so lookups need no lock.
	collections map[string]*collection
	names       []string

	autoSave  atomic.Bool
	saveEpoch atomic.Uint64

	mutations  atomic.Uint64
	saveErrors atomic.Uint64

	obs observers
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for subscriber failures and warnings.
func WithLogger(log Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithAutoSave sets the initial auto-save mode. Default is on.
func WithAutoSave(on bool) Option {
	return func(s *Store) { s.autoSave.Store(on) }
}

// New constructs a store with the given collection kinds and performs
// the initial load. A load failure here is fatal: the store must not
// present itself as ready with empty or corrupt state.
func New(adapter Adapter, kinds map[string]Rules, opts ...Option) (*Store, error) {
	s := &Store{
		adapter:     adapter,
		collections: make(map[string]*collection, len(kinds)),
	}
	s.autoSave.Store(true)

	for name, rules := range kinds {
		s.collections[name] = &collection{name: name, rules: rules}
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)

	for _, opt := range opts {
		opt(s)
	}

	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	return s, nil
}

// Collections returns the collection names, sorted.
func (s *Store) Collections() []string {
	return append([]string(nil), s.names...)
}

func (s *Store) coll(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, &UnknownCollectionError{Collection: name}
	}
	return c, nil
}

// GetAll returns a copy of the collection's records in order.
// The result is never nil.
func (s *Store) GetAll(name string) ([]Record, error) {
	c, err := s.coll(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRecords(c.records), nil
}

// GetByID returns a copy of the record with the given identifier.
func (s *Store) GetByID(name, id string) (Record, error) {
	c, err := s.coll(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.records {
		if rec.ID() == id {
			return rec.Clone(), nil
		}
	}
	return nil, &NotFoundError{Collection: name, ID: id}
}

// Count returns the number of records in a collection.
func (s *Store) Count(name string) (int, error) {
	c, err := s.coll(name)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records), nil
}

// Digest returns the collection's content digest. Consumers compare
// digests across polls to skip redundant rebuilds.
func (s *Store) Digest(name string) (uint64, error) {
	c, err := s.coll(name)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return digestRecords(c.records), nil
}

// Add validates and appends a record. A missing identifier is
// generated; a duplicate identifier is rejected. Returns the stored
// record including assigned identifier and timestamps.
func (s *Store) Add(name string, rec Record) (Record, error) {
	c, err := s.coll(name)
	if err != nil {
		return nil, err
	}

	working := rec.Clone()

	c.mu.Lock()
	if id := working.ID(); id == "" {
		id, err = generateID(c.records)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		working[FieldID] = id
	} else if indexOf(c.records, id) >= 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}

	working.stamp(time.Now())

	if violations := c.rules.Validate(working); len(violations) > 0 {
		c.mu.Unlock()
		return nil, &ValidationError{Collection: name, Violations: violations}
	}

	c.records = append(c.records, working)
	c.dirty = true
	stored := working.Clone()
	c.mu.Unlock()

	s.mutations.Add(1)
	s.autoSaveAfterMutation()
	s.notifyMutation(mutationAdded, name, stored)
	return stored, nil
}

// Update applies field changes to the record with the given identifier.
// The entire updated record is re-validated: a change that produces an
// invalid record as a whole is rejected and the live record is left
// untouched.
func (s *Store) Update(name, id string, changes Record) (Record, error) {
	c, err := s.coll(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	idx := indexOf(c.records, id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, &NotFoundError{Collection: name, ID: id}
	}

	working := c.records[idx].Clone()
	var violations []string
	for k, v := range changes {
		if k == FieldID && v != working.ID() {
			violations = append(violations, "identifier cannot be changed")
			continue
		}
		working[k] = v
	}
	working.stamp(time.Now())

	violations = append(violations, c.rules.Validate(working)...)
	if len(violations) > 0 {
		c.mu.Unlock()
		return nil, &ValidationError{Collection: name, Violations: violations}
	}

	c.records[idx] = working
	c.dirty = true
	updated := working.Clone()
	c.mu.Unlock()

	s.mutations.Add(1)
	s.autoSaveAfterMutation()
	s.notifyMutation(mutationUpdated, name, updated)
	return updated, nil
}

// Delete removes the record with the given identifier.
func (s *Store) Delete(name, id string) error {
	c, err := s.coll(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	idx := indexOf(c.records, id)
	if idx < 0 {
		c.mu.Unlock()
		return &NotFoundError{Collection: name, ID: id}
	}

	removed := c.records[idx]
	c.records = append(c.records[:idx], c.records[idx+1:]...)
	c.dirty = true
	c.mu.Unlock()

	s.mutations.Add(1)
	s.autoSaveAfterMutation()
	s.notifyMutation(mutationDeleted, name, removed)
	return nil
}

// Load replaces all in-memory collections from the adapter. On
// failure the previous state is retained and the error returned; the
// caller decides whether that is fatal (it is at construction).
func (s *Store) Load() error {
	s.saveMu.Lock()

	data, err := s.adapter.Load()
	if err != nil {
		s.saveMu.Unlock()
		return err
	}

	var changed []string
	for _, name := range s.names {
		c := s.collections[name]
		incoming := cloneRecords(data[name])

		c.mu.Lock()
		if digestRecords(c.records) != digestRecords(incoming) {
			changed = append(changed, name)
		}
		c.records = incoming
		c.dirty = false
		c.mu.Unlock()
	}

	if s.log != nil {
		for name := range data {
			if _, ok := s.collections[name]; !ok {
				s.log.Warn("ignoring undeclared collection %q in data source", name)
			}
		}
	}
	s.saveMu.Unlock()

	for _, name := range changed {
		s.notifyReload(name)
	}
	if len(changed) > 0 {
		s.notifyDataChanged()
	}
	return nil
}

// Save persists a full snapshot of every collection. The pre-save
// state is kept as a rollback point: if the adapter fails, in-memory
// state is restored exactly and a save-error event fires.
func (s *Store) Save() error {
	s.saveMu.Lock()

	snapshot := make(map[string][]Record, len(s.names))
	for _, name := range s.names {
		c := s.collections[name]
		c.mu.Lock()
		snapshot[name] = cloneRecords(c.records)
		c.mu.Unlock()
	}

	if err := s.adapter.Save(snapshot); err != nil {
		// Restore the rollback point; a concurrent mutation that
		// raced the failed save is superseded by it.
		for _, name := range s.names {
			c := s.collections[name]
			c.mu.Lock()
			c.records = cloneRecords(snapshot[name])
			c.mu.Unlock()
		}
		s.saveErrors.Add(1)
		s.saveMu.Unlock()

		saveErr := &SaveError{Err: err}
		s.notifySaveError(saveErr)
		return saveErr
	}

	for _, name := range s.names {
		c := s.collections[name]
		c.mu.Lock()
		c.dirty = false
		c.mu.Unlock()
	}
	s.saveEpoch.Add(1)
	s.saveMu.Unlock()
	return nil
}

// SetAutoSave toggles persistence-per-mutation. With auto-save off,
// mutations accumulate in memory until Flush.
func (s *Store) SetAutoSave(on bool) {
	s.autoSave.Store(on)
}

// AutoSave reports the current auto-save mode.
func (s *Store) AutoSave() bool {
	return s.autoSave.Load()
}

// Flush performs one save covering all accumulated changes. A no-op
// when nothing is dirty.
func (s *Store) Flush() error {
	if !s.Dirty() {
		return nil
	}
	return s.Save()
}

// Dirty reports whether any collection has unpersisted changes.
func (s *Store) Dirty() bool {
	for _, name := range s.names {
		c := s.collections[name]
		c.mu.Lock()
		d := c.dirty
		c.mu.Unlock()
		if d {
			return true
		}
	}
	return false
}

// SaveEpoch counts successful saves. The data-file watcher compares
// epochs to ignore change notifications caused by the store's own
// writes.
func (s *Store) SaveEpoch() uint64 {
	return s.saveEpoch.Load()
}

// Mutations returns the total number of successful mutations.
func (s *Store) Mutations() uint64 {
	return s.mutations.Load()
}

// autoSaveAfterMutation persists when auto-save is on. The save error
// path has already notified subscribers and rolled back; the mutation
// itself stays applied, flagged dirty for a later retry.
func (s *Store) autoSaveAfterMutation() {
	if !s.autoSave.Load() {
		return
	}
	if err := s.Save(); err != nil && s.log != nil {
		s.log.Error("auto-save failed: %v", err)
	}
}

// notifyReload fires collection-changed for a reloaded collection.
func (s *Store) notifyReload(name string) {
	s.obs.mu.Lock()
	fns := append([]CollectionFunc(nil), s.obs.collectionChanged...)
	s.obs.mu.Unlock()
	for _, fn := range fns {
		s.safeCall(func() { fn(name) })
	}
}

func (s *Store) notifyDataChanged() {
	s.obs.mu.Lock()
	fns := append([]func(){}, s.obs.dataChanged...)
	s.obs.mu.Unlock()
	for _, fn := range fns {
		s.safeCall(fn)
	}
}

// indexOf finds a record by identifier. Linear; collections are
// human-scale lists, not databases.
func indexOf(recs []Record, id string) int {
	for i, rec := range recs {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

// generateID produces a fresh identifier, retrying a bounded number
// of times on collision.
func generateID(recs []Record) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := uuid.NewString()
		if indexOf(recs, id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDGeneration
}
