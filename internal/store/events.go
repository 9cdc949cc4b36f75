package store

import (
	"sync"
)

// RecordFunc observes a single-record mutation.
type RecordFunc func(collection string, rec Record)

// CollectionFunc observes any mutation of one collection.
type CollectionFunc func(collection string)

// observers holds the typed subscriber lists. Registration is guarded
// by its own lock; dispatch happens outside every collection lock so a
// callback may re-enter the store without deadlocking.
type observers struct {
	mu sync.Mutex

	added   []RecordFunc
	updated []RecordFunc
	deleted []RecordFunc

	collectionChanged []CollectionFunc
	dataChanged       []func()
	saveError         []func(error)
}

// OnAdded registers a callback fired after a record is added.
func (s *Store) OnAdded(fn RecordFunc) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.added = append(s.obs.added, fn)
}

// OnUpdated registers a callback fired after a record is updated.
func (s *Store) OnUpdated(fn RecordFunc) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.updated = append(s.obs.updated, fn)
}

// OnDeleted registers a callback fired after a record is deleted.
func (s *Store) OnDeleted(fn RecordFunc) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.deleted = append(s.obs.deleted, fn)
}

// OnCollectionChanged registers a callback fired after any mutation of
// a collection.
func (s *Store) OnCollectionChanged(fn CollectionFunc) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.collectionChanged = append(s.obs.collectionChanged, fn)
}

// OnDataChanged registers a callback fired after any mutation at all.
func (s *Store) OnDataChanged(fn func()) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.dataChanged = append(s.obs.dataChanged, fn)
}

// OnSaveError registers a callback fired when persistence fails and
// the store has rolled back.
func (s *Store) OnSaveError(fn func(error)) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.saveError = append(s.obs.saveError, fn)
}

// mutationKind selects which record-level list fires.
type mutationKind int

const (
	mutationAdded mutationKind = iota
	mutationUpdated
	mutationDeleted
)

// notifyMutation fires the record event, then the collection-changed
// event, then the global data-changed event, in that order. The caller
// must not hold any collection lock.
func (s *Store) notifyMutation(kind mutationKind, collection string, rec Record) {
	s.obs.mu.Lock()
	var recordFns []RecordFunc
	switch kind {
	case mutationAdded:
		recordFns = append(recordFns, s.obs.added...)
	case mutationUpdated:
		recordFns = append(recordFns, s.obs.updated...)
	case mutationDeleted:
		recordFns = append(recordFns, s.obs.deleted...)
	}
	collectionFns := append([]CollectionFunc(nil), s.obs.collectionChanged...)
	dataFns := append([]func(){}, s.obs.dataChanged...)
	s.obs.mu.Unlock()

	for _, fn := range recordFns {
		s.safeCall(func() { fn(collection, rec.Clone()) })
	}
	for _, fn := range collectionFns {
		s.safeCall(func() { fn(collection) })
	}
	for _, fn := range dataFns {
		s.safeCall(fn)
	}
}

// notifySaveError fires the save-error list.
func (s *Store) notifySaveError(err error) {
	s.obs.mu.Lock()
	fns := append([]func(error){}, s.obs.saveError...)
	s.obs.mu.Unlock()

	for _, fn := range fns {
		s.safeCall(func() { fn(err) })
	}
}

// safeCall runs a subscriber callback, recovering and logging a panic.
// A misbehaving subscriber must not take the store down with it.
func (s *Store) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil && s.log != nil {
			s.log.Error("store subscriber panicked: %v", r)
		}
	}()
	fn()
}
