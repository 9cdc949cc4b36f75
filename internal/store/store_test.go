package store

import (
	"errors"
	"sync"
	"testing"
)

// memAdapter is an in-memory persistence adapter with injectable
// failures for exercising rollback paths.
type memAdapter struct {
	mu       sync.Mutex
	data     map[string][]Record
	failLoad error
	failSave error
	saves    int
	loads    int
}

func newMemAdapter() *memAdapter {
	return &memAdapter{data: make(map[string][]Record)}
}

func (a *memAdapter) Load() (map[string][]Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loads++
	if a.failLoad != nil {
		return nil, a.failLoad
	}
	out := make(map[string][]Record, len(a.data))
	for name, recs := range a.data {
		out[name] = cloneRecords(recs)
	}
	return out, nil
}

func (a *memAdapter) Save(data map[string][]Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saves++
	if a.failSave != nil {
		return a.failSave
	}
	a.data = make(map[string][]Record, len(data))
	for name, recs := range data {
		a.data[name] = cloneRecords(recs)
	}
	return nil
}

var taskRules = Rules{
	Required: []string{"title"},
	Types: map[string]FieldType{
		"title": FieldTypeString,
		"done":  FieldTypeBoolean,
		"rank":  FieldTypeInteger,
		"tags":  FieldTypeList,
	},
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *memAdapter) {
	t.Helper()
	adapter := newMemAdapter()
	s, err := New(adapter, map[string]Rules{"tasks": taskRules}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, adapter
}

func TestAddUpdateDeleteScenario(t *testing.T) {
	s, _ := newTestStore(t)

	added, err := s.Add("tasks", Record{"title": "Buy milk"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID() == "" {
		t.Fatal("Add should assign an identifier")
	}

	all, err := s.GetAll("tasks")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 || all[0]["title"] != "Buy milk" {
		t.Fatalf("GetAll = %+v, want one Buy milk record", all)
	}

	if _, err := s.Update("tasks", added.ID(), Record{"title": "Buy oat milk"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.GetByID("tasks", added.ID())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got["title"] != "Buy oat milk" {
		t.Errorf("title = %v, want Buy oat milk", got["title"])
	}

	if err := s.Delete("tasks", added.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, _ = s.GetAll("tasks")
	if len(all) != 0 {
		t.Errorf("GetAll after delete = %d records, want 0", len(all))
	}
}

func TestAddStampsTimestamps(t *testing.T) {
	s, _ := newTestStore(t)
	rec, err := s.Add("tasks", Record{"title": "x"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if rec[FieldCreatedAt] == nil || rec[FieldModifiedAt] == nil {
		t.Errorf("timestamps not stamped: %+v", rec)
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	s, _ := newTestStore(t)
	rec, _ := s.Add("tasks", Record{"title": "first"})

	_, err := s.Add("tasks", Record{FieldID: rec.ID(), "title": "second"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("error = %v, want ErrDuplicateID", err)
	}
	if n, _ := s.Count("tasks"); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestValidationCollectsAllViolations(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add("tasks", Record{"done": "yes", "rank": "first"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	// Missing title, wrong done type, wrong rank type: all reported.
	if len(verr.Violations) != 3 {
		t.Errorf("violations = %v, want 3 entries", verr.Violations)
	}
	if n, _ := s.Count("tasks"); n != 0 {
		t.Error("failed Add must not mutate the collection")
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	s, _ := newTestStore(t)
	rec, _ := s.Add("tasks", Record{"title": "keep me", "done": false})

	before, _ := s.GetByID("tasks", rec.ID())

	// One valid change and one invalid one: nothing may be applied.
	_, err := s.Update("tasks", rec.ID(), Record{"done": true, "title": ""})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}

	after, _ := s.GetByID("tasks", rec.ID())
	if after["done"] != before["done"] || after["title"] != before["title"] {
		t.Errorf("record partially mutated: before %+v, after %+v", before, after)
	}
	if after[FieldModifiedAt] != before[FieldModifiedAt] {
		t.Error("failed update must not re-stamp the record")
	}
}

func TestUpdateRejectsIdentifierChange(t *testing.T) {
	s, _ := newTestStore(t)
	rec, _ := s.Add("tasks", Record{"title": "x"})

	_, err := s.Update("tasks", rec.ID(), Record{FieldID: "other"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestNotFoundErrors(t *testing.T) {
	s, _ := newTestStore(t)

	var nf *NotFoundError
	if _, err := s.GetByID("tasks", "missing"); !errors.As(err, &nf) {
		t.Errorf("GetByID error = %v, want NotFoundError", err)
	}
	if _, err := s.Update("tasks", "missing", Record{"title": "x"}); !errors.As(err, &nf) {
		t.Errorf("Update error = %v, want NotFoundError", err)
	}
	if err := s.Delete("tasks", "missing"); !errors.As(err, &nf) {
		t.Errorf("Delete error = %v, want NotFoundError", err)
	}

	var uc *UnknownCollectionError
	if _, err := s.GetAll("nope"); !errors.As(err, &uc) {
		t.Errorf("GetAll error = %v, want UnknownCollectionError", err)
	}
}

func TestGetAllReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	rec, _ := s.Add("tasks", Record{"title": "original"})

	all, _ := s.GetAll("tasks")
	all[0]["title"] = "tampered"

	got, _ := s.GetByID("tasks", rec.ID())
	if got["title"] != "original" {
		t.Error("mutating a GetAll result must not affect the store")
	}
}

func TestEventOrderAndPayload(t *testing.T) {
	s, _ := newTestStore(t)

	var order []string
	s.OnAdded(func(collection string, rec Record) {
		order = append(order, "added:"+collection+":"+rec["title"].(string))
	})
	s.OnCollectionChanged(func(collection string) {
		order = append(order, "changed:"+collection)
	})
	s.OnDataChanged(func() {
		order = append(order, "data")
	})

	if _, err := s.Add("tasks", Record{"title": "evt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	want := []string{"added:tasks:evt", "changed:tasks", "data"}
	if len(order) != len(want) {
		t.Fatalf("events = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("events = %v, want %v", order, want)
		}
	}
}

func TestNoEventsOnFailedMutation(t *testing.T) {
	s, _ := newTestStore(t)

	fired := false
	s.OnAdded(func(string, Record) { fired = true })
	s.OnDataChanged(func() { fired = true })

	if _, err := s.Add("tasks", Record{}); err == nil {
		t.Fatal("expected validation failure")
	}
	if fired {
		t.Error("events fired for a failed mutation")
	}
}

func TestCallbackMayReenterStore(t *testing.T) {
	s, _ := newTestStore(t)

	var seen int
	s.OnAdded(func(collection string, _ Record) {
		// Dispatch happens outside the collection lock, so this
		// re-entrant read must not deadlock.
		all, err := s.GetAll(collection)
		if err != nil {
			t.Errorf("re-entrant GetAll: %v", err)
		}
		seen = len(all)
	})

	if _, err := s.Add("tasks", Record{"title": "reenter"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if seen != 1 {
		t.Errorf("re-entrant read saw %d records, want 1", seen)
	}
}

func TestSubscriberPanicIsContained(t *testing.T) {
	s, _ := newTestStore(t)
	s.OnAdded(func(string, Record) { panic("rogue subscriber") })

	if _, err := s.Add("tasks", Record{"title": "still fine"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if n, _ := s.Count("tasks"); n != 1 {
		t.Error("mutation should survive a panicking subscriber")
	}
}

func TestRollbackOnSaveFailure(t *testing.T) {
	s, adapter := newTestStore(t, WithAutoSave(false))
	s.Add("tasks", Record{"title": "a"})
	s.Add("tasks", Record{"title": "b"})

	before, _ := s.GetAll("tasks")
	beforeDigest, _ := s.Digest("tasks")

	var notified error
	s.OnSaveError(func(err error) { notified = err })

	wantErr := errors.New("disk full")
	adapter.failSave = wantErr

	err := s.Save()
	if !errors.Is(err, wantErr) {
		t.Fatalf("Save error = %v, want wrapped %v", err, wantErr)
	}
	var serr *SaveError
	if !errors.As(err, &serr) {
		t.Errorf("Save error = %T, want *SaveError", err)
	}
	if !errors.Is(notified, wantErr) {
		t.Errorf("save-error callback got %v, want %v", notified, wantErr)
	}

	after, _ := s.GetAll("tasks")
	afterDigest, _ := s.Digest("tasks")
	if beforeDigest != afterDigest || len(before) != len(after) {
		t.Error("in-memory state changed across a failed save")
	}
	if !s.Dirty() {
		t.Error("store should remain dirty after a failed save")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, adapter := newTestStore(t)
	a, _ := s.Add("tasks", Record{"title": "one", "tags": []any{"x", "y"}})
	b, _ := s.Add("tasks", Record{"title": "two", "done": true})

	// Auto-save persisted both; a fresh store over the same adapter
	// must reproduce the records.
	s2, err := New(adapter, map[string]Rules{"tasks": taskRules})
	if err != nil {
		t.Fatalf("New over existing data: %v", err)
	}

	for _, want := range []Record{a, b} {
		got, err := s2.GetByID("tasks", want.ID())
		if err != nil {
			t.Fatalf("GetByID after reload: %v", err)
		}
		if got["title"] != want["title"] {
			t.Errorf("title = %v, want %v", got["title"], want["title"])
		}
	}
}

func TestAutoSaveOffAccumulatesThenFlushes(t *testing.T) {
	s, adapter := newTestStore(t, WithAutoSave(false))

	initialSaves := adapter.saves
	s.Add("tasks", Record{"title": "a"})
	s.Add("tasks", Record{"title": "b"})
	s.Add("tasks", Record{"title": "c"})

	if adapter.saves != initialSaves {
		t.Errorf("mutations saved eagerly with auto-save off (%d saves)", adapter.saves-initialSaves)
	}
	if !s.Dirty() {
		t.Error("store should be dirty before flush")
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if adapter.saves != initialSaves+1 {
		t.Errorf("Flush performed %d saves, want 1", adapter.saves-initialSaves)
	}
	if s.Dirty() {
		t.Error("store should be clean after flush")
	}

	// A second flush with nothing pending is a no-op.
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if adapter.saves != initialSaves+1 {
		t.Error("empty flush should not save")
	}
}

func TestInitialLoadFailureIsFatal(t *testing.T) {
	adapter := newMemAdapter()
	adapter.failLoad = errors.New("corrupt file")

	if _, err := New(adapter, map[string]Rules{"tasks": taskRules}); err == nil {
		t.Fatal("New should fail when the initial load fails")
	}
}

func TestReloadFailureKeepsState(t *testing.T) {
	s, adapter := newTestStore(t)
	s.Add("tasks", Record{"title": "survivor"})

	adapter.failLoad = errors.New("transient")
	if err := s.Load(); err == nil {
		t.Fatal("Load should report the adapter failure")
	}

	all, _ := s.GetAll("tasks")
	if len(all) != 1 || all[0]["title"] != "survivor" {
		t.Errorf("state lost on failed reload: %+v", all)
	}
}

func TestDigestTracksChanges(t *testing.T) {
	s, _ := newTestStore(t)

	d1, _ := s.Digest("tasks")
	d2, _ := s.Digest("tasks")
	if d1 != d2 {
		t.Error("digest should be stable without mutation")
	}

	rec, _ := s.Add("tasks", Record{"title": "x"})
	d3, _ := s.Digest("tasks")
	if d3 == d1 {
		t.Error("digest should change after Add")
	}

	s.Update("tasks", rec.ID(), Record{"title": "y"})
	d4, _ := s.Digest("tasks")
	if d4 == d3 {
		t.Error("digest should change after Update")
	}
}

func TestSaveEpochAdvancesOnlyOnSuccess(t *testing.T) {
	s, adapter := newTestStore(t, WithAutoSave(false))
	s.Add("tasks", Record{"title": "x"})

	e0 := s.SaveEpoch()
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.SaveEpoch() != e0+1 {
		t.Error("epoch should advance on successful save")
	}

	adapter.failSave = errors.New("nope")
	s.Save()
	if s.SaveEpoch() != e0+1 {
		t.Error("epoch must not advance on failed save")
	}
}
