package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeSource records reload calls and lets tests move the save epoch
// to simulate the store's own writes.
type fakeSource struct {
	mu      sync.Mutex
	loads   int
	loadErr error
	epoch   atomic.Uint64
}

func (f *fakeSource) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.loadErr
}

func (f *fakeSource) SaveEpoch() uint64 {
	return f.epoch.Load()
}

func (f *fakeSource) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func startWatcher(t *testing.T, src *fakeSource, path string) *Watcher {
	t.Helper()
	w := New(src, path, WithDebounce(50*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestExternalWriteTriggersReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{}
	w := startWatcher(t, src, path)

	if err := os.WriteFile(path, []byte(`{"tasks": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return w.Reloads() == 1 })
	if src.loadCount() != 1 {
		t.Errorf("loads = %d, want 1", src.loadCount())
	}
}

func TestBurstCoalescesToOneReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	src := &fakeSource{}
	w := startWatcher(t, src, path)

	// Several writes in quick succession count as one logical change.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return w.Reloads() >= 1 })
	time.Sleep(150 * time.Millisecond)
	if got := w.Reloads(); got != 1 {
		t.Errorf("reloads = %d, want 1", got)
	}
}

func TestRenameReplaceTriggersReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{}
	w := startWatcher(t, src, path)

	// Atomic replace, the way editors and the store itself write.
	tmp := filepath.Join(dir, ".tasks.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"tasks": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return w.Reloads() == 1 })
}

func TestOwnSaveIsNotReloaded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	src := &fakeSource{}
	w := startWatcher(t, src, path)

	// The store saves: the file changes and the epoch advances.
	src.epoch.Add(1)
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return w.Skipped() == 1 })
	if src.loadCount() != 0 {
		t.Errorf("loads = %d, want 0 for a self-write", src.loadCount())
	}

	// A later external write must still reload.
	if err := os.WriteFile(path, []byte(`{"tasks": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return w.Reloads() == 1 })
}

func TestUnrelatedFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	src := &fakeSource{}
	w := startWatcher(t, src, path)

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if w.Reloads() != 0 {
		t.Errorf("reloads = %d, want 0 for an unrelated file", w.Reloads())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{}
	w := New(src, filepath.Join(dir, "tasks.json"), WithDebounce(20*time.Millisecond))

	// Stop before Start is a no-op.
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
