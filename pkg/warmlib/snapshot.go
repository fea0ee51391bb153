package warmlib

import (
	"bytes"
	"encoding/gob"
	"log"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// SnapshotEntry is the persisted projection of one queue entry. Only
// the URL, its last priority and the completion flag survive a
// navigation; in-flight progress is not resumable.
type SnapshotEntry struct {
	URL       string
	Priority  int
	Origin    Origin
	Completed bool
}

// Snapshot is the serializable projection of queue state written on
// significant state changes and before shutdown, and read once at
// startup.
type Snapshot struct {
	SavedAt time.Time
	Page    string
	Entries []SnapshotEntry
}

// SnapshotStore persists queue snapshots to a session-scoped file.
// Snapshots older than the staleness threshold are discarded on
// restore, so a long-abandoned session starts from scratch. Store
// failures are logged and swallowed: the scheduler is correct without
// persistence, it only loses cross-navigation continuation.
type SnapshotStore struct {
	fs     afero.Fs
	path   string
	maxAge time.Duration
	cap    int
	l      *log.Logger
	mu     sync.Mutex
}

// SnapshotStoreOpts tunes a snapshot store.
type SnapshotStoreOpts struct {
	// MaxAge overrides the staleness threshold (default 5 minutes).
	MaxAge time.Duration
	// Cap bounds how many entries a snapshot records (default 100).
	Cap int
}

// NewSnapshotStore returns a store writing to path on fs.
func NewSnapshotStore(fs afero.Fs, path string, l *log.Logger, opts *SnapshotStoreOpts) *SnapshotStore {
	if opts == nil {
		opts = &SnapshotStoreOpts{}
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultSnapshotMaxAge
	}
	if opts.Cap <= 0 {
		opts.Cap = DefaultSnapshotCap
	}
	return &SnapshotStore{
		fs:     fs,
		path:   path,
		maxAge: opts.MaxAge,
		cap:    opts.Cap,
		l:      l,
	}
}

// Save persists the snapshot, stamping it with the current time and
// capping the entry list. It never returns an error; quota and
// serialization failures are logged and the daemon proceeds as if
// persistence were a no-op.
func (st *SnapshotStore) Save(snap Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap.SavedAt = time.Now()
	if len(snap.Entries) > st.cap {
		snap.Entries = snap.Entries[:st.cap]
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		st.l.Printf("snapshot: encode failed, skipping save: %v", err)
		return
	}
	tmp := st.path + ".tmp"
	if err := afero.WriteFile(st.fs, tmp, buf.Bytes(), 0644); err != nil {
		st.l.Printf("snapshot: write failed, skipping save: %v", err)
		return
	}
	if err := st.fs.Rename(tmp, st.path); err != nil {
		st.l.Printf("snapshot: rename failed, skipping save: %v", err)
	}
}

// Restore reads and validates the persisted snapshot. It returns nil
// when no snapshot exists, when it cannot be decoded, or when its age
// exceeds the staleness threshold; a stale or corrupt file is removed
// so it is not retried.
func (st *SnapshotStore) Restore() *Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	raw, err := afero.ReadFile(st.fs, st.path)
	if err != nil {
		if !os.IsNotExist(err) {
			st.l.Printf("snapshot: read failed: %v", err)
		}
		return nil
	}
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		st.l.Printf("snapshot: corrupt, discarding: %v", err)
		_ = st.fs.Remove(st.path)
		return nil
	}
	if time.Since(snap.SavedAt) > st.maxAge {
		st.l.Printf("snapshot: stale (saved %s ago), discarding", time.Since(snap.SavedAt).Round(time.Second))
		_ = st.fs.Remove(st.path)
		return nil
	}
	return &snap
}

// Clear removes the persisted snapshot.
func (st *SnapshotStore) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.fs.Remove(st.path); err != nil && !os.IsNotExist(err) {
		st.l.Printf("snapshot: clear failed: %v", err)
	}
}
