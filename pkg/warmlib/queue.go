package warmlib

import (
	"sort"
	"sync"
	"time"
)

// Queue owns the ordered set of entries, the per-URL claim set and the
// in-flight count. It is the single shared scheduling state for a
// daemon instance; all entry mutation happens under its mutex, so
// callers never touch Entry fields directly once an entry is queued.
type Queue struct {
	mu      sync.RWMutex
	entries []*Entry
	byURL   map[string]*Entry
	claimed map[string]struct{}
	seq     int64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		byURL:   make(map[string]*Entry),
		claimed: make(map[string]struct{}),
	}
}

// Upsert returns the entry for url, creating it when unknown. The
// returned bool is true when a new entry was inserted. Rediscovering a
// known URL never duplicates it; a known entry is only upgraded in
// place: a bound element is refreshed with the latest reported state
// so visibility and playback changes feed the next recompute, and a
// modal-requested origin overrides a weaker one since the user asked
// for it explicitly.
func (q *Queue) Upsert(url string, origin Origin, el *MediaElement) (*Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.byURL[url]; ok {
		if el != nil {
			if e.Element != nil {
				// The discovery position is fixed at first sight; only
				// the reported flags move.
				el.Index = e.Element.Index
			}
			e.Element = el
		}
		if origin == OriginModalRequested {
			e.Origin = OriginModalRequested
		}
		return e, false
	}
	e := &Entry{
		URL:       url,
		State:     StatePending,
		Origin:    origin,
		Element:   el,
		Seq:       q.seq,
		DateAdded: time.Now(),
	}
	q.seq++
	q.entries = append(q.entries, e)
	q.byURL[url] = e
	return e, true
}

// Has reports whether url is known to the queue.
func (q *Queue) Has(url string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.byURL[url]
	return ok
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// SetPriority overrides the priority of url's entry, if present.
func (q *Queue) SetPriority(url string, priority int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byURL[url]
	if !ok {
		return false
	}
	e.Priority = priority
	return true
}

// State returns the state of url's entry; ok is false for unknown URLs.
func (q *Queue) State(url string) (state EntryState, ok bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	e, ok := q.byURL[url]
	if !ok {
		return 0, false
	}
	return e.State, true
}

// Claim marks url as having an in-flight fetch and moves its entry to
// StateDownloading. It returns false if the entry is unknown, already
// claimed, or not pending, so a second request for an outstanding URL
// is a no-op that cannot double-count against the concurrency bound.
func (q *Queue) Claim(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byURL[url]
	if !ok {
		return false
	}
	if _, dup := q.claimed[url]; dup {
		return false
	}
	if e.State != StatePending {
		return false
	}
	q.claimed[url] = struct{}{}
	e.State = StateDownloading
	return true
}

// Release frees the slot held by url and records its final state.
func (q *Queue) Release(url string, final EntryState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.claimed, url)
	if e, ok := q.byURL[url]; ok {
		e.State = final
		if final == StateCompleted {
			e.Progress = 1
		}
	}
}

// MarkCompleted records url as done without it ever holding a slot,
// used when the witness already vouches for the bytes.
func (q *Queue) MarkCompleted(url string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.byURL[url]; ok {
		e.State = StateCompleted
		e.Progress = 1
	}
}

// IsClaimed reports whether url currently holds a scheduler slot.
func (q *Queue) IsClaimed(url string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.claimed[url]
	return ok
}

// InFlight returns the number of claimed URLs.
func (q *Queue) InFlight() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.claimed)
}

// UpdateProgress advances url's progress fraction, which never
// regresses. It reports whether the entry exists and its progress
// actually moved.
func (q *Queue) UpdateProgress(url string, frac float64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byURL[url]
	if !ok || frac <= e.Progress {
		return false
	}
	e.setProgress(frac)
	return true
}

// SpendFallback is the test-and-set for the single passive-probe
// retry: it returns true exactly once per entry.
func (q *Queue) SpendFallback(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byURL[url]
	if !ok || e.FallbackTried {
		return false
	}
	e.FallbackTried = true
	return true
}

// PendingURLs returns the URLs of pending, unclaimed entries in
// scheduling order: priority descending with discovery order as the
// stable tie-break. The projection is taken under the lock, so a
// concurrent recompute cannot tear the sort.
func (q *Queue) PendingURLs() []string {
	type pend struct {
		url      string
		priority int
		seq      int64
	}
	q.mu.RLock()
	pending := make([]pend, 0, len(q.entries))
	for _, e := range q.entries {
		if e.State != StatePending {
			continue
		}
		if _, claimed := q.claimed[e.URL]; claimed {
			continue
		}
		pending = append(pending, pend{e.URL, e.Priority, e.Seq})
	}
	q.mu.RUnlock()
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].priority != pending[j].priority {
			return pending[i].priority > pending[j].priority
		}
		return pending[i].seq < pending[j].seq
	})
	urls := make([]string, len(pending))
	for i, p := range pending {
		urls[i] = p.url
	}
	return urls
}

// Each calls f for every entry under the queue lock, in discovery
// order. f must not call back into the queue.
func (q *Queue) Each(f func(e *Entry)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		f(e)
	}
}

// Counts returns the aggregate queue totals for status queries.
func (q *Queue) Counts() (total, completed, inFlight, pending, failed int) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	total = len(q.entries)
	for _, e := range q.entries {
		switch e.State {
		case StateCompleted:
			completed++
		case StateDownloading:
			inFlight++
		case StateFailed:
			failed++
		default:
			pending++
		}
	}
	return
}

// SnapshotEntries returns the persistable projection of the queue in
// discovery order.
func (q *Queue) SnapshotEntries() []SnapshotEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]SnapshotEntry, len(q.entries))
	for i, e := range q.entries {
		out[i] = SnapshotEntry{
			URL:       e.URL,
			Priority:  e.Priority,
			Origin:    e.Origin,
			Completed: e.State == StateCompleted,
		}
	}
	return out
}

// Dump returns the debug projection of every entry, sorted the same
// way the scheduler would claim them.
func (q *Queue) Dump() []EntryDump {
	type row struct {
		d   EntryDump
		seq int64
	}
	q.mu.RLock()
	rows := make([]row, len(q.entries))
	for i, e := range q.entries {
		rows[i] = row{
			d: EntryDump{
				URL:      e.URL,
				Priority: e.Priority,
				State:    e.State.String(),
				Origin:   e.Origin.String(),
				Progress: e.Progress,
			},
			seq: e.Seq,
		}
	}
	q.mu.RUnlock()
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].d.Priority != rows[j].d.Priority {
			return rows[i].d.Priority > rows[j].d.Priority
		}
		return rows[i].seq < rows[j].seq
	})
	dump := make([]EntryDump, len(rows))
	for i, r := range rows {
		dump[i] = r.d
	}
	return dump
}
