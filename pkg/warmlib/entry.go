// Package warmlib implements the core of the prewarm daemon: a
// priority-ordered queue of video URLs, a bounded-concurrency fetch
// scheduler that warms a local cache, a short-lived session snapshot
// of queue state and a longer-lived witness of completed downloads.
package warmlib

import "time"

// EntryState describes the lifecycle stage of a queue entry.
type EntryState int32

const (
	// StatePending means the entry is waiting for a scheduler slot.
	StatePending EntryState = iota
	// StateDownloading means a fetch for the entry is in flight.
	StateDownloading
	// StateCompleted means the entry's bytes are in the warm cache.
	StateCompleted
	// StateFailed means the fetch (and any fallback probe) failed.
	StateFailed
)

// String returns a human-readable name for the state.
func (s EntryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDownloading:
		return "downloading"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Origin records how an entry first entered the queue. It affects the
// entry's priority floor.
type Origin int32

const (
	// OriginPageDiscovered marks entries found by scanning a page document.
	OriginPageDiscovered Origin = iota
	// OriginGlobalConfig marks entries from the site-wide promotional catalog.
	OriginGlobalConfig
	// OriginModalRequested marks entries a user explicitly opened in a modal.
	OriginModalRequested
)

// String returns a human-readable name for the origin.
func (o Origin) String() string {
	switch o {
	case OriginPageDiscovered:
		return "page"
	case OriginGlobalConfig:
		return "global"
	case OriginModalRequested:
		return "modal"
	default:
		return "unknown"
	}
}

// Entry is one tracked video URL and its scheduling metadata.
// Entries are unique per URL; rediscovering a known URL updates the
// existing entry in place rather than inserting a second one.
type Entry struct {
	// URL is the entry's source URL, the unique key within the queue.
	URL string `json:"url"`
	// Priority orders scheduling; higher runs first. Recomputed on
	// every context change.
	Priority int `json:"priority"`
	// State is the entry's lifecycle stage.
	State EntryState `json:"state"`
	// Progress is the fetched fraction, 0.0 to 1.0, monotonically
	// non-decreasing while downloading.
	Progress float64 `json:"progress"`
	// Origin records how the entry was first discovered.
	Origin Origin `json:"origin"`
	// Element is the page element the entry was discovered from, if any.
	// Entries from the global catalog have no bound element until the
	// page reports one.
	Element *MediaElement `json:"element,omitempty"`
	// Seq is the entry's discovery sequence number, used as the stable
	// tie-break between equal priorities.
	Seq int64 `json:"seq"`
	// DateAdded is when the entry was first discovered.
	DateAdded time.Time `json:"date_added"`
	// FallbackTried records that the one passive-probe retry has been
	// spent; a failed entry is not retried beyond it.
	FallbackTried bool `json:"fallback_tried"`
}

// setProgress advances Progress, never letting it regress.
func (e *Entry) setProgress(frac float64) {
	if frac > e.Progress {
		e.Progress = frac
	}
}

// EntryDump is the human-inspectable projection of an entry exposed to
// debug tooling.
type EntryDump struct {
	URL      string  `json:"url"`
	Priority int     `json:"priority"`
	State    string  `json:"state"`
	Origin   string  `json:"origin"`
	Progress float64 `json:"progress"`
}
