package warmlib

import (
	"net/url"
	"path"
	"strings"
	"sync"
)

// HomePageID is the identifier unrecognized locations fall back to.
const HomePageID = "home"

// ContextTracker maps reported document locations onto the closed set
// of configured page identifiers and fires callbacks when the logical
// page changes. Pages report navigation explicitly (covering both
// history-API navigation and initial load), so the tracker needs no
// ambient location watching.
type ContextTracker struct {
	mu      sync.Mutex
	known   map[string]struct{}
	current string
	cbs     []func(page string)
}

// NewContextTracker returns a tracker over the pages the site config
// declares. The current page starts at home.
func NewContextTracker(cfg *SiteConfig) *ContextTracker {
	known := make(map[string]struct{})
	for _, id := range cfg.PageIDs() {
		known[id] = struct{}{}
	}
	return &ContextTracker{known: known, current: HomePageID}
}

// Current returns the current logical page identifier.
func (t *ContextTracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// OnPageChange registers cb to run whenever the logical page changes.
// Callbacks run synchronously on the reporting call, after the new
// identifier is recorded.
func (t *ContextTracker) OnPageChange(cb func(page string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cbs = append(t.cbs, cb)
}

// SetLocation records a reported document location. When the mapped
// identifier differs from the current page, the change callbacks fire.
func (t *ContextTracker) SetLocation(location string) {
	id := t.PageForLocation(location)
	t.mu.Lock()
	if id == t.current {
		t.mu.Unlock()
		return
	}
	t.current = id
	cbs := make([]func(page string), len(t.cbs))
	copy(cbs, t.cbs)
	t.mu.Unlock()
	for _, cb := range cbs {
		cb(id)
	}
}

// PageForLocation maps a document location onto a page identifier.
// The last path segment, stripped of its extension, names the page;
// empty and index paths and anything outside the configured set map
// to home.
func (t *ContextTracker) PageForLocation(location string) string {
	parsed, err := url.Parse(location)
	if err != nil {
		return HomePageID
	}
	base := path.Base(parsed.Path)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.ToLower(base)
	if base == "" || base == "." || base == "/" || base == "index" {
		return HomePageID
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.known[base]; ok {
		return base
	}
	return HomePageID
}
