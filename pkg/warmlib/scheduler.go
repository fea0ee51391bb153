package warmlib

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// SchedulerOpts tunes a Scheduler. The zero value of each field picks
// the default, so the two historical site tunings (a chatty aggressive
// one and a quiet conservative one) are just two option sets over the
// same component.
type SchedulerOpts struct {
	// MaxConcurrent is the number of scheduler slots (default 4).
	MaxConcurrent int
	// FetchTimeout is the hard per-fetch deadline (default 45s).
	FetchTimeout time.Duration
	// Aggressive makes a tick fill every free slot; when false a tick
	// starts at most one new fetch.
	Aggressive bool
	// Verbose enables per-event logging.
	Verbose bool
	// StatusInterval enables periodic aggregate status logging when
	// positive.
	StatusInterval time.Duration
	// ProgressDelta is the minimum progress advance that triggers a
	// snapshot write (default 0.1).
	ProgressDelta float64
	// Bands overrides the priority bands; zero value uses defaults.
	Bands *Bands
	// Handlers are the scheduling event hooks; nil hooks are filled
	// with no-ops.
	Handlers *Handlers
}

// Status is the aggregate queue state exposed to debug tooling.
type Status struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	InFlight        int     `json:"inFlight"`
	Pending         int     `json:"pending"`
	Failed          int     `json:"failed"`
	PercentComplete float64 `json:"percentComplete"`
}

// Scheduler drains the priority queue through a bounded pool of
// background fetches. It never terminates on its own: entry failures
// free their slot and the scheduler stays ready for newly discovered
// or boosted entries for the life of the process. One instance exists
// per daemon, owned by the composition root.
type Scheduler struct {
	q       *Queue
	reg     *Registry
	calc    *Calculator
	tracker *ContextTracker
	witness *Witness
	store   *SnapshotStore
	fetcher Fetcher
	cfg     *SiteConfig
	opts    SchedulerOpts
	l       *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	playingURL string
	lastSaved  map[string]float64
	closed     bool

	// tickMu serializes scheduling passes so the free-slot check and
	// the claims that follow it are atomic across concurrent callers.
	tickMu sync.Mutex
}

// NewScheduler assembles a scheduler and its owned queue, registry,
// calculator and context tracker around the given collaborators.
func NewScheduler(cfg *SiteConfig, fetcher Fetcher, witness *Witness, store *SnapshotStore, l *log.Logger, opts SchedulerOpts) *Scheduler {
	if cfg == nil {
		cfg = &SiteConfig{}
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.ProgressDelta <= 0 {
		opts.ProgressDelta = DefaultProgressDelta
	}
	bands := DefaultBands()
	if opts.Bands != nil {
		bands = *opts.Bands
	}
	if opts.Handlers == nil {
		opts.Handlers = &Handlers{}
	}
	opts.Handlers.setDefault(l, opts.Verbose)

	q := NewQueue()
	if witness != nil && witness.InFlight == nil {
		witness.InFlight = q.IsClaimed
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		q:         q,
		reg:       NewRegistry(q),
		calc:      NewCalculator(cfg, bands),
		tracker:   NewContextTracker(cfg),
		witness:   witness,
		store:     store,
		fetcher:   fetcher,
		cfg:       cfg,
		opts:      opts,
		l:         l,
		ctx:       ctx,
		cancel:    cancel,
		lastSaved: make(map[string]float64),
	}
	s.tracker.OnPageChange(func(page string) {
		if s.opts.Verbose {
			s.l.Printf("page context changed to %q, reprioritizing", page)
		}
		s.Reprioritize()
		s.persist()
		s.tick()
	})
	return s
}

// Queue returns the scheduler's queue, mainly for status plumbing.
func (s *Scheduler) Queue() *Queue { return s.q }

// Tracker returns the scheduler's page-context tracker.
func (s *Scheduler) Tracker() *ContextTracker { return s.tracker }

// Start evicts expired cache records, restores the session snapshot if
// it is fresh enough, seeds the queue from the global catalog and
// begins filling the pool. Restored entries always come back Pending;
// their completion flag only survives when the witness still vouches
// for the bytes.
func (s *Scheduler) Start() {
	if s.witness != nil {
		s.witness.EvictExpired()
	}
	if s.store != nil {
		if snap := s.store.Restore(); snap != nil {
			s.rehydrate(snap)
		}
	}
	s.reg.RegisterGlobal(s.cfg.AllURLs())
	s.Reprioritize()
	s.tick()
	if s.opts.StatusInterval > 0 {
		safeGo(s.l, "status-log", nil, s.statusLogLoop)
	}
}

func (s *Scheduler) rehydrate(snap *Snapshot) {
	restored := 0
	for _, se := range snap.Entries {
		_, isNew := s.q.Upsert(se.URL, se.Origin, nil)
		s.q.SetPriority(se.URL, se.Priority)
		if se.Completed && s.witness != nil && s.witness.IsCached(se.URL) {
			s.q.MarkCompleted(se.URL)
		}
		if isNew {
			restored++
		}
	}
	if s.opts.Verbose {
		s.l.Printf("restored %d queued entries from session snapshot", restored)
	}
}

// ScanDocument feeds a page document through the registry and wakes
// the scheduler for whatever it found. It returns how many previously
// unknown URLs the scan contributed.
func (s *Scheduler) ScanDocument(doc io.Reader) (int, error) {
	if s.isClosed() {
		return 0, ErrSchedulerClosed
	}
	added, err := s.reg.Discover(doc)
	if err != nil {
		return 0, err
	}
	s.Reprioritize()
	s.tick()
	return len(added), nil
}

// AddElement registers one dynamically-inserted video element.
func (s *Scheduler) AddElement(el MediaElement) error {
	if s.isClosed() {
		return ErrSchedulerClosed
	}
	if _, err := s.reg.AddElement(el); err != nil {
		return err
	}
	s.Reprioritize()
	s.tick()
	return nil
}

// ReportPlaybackStart boosts url to the maximum band. An unknown URL
// is admitted first so an uncatalogued video the visitor started still
// gets warmed.
func (s *Scheduler) ReportPlaybackStart(url string) {
	s.q.Upsert(url, OriginPageDiscovered, nil)
	s.mu.Lock()
	s.playingURL = url
	s.mu.Unlock()
	s.Reprioritize()
	s.tick()
}

// ReportPlaybackStop clears the playing boost if url holds it.
func (s *Scheduler) ReportPlaybackStop(url string) {
	s.mu.Lock()
	if s.playingURL == url {
		s.playingURL = ""
	}
	s.mu.Unlock()
	s.Reprioritize()
	s.tick()
}

// ReportModalOpen registers a video the user explicitly opened in a
// modal, which puts it second only to the playing video.
func (s *Scheduler) ReportModalOpen(el MediaElement) error {
	if s.isClosed() {
		return ErrSchedulerClosed
	}
	src := el.PlayableSource()
	if src == "" {
		return ErrNoPlayableSource
	}
	s.q.Upsert(src, OriginModalRequested, &el)
	s.Reprioritize()
	s.tick()
	return nil
}

// Navigate records a reported document location; a page change
// reprioritizes the queue and re-ticks so the next slot claims follow
// the new page's ordering. In-flight fetches are never preempted.
func (s *Scheduler) Navigate(location string) {
	s.tracker.SetLocation(location)
}

// Reprioritize rescores the whole queue under the current context.
func (s *Scheduler) Reprioritize() {
	s.mu.Lock()
	playing := s.playingURL
	s.mu.Unlock()
	s.calc.Recompute(s.q, Context{Page: s.tracker.Current(), PlayingURL: playing})
}

// GetStatus returns the aggregate queue state.
func (s *Scheduler) GetStatus() Status {
	total, completed, inFlight, pending, failed := s.q.Counts()
	var pct float64
	if total > 0 {
		pct = float64(completed) * 100 / float64(total)
	}
	return Status{
		Total:           total,
		Completed:       completed,
		InFlight:        inFlight,
		Pending:         pending,
		Failed:          failed,
		PercentComplete: pct,
	}
}

// DumpQueue returns the queue in scheduling order for debug tooling.
func (s *Scheduler) DumpQueue() []EntryDump {
	return s.q.Dump()
}

// ClearPersistedState drops the session snapshot and the durable
// cache-info records, including warmed files.
func (s *Scheduler) ClearPersistedState() {
	if s.store != nil {
		s.store.Clear()
	}
	if s.witness != nil {
		s.witness.Clear()
	}
}

// Close saves a final snapshot (the page-unload analog), stops all
// in-flight fetch contexts and closes the witness.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.persist()
	s.cancel()
	if s.witness != nil {
		return s.witness.Close()
	}
	return nil
}

func (s *Scheduler) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// tick is one scheduling pass: sort the pending entries, then claim
// the top ones into free slots. Ticks run at start, after every
// completion, failure or timeout, and after any priority change, so a
// freed slot or a boost is picked up immediately. Claims are strictly
// by current priority at the moment a slot frees; priority changes
// after a claim never preempt the in-flight fetch.
func (s *Scheduler) tick() {
	if s.isClosed() {
		return
	}
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	launched := 0
	for _, url := range s.q.PendingURLs() {
		free := s.opts.MaxConcurrent - s.q.InFlight()
		if free <= 0 {
			return
		}
		if !s.opts.Aggressive && launched >= 1 {
			return
		}
		if s.witness != nil && s.witness.IsCached(url) {
			// Already warm within the expiry window; no download.
			s.q.MarkCompleted(url)
			s.opts.Handlers.CompleteHandler(url)
			continue
		}
		if !s.q.Claim(url) {
			continue
		}
		if s.opts.Verbose {
			s.l.Printf("claimed %s (%d in flight)", url, s.q.InFlight())
		}
		s.launchFetch(url)
		launched++
	}
}

func (s *Scheduler) launchFetch(url string) {
	fctx, cancel := context.WithTimeout(s.ctx, s.opts.FetchTimeout)
	onPanic := func(r any) {
		cancel()
		s.q.Release(url, StateFailed)
		s.tick()
	}
	safeGo(s.l, "fetch "+url, onPanic, func() {
		err := s.fetcher.Fetch(fctx, url, s.onProgress)
		if err != nil && fctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("fetch exceeded %s deadline: %w", s.opts.FetchTimeout, err)
		}
		cancel()
		s.notifyCompletion(url, err)
	})
}

// notifyCompletion resolves one in-flight entry. Failures are local:
// the slot is freed, the witness and snapshot are updated and the next
// pending entry proceeds on the refill tick.
func (s *Scheduler) notifyCompletion(url string, err error) {
	if err == nil {
		s.q.Release(url, StateCompleted)
		if s.witness != nil {
			s.witness.RecordCompletion(url)
		}
		s.opts.Handlers.CompleteHandler(url)
		if s.opts.Verbose {
			s.l.Printf("completed %s", url)
		}
		s.persist()
		s.tick()
		return
	}

	if s.cfg.IsRestrictedHost(url) && s.q.SpendFallback(url) {
		// The passive probe does not hold a slot; free it first so the
		// refill tick can proceed while the probe runs.
		s.q.Release(url, StateFailed)
		s.opts.Handlers.FallbackHandler(url)
		if s.opts.Verbose {
			s.l.Printf("direct fetch of %s refused (%v), trying passive probe", url, err)
		}
		s.persist()
		s.tick()
		s.launchProbe(url)
		return
	}

	s.q.Release(url, StateFailed)
	s.opts.Handlers.ErrorHandler(url, err)
	s.persist()
	s.tick()
}

func (s *Scheduler) launchProbe(url string) {
	pctx, cancel := context.WithTimeout(s.ctx, s.opts.FetchTimeout)
	safeGo(s.l, "probe "+url, func(r any) { cancel() }, func() {
		defer cancel()
		if err := s.fetcher.Probe(pctx, url); err != nil {
			s.opts.Handlers.ErrorHandler(url, err)
			return
		}
		s.q.MarkCompleted(url)
		if s.witness != nil {
			s.witness.RecordCompletion(url)
		}
		s.opts.Handlers.CompleteHandler(url)
		s.persist()
	})
}

func (s *Scheduler) onProgress(url string, frac float64) {
	if !s.q.UpdateProgress(url, frac) {
		return
	}
	s.opts.Handlers.ProgressHandler(url, frac)
	s.mu.Lock()
	last := s.lastSaved[url]
	coarse := frac-last >= s.opts.ProgressDelta || frac >= 1
	if coarse {
		s.lastSaved[url] = frac
	}
	s.mu.Unlock()
	if coarse {
		s.persist()
	}
}

// persist writes the current queue projection through the snapshot
// store. Storage errors never reach the scheduler.
func (s *Scheduler) persist() {
	if s.store == nil {
		return
	}
	s.store.Save(Snapshot{
		Page:    s.tracker.Current(),
		Entries: s.q.SnapshotEntries(),
	})
}

func (s *Scheduler) statusLogLoop() {
	ticker := time.NewTicker(s.opts.StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			st := s.GetStatus()
			s.l.Printf("queue: %d total, %d completed, %d in flight, %d pending (%.0f%%)",
				st.Total, st.Completed, st.InFlight, st.Pending, st.PercentComplete)
		}
	}
}
