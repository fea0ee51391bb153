package warmlib

// Bands are the coarse priority ranges used to order scheduling
// categories: playing > modal > current-page-configured > merely
// discovered. The exact values are tunable; only their ordering is
// load-bearing, and the page band must leave room below its base for
// one deduction per configured list position.
type Bands struct {
	// Playing is the reserved top value for the entry bound to the
	// video the visitor is watching right now.
	Playing int
	// ModalOffset is subtracted from Playing for modal-requested
	// entries, keeping them second only to the playing video.
	ModalOffset int
	// PageBase is the base for entries listed in the current page's
	// catalog; the position in the list is subtracted so the declared
	// order is the tie-break.
	PageBase int
	// Discovered is the base for everything else on the page.
	Discovered int
	// VisibleBonus is added to a discovered entry whose element is
	// within the viewport.
	VisibleBonus int
	// EarlyBonus is added to a discovered entry that was among the
	// first EarlyCount elements found on its page.
	EarlyBonus int
	// EarlyCount bounds how many elements count as "early".
	EarlyCount int
}

// DefaultBands returns the default priority bands.
func DefaultBands() Bands {
	return Bands{
		Playing:      1000,
		ModalOffset:  10,
		PageBase:     500,
		Discovered:   100,
		VisibleBonus: 20,
		EarlyBonus:   10,
		EarlyCount:   3,
	}
}

// Context is the page state a score is computed against.
type Context struct {
	// Page is the current logical page identifier.
	Page string
	// PlayingURL is the URL reported by the most recent playback-start
	// event, empty when nothing is playing.
	PlayingURL string
}

// Calculator assigns priorities to queue entries from the current page
// context. Scoring is pure; recomputation is O(n) over the queue.
type Calculator struct {
	bands Bands
	cfg   *SiteConfig
}

// NewCalculator returns a calculator over the given site catalog.
func NewCalculator(cfg *SiteConfig, bands Bands) *Calculator {
	return &Calculator{bands: bands, cfg: cfg}
}

// Score computes the priority of e under ctx. The tiers are exclusive
// and evaluated highest first; only the discovered tier adds bonuses.
func (c *Calculator) Score(e *Entry, ctx Context) int {
	if ctx.PlayingURL != "" && e.URL == ctx.PlayingURL {
		return c.bands.Playing
	}
	if e.Element != nil && e.Element.Playing {
		return c.bands.Playing
	}
	if e.Origin == OriginModalRequested {
		return c.bands.Playing - c.bands.ModalOffset
	}
	if pos, ok := c.cfg.Position(ctx.Page, e.URL); ok {
		return c.bands.PageBase - pos
	}
	score := c.bands.Discovered
	if e.Element != nil {
		if e.Element.Visible {
			score += c.bands.VisibleBonus
		}
		if e.Element.Index < c.bands.EarlyCount {
			score += c.bands.EarlyBonus
		}
	}
	return score
}

// Recompute rescores every entry in the queue under ctx. Relative
// discovery order is untouched, so equal scores keep their stable
// ordering when the scheduler sorts.
func (c *Calculator) Recompute(q *Queue, ctx Context) {
	q.Each(func(e *Entry) {
		e.Priority = c.Score(e, ctx)
	})
}
