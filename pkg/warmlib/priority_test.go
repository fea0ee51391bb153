package warmlib

import "testing"

func testSiteConfig() *SiteConfig {
	return &SiteConfig{
		Pages: map[string][]string{
			"home":      {"https://cdn.skyreel.test/hero.mp4", "https://cdn.skyreel.test/reel.mp4"},
			"portfolio": {"https://cdn.skyreel.test/portfolio.mp4"},
		},
	}
}

// TestScorePlayingSupremacy tests that the playing video outranks every
// other category, whether reported by URL or marked on its element.
func TestScorePlayingSupremacy(t *testing.T) {
	calc := NewCalculator(testSiteConfig(), DefaultBands())
	ctx := Context{Page: "home", PlayingURL: "https://cdn.skyreel.test/hero.mp4"}

	playing := &Entry{URL: "https://cdn.skyreel.test/hero.mp4"}
	modal := &Entry{URL: "m", Origin: OriginModalRequested}
	paged := &Entry{URL: "https://cdn.skyreel.test/reel.mp4"}
	discovered := &Entry{URL: "d", Element: &MediaElement{Visible: true, Index: 0}}

	ps := calc.Score(playing, ctx)
	for _, e := range []*Entry{modal, paged, discovered} {
		if s := calc.Score(e, ctx); s >= ps {
			t.Fatalf("expected playing score %d above %s score %d", ps, e.URL, s)
		}
	}

	// Element-reported playback gets the same band.
	marked := &Entry{URL: "x", Element: &MediaElement{Playing: true}}
	if s := calc.Score(marked, Context{Page: "home"}); s != ps {
		t.Fatalf("expected element-playing score %d, got %d", ps, s)
	}
}

// TestScoreModalAbovePage tests that a modal-requested entry ranks above
// page-configured entries but below the playing one.
func TestScoreModalAbovePage(t *testing.T) {
	bands := DefaultBands()
	calc := NewCalculator(testSiteConfig(), bands)
	ctx := Context{Page: "home"}

	modal := calc.Score(&Entry{URL: "m", Origin: OriginModalRequested}, ctx)
	paged := calc.Score(&Entry{URL: "https://cdn.skyreel.test/hero.mp4"}, ctx)

	if modal != bands.Playing-bands.ModalOffset {
		t.Fatalf("expected modal score %d, got %d", bands.Playing-bands.ModalOffset, modal)
	}
	if modal <= paged {
		t.Fatalf("expected modal score %d above page score %d", modal, paged)
	}
	if modal >= bands.Playing {
		t.Fatalf("expected modal score %d below playing band %d", modal, bands.Playing)
	}
}

// TestScorePagePositionOrder tests that the configured list order of the
// current page decides scores within the page band.
func TestScorePagePositionOrder(t *testing.T) {
	bands := DefaultBands()
	calc := NewCalculator(testSiteConfig(), bands)
	ctx := Context{Page: "home"}

	first := calc.Score(&Entry{URL: "https://cdn.skyreel.test/hero.mp4"}, ctx)
	second := calc.Score(&Entry{URL: "https://cdn.skyreel.test/reel.mp4"}, ctx)

	if first != bands.PageBase {
		t.Fatalf("expected first listed score %d, got %d", bands.PageBase, first)
	}
	if second != bands.PageBase-1 {
		t.Fatalf("expected second listed score %d, got %d", bands.PageBase-1, second)
	}
}

// TestScorePageBandFollowsContext tests that a URL listed for another
// page does not get the page band under the current page.
func TestScorePageBandFollowsContext(t *testing.T) {
	bands := DefaultBands()
	calc := NewCalculator(testSiteConfig(), bands)

	e := &Entry{URL: "https://cdn.skyreel.test/hero.mp4"}
	home := calc.Score(e, Context{Page: "home"})
	portfolio := calc.Score(e, Context{Page: "portfolio"})

	if home != bands.PageBase {
		t.Fatalf("expected page band %d on home, got %d", bands.PageBase, home)
	}
	if portfolio != bands.Discovered {
		t.Fatalf("expected discovered band %d on portfolio, got %d", bands.Discovered, portfolio)
	}
}

// TestScoreDiscoveredBonuses tests visibility and early-position bonuses
// in the discovered band.
func TestScoreDiscoveredBonuses(t *testing.T) {
	bands := DefaultBands()
	calc := NewCalculator(&SiteConfig{}, bands)
	ctx := Context{Page: "home"}

	cases := []struct {
		name string
		el   *MediaElement
		want int
	}{
		{"bare", nil, bands.Discovered},
		{"visible", &MediaElement{Visible: true, Index: 9}, bands.Discovered + bands.VisibleBonus},
		{"early", &MediaElement{Index: 0}, bands.Discovered + bands.EarlyBonus},
		{"visible early", &MediaElement{Visible: true, Index: 2}, bands.Discovered + bands.VisibleBonus + bands.EarlyBonus},
		{"late hidden", &MediaElement{Index: bands.EarlyCount}, bands.Discovered},
	}
	for _, tc := range cases {
		got := calc.Score(&Entry{URL: "u", Element: tc.el}, ctx)
		if got != tc.want {
			t.Fatalf("%s: expected score %d, got %d", tc.name, tc.want, got)
		}
	}
}

// TestRecomputeRescoresQueue tests that Recompute rescores every entry
// and that the queue ordering reflects the new context.
func TestRecomputeRescoresQueue(t *testing.T) {
	cfg := testSiteConfig()
	calc := NewCalculator(cfg, DefaultBands())
	q := NewQueue()
	q.Upsert("https://cdn.skyreel.test/other.mp4", OriginPageDiscovered, nil)
	q.Upsert("https://cdn.skyreel.test/hero.mp4", OriginGlobalConfig, nil)

	calc.Recompute(q, Context{Page: "home"})
	got := q.PendingURLs()
	if got[0] != "https://cdn.skyreel.test/hero.mp4" {
		t.Fatalf("expected page-listed URL first on home, got %v", got)
	}

	// Playback start flips the order without touching discovery order.
	calc.Recompute(q, Context{Page: "home", PlayingURL: "https://cdn.skyreel.test/other.mp4"})
	got = q.PendingURLs()
	if got[0] != "https://cdn.skyreel.test/other.mp4" {
		t.Fatalf("expected playing URL first, got %v", got)
	}
}
