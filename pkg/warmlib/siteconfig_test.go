package warmlib

import (
	"testing"

	"github.com/spf13/afero"
)

// TestLoadSiteConfigJSON tests loading the JSON form of the catalog.
func TestLoadSiteConfigJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `{
	  "pages": {
	    "home": ["https://cdn.skyreel.test/hero.mp4"],
	    "portfolio": ["https://cdn.skyreel.test/a.mp4", "https://cdn.skyreel.test/b.mp4"]
	  },
	  "restrictedHosts": ["vidhost.test"]
	}`
	if err := afero.WriteFile(fs, "/etc/prewarm/site.json", []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadSiteConfig(fs, "/etc/prewarm/site.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(cfg.Pages))
	}
	if pos, ok := cfg.Position("portfolio", "https://cdn.skyreel.test/b.mp4"); !ok || pos != 1 {
		t.Fatalf("expected position 1, got %d (%v)", pos, ok)
	}
	if len(cfg.RestrictedHosts) != 1 {
		t.Fatalf("expected 1 restricted host, got %v", cfg.RestrictedHosts)
	}
}

// TestLoadSiteConfigJS tests loading the catalog from the JS file the
// site already ships, which assigns a videoPreloadConfig global.
func TestLoadSiteConfigJS(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `// shared with the page scripts
var videoPreloadConfig = {
  pages: {
    home: ["https://cdn.skyreel.test/hero.mp4", "https://cdn.skyreel.test/reel.mp4"],
  },
  restrictedHosts: ["vidhost.test"],
};`
	if err := afero.WriteFile(fs, "/etc/prewarm/video-preload-config.js", []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadSiteConfig(fs, "/etc/prewarm/video-preload-config.js")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := cfg.Pages["home"]; len(got) != 2 || got[0] != "https://cdn.skyreel.test/hero.mp4" {
		t.Fatalf("unexpected home list: %v", got)
	}
	if !cfg.IsRestrictedHost("https://vidhost.test/x.mp4") {
		t.Fatalf("expected restricted host to load from js config")
	}
}

// TestLoadSiteConfigJSMissingGlobal tests that a JS file without the
// expected global is an error.
func TestLoadSiteConfigJSMissingGlobal(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/c.js", []byte(`var somethingElse = 1;`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadSiteConfig(fs, "/c.js"); err == nil {
		t.Fatalf("expected error for missing global")
	}
}

// TestLoadSiteConfigMissingFile tests that a missing file yields an
// empty catalog, not an error.
func TestLoadSiteConfigMissingFile(t *testing.T) {
	cfg, err := LoadSiteConfig(afero.NewMemMapFs(), "/nope.json")
	if err != nil {
		t.Fatalf("expected missing file to load empty, got %v", err)
	}
	if len(cfg.AllURLs()) != 0 {
		t.Fatalf("expected empty catalog, got %v", cfg.AllURLs())
	}
}

// TestAllURLsDeduplicates tests cross-page deduplication with stable
// ordering.
func TestAllURLsDeduplicates(t *testing.T) {
	cfg := &SiteConfig{Pages: map[string][]string{
		"b-page": {"shared.mp4", "b.mp4"},
		"a-page": {"a.mp4", "shared.mp4"},
	}}
	got := cfg.AllURLs()
	want := []string{"a.mp4", "shared.mp4", "b.mp4"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// TestIsRestrictedHost tests host matching including subdomains.
func TestIsRestrictedHost(t *testing.T) {
	cfg := &SiteConfig{RestrictedHosts: []string{"vidhost.test"}}

	cases := []struct {
		url  string
		want bool
	}{
		{"https://vidhost.test/v.mp4", true},
		{"https://player.vidhost.test/v.mp4", true},
		{"https://VIDHOST.test/v.mp4", true},
		{"https://cdn.skyreel.test/v.mp4", false},
		{"https://notvidhost.test/v.mp4", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := cfg.IsRestrictedHost(tc.url); got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.url, tc.want, got)
		}
	}
}
