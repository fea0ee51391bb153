package warmlib

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dop251/goja"
	"github.com/spf13/afero"
)

// configGlobalName is the variable the site's JS config file assigns.
const configGlobalName = "videoPreloadConfig"

// SiteConfig is the static per-site catalog mapping page identifiers to
// ordered lists of promotional video URLs. The declared order is the
// priority order within a page. RestrictedHosts lists hosts known to
// reject direct media fetches; entries on those hosts get one passive
// probe instead of a failed retry.
type SiteConfig struct {
	Pages           map[string][]string `json:"pages"`
	RestrictedHosts []string            `json:"restrictedHosts"`
}

// LoadSiteConfig reads the site catalog from path. A ".js" file is
// evaluated with goja and must assign the videoPreloadConfig global,
// matching the config file the static site already ships; any other
// extension is parsed as JSON. A missing file is not an error: it
// yields an empty config, i.e. zero global entries.
func LoadSiteConfig(fs afero.Fs, path string) (*SiteConfig, error) {
	if path == "" {
		return &SiteConfig{}, nil
	}
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("stat site config: %w", err)
	}
	if !exists {
		return &SiteConfig{}, nil
	}
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read site config: %w", err)
	}
	var cfg SiteConfig
	if filepath.Ext(path) == ".js" {
		if err := parseJSConfig(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse js site config: %w", err)
		}
	} else {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse site config: %w", err)
		}
	}
	if cfg.Pages == nil {
		cfg.Pages = make(map[string][]string)
	}
	return &cfg, nil
}

func parseJSConfig(src []byte, cfg *SiteConfig) error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if _, err := vm.RunString(string(src)); err != nil {
		return err
	}
	v := vm.Get(configGlobalName)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return fmt.Errorf("config file does not assign %s", configGlobalName)
	}
	return vm.ExportTo(v, cfg)
}

// Position returns the zero-based position of u in the given page's
// configured list, and whether it is listed at all.
func (c *SiteConfig) Position(page, u string) (int, bool) {
	if c == nil {
		return 0, false
	}
	for i, cu := range c.Pages[page] {
		if cu == u {
			return i, true
		}
	}
	return 0, false
}

// PageIDs returns the sorted identifiers of all configured pages.
func (c *SiteConfig) PageIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Pages))
	for id := range c.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllURLs returns every configured URL exactly once, page by page in
// sorted page order, preserving each page's declared order.
func (c *SiteConfig) AllURLs() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var urls []string
	for _, id := range c.PageIDs() {
		for _, u := range c.Pages[id] {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	return urls
}

// IsRestrictedHost reports whether rawurl points at a host known to
// reject direct media fetches. Subdomains of a listed host match too.
func (c *SiteConfig) IsRestrictedHost(rawurl string) bool {
	if c == nil || len(c.RestrictedHosts) == 0 {
		return false
	}
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, rh := range c.RestrictedHosts {
		rh = strings.ToLower(rh)
		if host == rh || strings.HasSuffix(host, "."+rh) {
			return true
		}
	}
	return false
}
