package warmlib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"
)

// ProgressFunc receives the fetched fraction of a URL, 0.0 to 1.0.
// When the origin sends no Content-Length the fraction stays 0 until
// the fetch finishes.
type ProgressFunc func(url string, frac float64)

// Fetcher performs the transport work for one entry. Fetch must warm
// the bytes for url, honoring ctx for the hard deadline; Probe is the
// passive fallback used for restricted hosts, a lightweight request
// that nudges the edge cache without pulling the body.
type Fetcher interface {
	Fetch(ctx context.Context, url string, progress ProgressFunc) error
	Probe(ctx context.Context, url string) error
}

// HTTPFetcher downloads video bytes into a local cache directory, the
// daemon's equivalent of the browser fetching into its media cache.
type HTTPFetcher struct {
	client   *http.Client
	fs       afero.Fs
	cacheDir string
	chunk    int
}

// NewHTTPFetcher returns a fetcher writing warmed files under cacheDir
// on fs. A nil client uses http.DefaultClient.
func NewHTTPFetcher(client *http.Client, fs afero.Fs, cacheDir string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		client:   client,
		fs:       fs,
		cacheDir: cacheDir,
		chunk:    DefaultChunkSize,
	}
}

// Fetch streams url into the cache, reporting progress per chunk. The
// file lands under its final name only after the whole body arrived,
// so a partial fetch never looks like a warm cache hit.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s fetching %s", ErrFetchStatus, resp.Status, url)
	}

	if err := f.fs.MkdirAll(f.cacheDir, 0755); err != nil {
		return err
	}
	final := filepath.Join(f.cacheDir, CacheKey(url))
	tmp := final + ".part"
	out, err := f.fs.Create(tmp)
	if err != nil {
		return err
	}

	total := resp.ContentLength
	var read int64
	buf := make([]byte, f.chunk)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				_ = f.fs.Remove(tmp)
				return werr
			}
			read += int64(n)
			if progress != nil && total > 0 {
				progress(url, float64(read)/float64(total))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			_ = f.fs.Remove(tmp)
			return rerr
		}
	}
	if err := out.Close(); err != nil {
		_ = f.fs.Remove(tmp)
		return err
	}
	if err := f.fs.Rename(tmp, final); err != nil {
		_ = f.fs.Remove(tmp)
		return err
	}
	if progress != nil {
		progress(url, 1)
	}
	return nil
}

// Probe issues a HEAD request against url. Hosts that refuse direct
// media fetches usually still answer HEAD, which is enough to confirm
// the asset is reachable and let the edge pull it.
func (f *HTTPFetcher) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s probing %s", ErrFetchStatus, resp.Status, url)
	}
	return nil
}
