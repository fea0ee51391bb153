package warmlib

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite"
)

// Witness tracks which URLs are already fully downloaded so they are
// never scheduled twice inside the expiry window, even across a daemon
// restart. Completions live in an in-memory map backed by a SQLite
// cache-info table; a persisted record only counts if the warmed cache
// file it points at is still on disk. The witness lifetime (24h) is
// independent of the much shorter queue-snapshot lifetime.
type Witness struct {
	mem      VMap[string, time.Time]
	db       *sql.DB
	fs       afero.Fs
	cacheDir string
	expiry   time.Duration
	l        *log.Logger

	// InFlight, when set, lets IsCached treat a URL with an
	// outstanding fetch as cached so it is not re-queued meanwhile.
	// Wired to Queue.IsClaimed at composition.
	InFlight func(url string) bool
}

// NewWitness opens (creating if needed) the cache-info database at
// dbPath. Cache files are corroborated under cacheDir on fs.
func NewWitness(dbPath string, fs afero.Fs, cacheDir string, expiry time.Duration, l *log.Logger) (*Witness, error) {
	if expiry <= 0 {
		expiry = DefaultCacheExpiry
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache-info db: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cache_info (
		url        TEXT PRIMARY KEY,
		expires_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache-info db: %w", err)
	}
	return &Witness{
		mem:      NewVMap[string, time.Time](),
		db:       db,
		fs:       fs,
		cacheDir: cacheDir,
		expiry:   expiry,
		l:        l,
	}, nil
}

// CachePath returns where the warmed bytes for url live.
func (w *Witness) CachePath(url string) string {
	return filepath.Join(w.cacheDir, CacheKey(url))
}

// IsCached reports whether url needs no download: it completed within
// this process, has a fetch in flight right now, or has a non-expired
// persisted record whose cache file is still present.
func (w *Witness) IsCached(url string) bool {
	if exp, ok := w.mem.Lookup(url); ok && time.Now().Before(exp) {
		return true
	}
	if w.InFlight != nil && w.InFlight(url) {
		return true
	}
	var expiresAt int64
	err := w.db.QueryRow(`SELECT expires_at FROM cache_info WHERE url = ?`, url).Scan(&expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			w.l.Printf("witness: lookup %q: %v", url, err)
		}
		return false
	}
	if time.Now().Unix() >= expiresAt {
		return false
	}
	ok, err := afero.Exists(w.fs, w.CachePath(url))
	if err != nil {
		w.l.Printf("witness: stat cache file for %q: %v", url, err)
		return false
	}
	return ok
}

// RecordCompletion marks url as fully downloaded, persisting an expiry
// timestamp. Persistence failures are logged, not propagated; the
// in-memory record still protects the rest of this session.
func (w *Witness) RecordCompletion(url string) {
	exp := time.Now().Add(w.expiry)
	w.mem.Set(url, exp)
	_, err := w.db.Exec(
		`INSERT INTO cache_info (url, expires_at) VALUES (?, ?)
		 ON CONFLICT(url) DO UPDATE SET expires_at = excluded.expires_at`,
		url, exp.Unix(),
	)
	if err != nil {
		w.l.Printf("witness: persist completion of %q: %v", url, err)
	}
}

// EvictExpired removes expired cache-info rows and their stale cache
// files. Run at startup.
func (w *Witness) EvictExpired() {
	now := time.Now().Unix()
	rows, err := w.db.Query(`SELECT url FROM cache_info WHERE expires_at <= ?`, now)
	if err != nil {
		w.l.Printf("witness: evict query: %v", err)
		return
	}
	var expired []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			w.l.Printf("witness: evict scan: %v", err)
			continue
		}
		expired = append(expired, u)
	}
	if err := rows.Err(); err != nil {
		w.l.Printf("witness: evict rows: %v", err)
	}
	rows.Close()
	for _, u := range expired {
		w.mem.Delete(u)
		if err := w.fs.Remove(w.CachePath(u)); err != nil && !os.IsNotExist(err) {
			w.l.Printf("witness: remove stale cache file for %q: %v", u, err)
		}
	}
	if _, err := w.db.Exec(`DELETE FROM cache_info WHERE expires_at <= ?`, now); err != nil {
		w.l.Printf("witness: evict delete: %v", err)
	}
	if len(expired) > 0 {
		w.l.Printf("witness: evicted %d expired entries", len(expired))
	}
}

// Clear drops all cache-info records and removes all warmed files.
func (w *Witness) Clear() {
	rows, err := w.db.Query(`SELECT url FROM cache_info`)
	if err != nil {
		w.l.Printf("witness: clear query: %v", err)
	} else {
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err != nil {
				continue
			}
			_ = w.fs.Remove(w.CachePath(u))
		}
		rows.Close()
	}
	if _, err := w.db.Exec(`DELETE FROM cache_info`); err != nil {
		w.l.Printf("witness: clear delete: %v", err)
	}
	w.mem.Make()
}

// Close closes the cache-info database.
func (w *Witness) Close() error {
	return w.db.Close()
}
