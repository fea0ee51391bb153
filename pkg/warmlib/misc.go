package warmlib

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultMaxConcurrent is the default number of scheduler slots.
	// The source site shipped two tunings (2 and 12); 4 is the middle
	// ground used when no flag overrides it.
	DefaultMaxConcurrent = 4
	// DefaultFetchTimeout is the hard per-fetch deadline after which a
	// stuck download is abandoned and its slot freed.
	DefaultFetchTimeout = 45 * time.Second
	// DefaultCacheExpiry is how long a completed download is trusted
	// before the witness forgets it.
	DefaultCacheExpiry = 24 * time.Hour
	// DefaultSnapshotMaxAge is the staleness threshold beyond which a
	// persisted queue snapshot is discarded instead of restored.
	DefaultSnapshotMaxAge = 5 * time.Minute
	// DefaultProgressDelta is the minimum progress advance that
	// triggers a snapshot write, keeping write frequency coarse.
	DefaultProgressDelta = 0.1
	// DefaultSnapshotCap bounds how many entries a snapshot records.
	DefaultSnapshotCap = 100

	// DefaultChunkSize is the copy buffer size used by warm fetches.
	DefaultChunkSize = 64 * 1024
	// DefaultUserAgent identifies warm fetches to the origin.
	DefaultUserAgent = "Prewarm/1.0"
)

// ConfigDirEnv overrides the default configuration directory.
const ConfigDirEnv = "PREWARM_CONFIG_DIR"

// DefaultConfigDir resolves the prewarm configuration directory,
// honoring ConfigDirEnv, and creates it if needed.
func DefaultConfigDir() (string, error) {
	dir := os.Getenv(ConfigDirEnv)
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "prewarm")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", err
	}
	return abs, nil
}

// CacheKey derives the stable cache file name for a URL.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
