package resultcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"lectern/internal/config"
	"lectern/internal/fileutil"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/services"
)

// Entry is one cached video result.
type Entry struct {
	VideoID  string           `json:"video_id"`
	Digest   string           `json:"digest"`
	Title    string           `json:"title,omitempty"`
	Slides   int              `json:"slide_count"`
	Segments int              `json:"segment_count"`
	CachedAt time.Time        `json:"cached_at"`
	Result   *pipeline.Result `json:"result"`
}

// Cache provides thread-safe access to the result cache.
type Cache struct {
	path    string
	logger  *slog.Logger
	lock    *flock.Flock
	mu      sync.RWMutex
	entries map[string]Entry // keyed by video id
	now     func() time.Time
}

// New creates a cache backed by path. If path is empty the cache is
// non-functional and every operation is a no-op. The file is created lazily
// on the first Store.
func New(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "resultcache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
	if path == "" {
		return c
	}
	c.lock = flock.New(path + ".lock")

	if err := c.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load result cache", "resultcache_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the cache file if it is corrupt"),
			logging.String(logging.FieldImpact, "cached videos will be processed again"),
		)
	}
	return c
}

// Enabled reports whether the cache is backed by a file.
func (c *Cache) Enabled() bool {
	return c != nil && c.path != ""
}

// Lookup returns the cached result for videoID when its digest matches.
func (c *Cache) Lookup(videoID, digest string) (*pipeline.Result, bool) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" || !c.Enabled() {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[videoID]
	if !found || entry.Result == nil {
		return nil, false
	}
	if entry.Digest != digest {
		c.logger.Debug("cached result is stale",
			logging.String(logging.FieldVideoID, videoID),
			logging.String("cached_digest", entry.Digest),
			logging.String("digest", digest))
		return nil, false
	}
	return entry.Result, true
}

// Store records result under videoID and persists the cache.
func (c *Cache) Store(videoID, digest string, result *pipeline.Result) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return services.Wrap(services.ErrValidation, "resultcache", "store", "video id cannot be empty", nil)
	}
	if result == nil {
		return services.Wrap(services.ErrValidation, "resultcache", "store", "result cannot be nil", nil)
	}
	if !c.Enabled() {
		return nil
	}

	entry := Entry{
		VideoID:  videoID,
		Digest:   digest,
		Title:    result.Title,
		Slides:   len(result.Slides),
		Segments: len(result.Segments),
		CachedAt: c.now(),
		Result:   result,
	}
	err := c.mutate(func(entries map[string]Entry) error {
		entries[videoID] = entry
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Debug("cached video result",
		logging.String(logging.FieldVideoID, videoID),
		logging.Int("slides", entry.Slides),
		logging.Int("segments", entry.Segments))
	return nil
}

// Remove deletes the entry for videoID.
func (c *Cache) Remove(videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return services.Wrap(services.ErrValidation, "resultcache", "remove", "video id cannot be empty", nil)
	}
	if !c.Enabled() {
		return nil
	}
	return c.mutate(func(entries map[string]Entry) error {
		if _, exists := entries[videoID]; !exists {
			return services.Wrap(services.ErrNotFound, "resultcache", "remove", fmt.Sprintf("video %q", videoID), nil)
		}
		delete(entries, videoID)
		return nil
	})
}

// List returns all entries sorted by CachedAt, newest first.
func (c *Cache) List() []Entry {
	if !c.Enabled() {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedEntries(c.entries)
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	return c.mutate(func(entries map[string]Entry) error {
		for id := range entries {
			delete(entries, id)
		}
		return nil
	})
}

// Count returns the number of entries in the cache.
func (c *Cache) Count() int {
	if !c.Enabled() {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Digest fingerprints everything that determines a video's result: the input
// (including frame image digests) and the engine configuration.
func Digest(in pipeline.Input, engine config.Engine) (string, error) {
	payload := struct {
		Input  pipeline.Input `json:"input"`
		Engine config.Engine  `json:"engine"`
	}{in, engine}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal digest input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// mutate reloads the file under the cross-process lock, applies fn, and
// writes the result back.
func (c *Cache) mutate(fn func(map[string]Entry) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("lock result cache: %w", err)
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Debug("failed to release result cache lock", logging.Error(err))
		}
	}()

	if err := c.loadLocked(); err != nil {
		return err
	}
	if err := fn(c.entries); err != nil {
		return err
	}
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

func (c *Cache) load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

// loadLocked reads the cache from disk into memory. Callers hold c.mu.
func (c *Cache) loadLocked() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.VideoID) != "" {
			c.entries[entry.VideoID] = entry
		}
	}

	c.logger.Debug("loaded result cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}

// save writes the cache to disk atomically.
func (c *Cache) save() error {
	data, err := json.MarshalIndent(sortedEntries(c.entries), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := fileutil.WriteAtomic(c.path, data, 0o644); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}

func sortedEntries(m map[string]Entry) []Entry {
	entries := make([]Entry, 0, len(m))
	for _, entry := range m {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CachedAt.Equal(entries[j].CachedAt) {
			return entries[i].CachedAt.After(entries[j].CachedAt)
		}
		return entries[i].VideoID < entries[j].VideoID
	})
	return entries
}
