// Package resultcache stores finished per-video engine results so unchanged
// videos are not processed twice.
//
// Entries are keyed by video id and carry a digest of the engine input and
// every result-shaping config value (config.Engine). A lookup only hits when
// the digest matches, so editing a manifest, replacing a frame image file or
// changing a threshold, hash or term option invalidates the entry. Frame
// images enter the digest through the sha256 of their files.
//
// # Storage
//
// The cache is a JSON file at <cache_dir>/results.json. Writers take an
// exclusive advisory lock on a sibling .lock file and merge with the on-disk
// state, so concurrent lectern processes sharing a cache do not drop each
// other's entries.
//
// # Usage
//
// The cache is disabled by default. Enable it in config.toml:
//
//	[cache]
//	enabled = true
//
// CLI commands for inspection and management:
//
//	lectern cache list     # List cached videos
//	lectern cache clear    # Remove all entries
package resultcache
