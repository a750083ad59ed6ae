package depgraph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Filename length thresholds. Above these the fingerprint is replaced by a
// content hash so the cache file name stays within filesystem limits.
const (
	maxURLMapKeyLen  = 243
	maxPathsKeyLen   = 244
	maxDirSegmentLen = 255
)

// DiskCache stores dependency-graph responses under a root directory. File
// names are deterministic fingerprints of the query so that a repeated query
// in any process finds the entry. Writes are whole-file, so concurrent runs
// against the same directory race benignly (last writer wins).
type DiskCache struct {
	root string
}

// NewDiskCache creates a disk cache rooted at dir.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskCache{root: dir}, nil
}

// GetURLMap returns the cached url map response for the query, if present.
func (c *DiskCache) GetURLMap(q Query) ([]byte, bool, error) {
	return c.read(c.urlMapPath(q))
}

// StoreURLMap caches a url map response.
func (c *DiskCache) StoreURLMap(q Query, data []byte) error {
	return c.write(c.urlMapPath(q), data)
}

// GetPaths returns the cached paths response for the query, if present.
func (c *DiskCache) GetPaths(q Query) ([]byte, bool, error) {
	return c.read(c.pathsPath(q))
}

// StorePaths caches a paths response.
func (c *DiskCache) StorePaths(q Query, data []byte) error {
	return c.write(c.pathsPath(q), data)
}

// Clear removes all cached entries.
func (c *DiskCache) Clear() error {
	if err := os.RemoveAll(c.root); err != nil {
		return err
	}
	return os.MkdirAll(c.root, 0755)
}

// Root returns the cache root directory.
func (c *DiskCache) Root() string {
	return c.root
}

func (c *DiskCache) read(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *DiskCache) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// urlMapPath builds the cache file path for a url map query. The fingerprint
// joins every query parameter; over-long fingerprints collapse to the root
// list plus a hash, then to the hash alone.
func (c *DiskCache) urlMapPath(q Query) string {
	extras := make([]string, len(q.Extras))
	for i, ec := range q.Extras {
		extras[i] = ec.Type + ":" + ec.Classifier
	}
	key := strings.Join([]string{
		strings.Join(q.Roots, "_"),
		q.SourceKey,
		strings.Join(extras, "_"),
		strings.Join(q.ExcludedSources, "_"),
		strings.Join(q.ExcludedSubgraphs, "_"),
		q.Preset,
		q.Mutator,
		strings.Join(q.PatcherIDs, "_"),
		strings.Join(q.InjectedBOMs, "_"),
	}, "_|_")
	if len(key) > maxURLMapKeyLen {
		sum := hashHex(key)
		key = strings.Join(q.Roots, "-") + "_|_" + sum
		if len(key) > maxURLMapKeyLen {
			key = sum
		}
	}
	return filepath.Join(c.root, fmt.Sprintf("urlmap_%s.json", key))
}

// pathsPath builds the cache file path for a paths query. Path-cache files
// additionally nest under directories derived from truncated root and target
// lists so related queries stay colocated without exceeding per-segment
// filesystem limits.
func (c *DiskCache) pathsPath(q Query) string {
	key := strings.Join([]string{
		strings.Join(q.Roots, "_"),
		strings.Join(q.Targets, "_"),
		q.SourceKey,
		strings.Join(q.ExcludedSources, "_"),
		strings.Join(q.ExcludedSubgraphs, "_"),
		q.Preset,
		q.Mutator,
		strings.Join(q.PatcherIDs, "_"),
		strings.Join(q.InjectedBOMs, "-"),
	}, "_|_")
	if len(key) > maxPathsKeyLen {
		sum := hashHex(key)
		key = strings.Join(q.Roots, "_") + "_|_" + strings.Join(q.Targets, "_") + "_|_" + sum
		if len(key) > maxPathsKeyLen {
			key = sum
		}
	}

	rootDir := ""
	for _, root := range q.Roots {
		segment := strings.ReplaceAll(root, ":", "$")
		joined := segment
		if rootDir != "" {
			joined = rootDir + "_|_" + segment
		}
		if len(joined) >= maxDirSegmentLen {
			break
		}
		rootDir = joined
	}

	targetDir := ""
	for _, target := range q.Targets {
		groupID, _, _ := strings.Cut(target, ":")
		joined := groupID
		if targetDir != "" {
			joined = targetDir + "_|_" + groupID
		}
		if len(joined) >= maxDirSegmentLen {
			break
		}
		targetDir = joined
	}

	return filepath.Join(c.root, rootDir, targetDir, fmt.Sprintf("paths_%s.json", key))
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
