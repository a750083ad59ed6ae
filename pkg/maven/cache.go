package maven

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 16384

// Cache memoizes coordinate parsing for one run. It is an explicit object
// owned by the caller rather than package-level state, so concurrent runs
// and tests stay isolated. Parsing is pure, so the cache is strictly an
// optimization.
type Cache struct {
	parsed *lru.Cache[string, Coordinate]
}

// NewCache creates a parse cache holding up to size entries. A size of 0
// selects a default suitable for large artifact sets.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = defaultCacheSize
	}
	// Only returns an error for non-positive sizes, which are handled above.
	c, _ := lru.New[string, Coordinate](size)
	return &Cache{parsed: c}
}

// Parse parses a GAV/GATCV string, consulting the cache first.
func (c *Cache) Parse(gav string) (Coordinate, error) {
	if coord, ok := c.parsed.Get(gav); ok {
		return coord, nil
	}
	coord, err := ParseGAV(gav)
	if err != nil {
		return Coordinate{}, err
	}
	c.parsed.Add(gav, coord)
	return coord, nil
}
