package resolve

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
)

// DefaultCacheSize bounds the number of addresses remembered per run.
const DefaultCacheSize = 10000

// Coordinate is a resolved (latitude, longitude) pair. Found is false for a
// cached miss.
type Coordinate struct {
	Latitude  float64
	Longitude float64
	Found     bool
}

// Cache remembers geocode outcomes, misses included, for the lifetime of one
// pipeline run. It is not safe to share between runs.
type Cache struct {
	entries *lru.Cache[string, Coordinate]
}

// NewCache creates a cache holding up to size addresses.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, Coordinate](size)
	if err != nil {
		return nil, eris.Wrap(err, "resolve: create cache")
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached outcome for address.
func (c *Cache) Get(address string) (Coordinate, bool) {
	return c.entries.Get(address)
}

// Put stores the outcome for address.
func (c *Cache) Put(address string, coord Coordinate) {
	c.entries.Add(address, coord)
}

// Len returns the number of cached addresses.
func (c *Cache) Len() int {
	return c.entries.Len()
}
