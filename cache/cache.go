package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/xeptore/beatportdl/beatport/catalog"
)

var (
	DefaultReleaseTTL = 1 * time.Hour
	DefaultTrackTTL   = 1 * time.Hour
	DefaultCoverTTL   = 1 * time.Hour
)

type Cache struct {
	Releases ReleasesCache
	Tracks   TracksCache
	Covers   CoversCache
}

func New() *Cache {
	releasesCache := ccache.New(
		ccache.Configure[*catalog.Release]().
			MaxSize(1000).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	tracksCache := ccache.New(
		ccache.Configure[*catalog.Track]().
			MaxSize(10_000).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	coversCache := ccache.New(
		ccache.Configure[[]byte]().
			MaxSize(100).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	return &Cache{
		Releases: ReleasesCache{
			c:   releasesCache,
			mux: sync.Mutex{},
		},
		Tracks: TracksCache{
			c:   tracksCache,
			mux: sync.Mutex{},
		},
		Covers: CoversCache{
			c:   coversCache,
			mux: sync.Mutex{},
		},
	}
}

type ReleasesCache struct {
	c   *ccache.Cache[*catalog.Release]
	mux sync.Mutex
}

func (c *ReleasesCache) Fetch(
	k string,
	ttl time.Duration,
	fetch func() (*catalog.Release, error),
) (*catalog.Release, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	v, err := c.c.Fetch(k, ttl, fetch)
	if nil != err {
		return nil, fmt.Errorf("fetch release: %w", err)
	}

	return v.Value(), nil
}

type TracksCache struct {
	c   *ccache.Cache[*catalog.Track]
	mux sync.Mutex
}

func (c *TracksCache) Fetch(
	k string,
	ttl time.Duration,
	fetch func() (*catalog.Track, error),
) (*catalog.Track, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	v, err := c.c.Fetch(k, ttl, fetch)
	if nil != err {
		return nil, fmt.Errorf("fetch track: %w", err)
	}

	return v.Value(), nil
}

// Set seeds a track, e.g. from a release listing that already carries the
// full record.
func (c *TracksCache) Set(k string, v *catalog.Track, ttl time.Duration) {
	c.c.Set(k, v, ttl)
}

type CoversCache struct {
	c   *ccache.Cache[[]byte]
	mux sync.Mutex
}

func (c *CoversCache) Fetch(
	k string,
	ttl time.Duration,
	fetch func() ([]byte, error),
) ([]byte, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	v, err := c.c.Fetch(k, ttl, fetch)
	if nil != err {
		return nil, fmt.Errorf("fetch cover: %w", err)
	}

	return v.Value(), nil
}
