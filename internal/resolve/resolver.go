// Package resolve turns complaint addresses without coordinates into
// coordinates using a geocoder, one lookup per distinct address per run.
package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/gradient-spp/noisemap/pkg/geocode"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithCity prefixes every query with the city name.
func WithCity(city string) Option {
	return func(r *Resolver) {
		r.city = strings.TrimSpace(city)
	}
}

// WithGeocodeOptions sets the options passed on every lookup.
func WithGeocodeOptions(opts geocode.Options) Option {
	return func(r *Resolver) {
		r.opts = opts
	}
}

// WithCache sets the cache used for the run.
func WithCache(c *Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// Resolver resolves addresses through a geocode.Client. A nil client
// resolves nothing, which lets a run proceed with CSV coordinates only.
type Resolver struct {
	client geocode.Client
	city   string
	opts   geocode.Options
	cache  *Cache

	lookups int
}

// New creates a Resolver. Without WithCache it gets a fresh default cache.
func New(client geocode.Client, opts ...Option) (*Resolver, error) {
	r := &Resolver{client: client}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		cache, err := NewCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}
	return r, nil
}

// Resolve returns the coordinate of address. Errors and empty matches are
// reported as not found and remembered for the rest of the run.
func (r *Resolver) Resolve(ctx context.Context, address string) (lat, lon float64, ok bool) {
	address = strings.TrimSpace(address)
	if address == "" || r.client == nil {
		return 0, 0, false
	}

	if c, hit := r.cache.Get(address); hit {
		return c.Latitude, c.Longitude, c.Found
	}

	r.lookups++
	res, err := r.client.Geocode(ctx, r.query(address), r.opts)
	switch {
	case err != nil:
		zap.L().Warn("resolve: geocode failed",
			zap.String("address", address),
			zap.Error(err),
		)
		r.cache.Put(address, Coordinate{})
		return 0, 0, false
	case res == nil || !res.Matched:
		zap.L().Warn("resolve: no geocode match", zap.String("address", address))
		r.cache.Put(address, Coordinate{})
		return 0, 0, false
	}

	r.cache.Put(address, Coordinate{Latitude: res.Latitude, Longitude: res.Longitude, Found: true})
	zap.L().Debug("resolve: geocoded",
		zap.String("address", address),
		zap.Float64("lat", res.Latitude),
		zap.Float64("lon", res.Longitude),
	)
	return res.Latitude, res.Longitude, true
}

// Lookups returns how many geocoder calls this resolver has made.
func (r *Resolver) Lookups() int {
	return r.lookups
}

func (r *Resolver) query(address string) string {
	if r.city == "" {
		return address
	}
	return r.city + ", " + address
}
