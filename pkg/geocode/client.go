// Package geocode provides forward geocoding of free-text addresses via the
// 2GIS catalog API.
package geocode

import (
	"context"
	"encoding/json"

	"github.com/twpayne/go-geom"
)

// Client geocodes free-text addresses.
type Client interface {
	// Geocode returns the best match for address. A lookup that finds
	// nothing is not an error: the result has Matched=false.
	Geocode(ctx context.Context, address string, opts Options) (*Result, error)

	// ResolveCityID returns the 2GIS city identifier for a city name, or ""
	// when the name is unknown.
	ResolveCityID(ctx context.Context, cityName string) (string, error)

	// Close releases the client's network session.
	Close()
}

// Options narrows a geocode lookup. Geometries use XY layout with
// X = longitude and Y = latitude.
type Options struct {
	CityID string
	Near   *geom.Point  // bias results toward this point
	Radius int          // meters around Near; 0 sorts by distance instead
	BBox   *geom.Bounds // restrict results to this rectangle
	Limit  int          // page size, default 1
}

// Result is a geocode match normalized to (latitude, longitude).
type Result struct {
	Latitude  float64
	Longitude float64
	Matched   bool
	ID        string
	FullName  string
	Raw       json.RawMessage // the matching item as returned by the API
}

// NewPoint builds an Options.Near point from latitude and longitude.
func NewPoint(lat, lon float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}

// NewBBox builds an Options.BBox from two opposite corners given as
// longitude/latitude pairs, in any order.
func NewBBox(lon1, lat1, lon2, lat2 float64) *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(
		min(lon1, lon2), min(lat1, lat2),
		max(lon1, lon2), max(lat1, lat2),
	)
}
