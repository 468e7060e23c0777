// Package aggregate rolls complaint records up into one aggregate per
// address.
package aggregate

import (
	"context"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gradient-spp/noisemap/internal/classify"
	"github.com/gradient-spp/noisemap/internal/model"
)

// Resolver finds coordinates for an address that has none in the input.
type Resolver interface {
	Resolve(ctx context.Context, address string) (lat, lon float64, ok bool)
}

// Stats counts what happened to the address groups of one aggregation.
type Stats struct {
	Groups   int
	Emitted  int
	Dropped  int
	FromCSV  int
	Geocoded int
	// Unclassified counts records whose classification failed.
	Unclassified int
}

// Aggregator groups records by address, classifies them and places each
// group on the map.
type Aggregator struct {
	classifier *classify.Classifier
	resolver   Resolver
}

// New creates an Aggregator. A nil resolver means groups without CSV
// coordinates are dropped.
func New(classifier *classify.Classifier, resolver Resolver) *Aggregator {
	if classifier == nil {
		classifier = classify.New()
	}
	return &Aggregator{classifier: classifier, resolver: resolver}
}

type group struct {
	address string
	records []model.ComplaintRecord
}

// Aggregate returns one aggregate per distinct address, in the order the
// addresses first appear in records. Groups without a coordinate are
// dropped.
func (a *Aggregator) Aggregate(ctx context.Context, records []model.ComplaintRecord) ([]model.AddressAggregate, Stats) {
	groups := groupByAddress(records)
	stats := Stats{Groups: len(groups)}
	out := make([]model.AddressAggregate, 0, len(groups))

	for _, g := range groups {
		agg, ok := a.aggregateGroup(ctx, g, &stats)
		if !ok {
			stats.Dropped++
			zap.L().Warn("aggregate: dropping address without coordinates",
				zap.String("address", g.address),
				zap.Int("complaints", len(g.records)),
			)
			continue
		}
		out = append(out, agg)
		stats.Emitted++
	}

	return out, stats
}

func (a *Aggregator) aggregateGroup(ctx context.Context, g group, stats *Stats) (model.AddressAggregate, bool) {
	recs := slices.Clone(g.records)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Date > recs[j].Date
	})

	agg := model.AddressAggregate{
		Address:         g.address,
		TotalComplaints: len(recs),
		LastCheckDate:   recs[0].Date,
	}

	if !a.locate(ctx, recs, &agg) {
		return agg, false
	}
	switch agg.CoordinateSource {
	case model.CoordinateFromCSV:
		stats.FromCSV++
	case model.CoordinateFromGeocoder:
		stats.Geocoded++
	}

	sources := make(map[string]struct{})
	for _, rec := range recs {
		v := a.classifier.Classify(rec)
		if v.Err != nil {
			stats.Unclassified++
			zap.L().Debug("aggregate: record not classified",
				zap.String("id", rec.ID),
				zap.Error(v.Err),
			)
			continue
		}
		if v.Noisy {
			agg.NoisyComplaints++
		}
		for _, s := range v.Sources {
			sources[s] = struct{}{}
		}
	}

	agg.NoiseSources = make([]string, 0, len(sources))
	for s := range sources {
		agg.NoiseSources = append(agg.NoiseSources, s)
	}
	sort.Strings(agg.NoiseSources)

	agg.IsNoisy = agg.NoisyComplaints*2 > agg.TotalComplaints
	agg.Frequency = model.FrequencyFor(agg.TotalComplaints)
	return agg, true
}

// locate sets agg's coordinate from the first sorted record carrying one,
// falling back to the resolver.
func (a *Aggregator) locate(ctx context.Context, recs []model.ComplaintRecord, agg *model.AddressAggregate) bool {
	for _, rec := range recs {
		if rec.HasCoordinates() {
			agg.Latitude = *rec.Latitude
			agg.Longitude = *rec.Longitude
			agg.CoordinateSource = model.CoordinateFromCSV
			return true
		}
	}

	if a.resolver == nil {
		return false
	}
	lat, lon, ok := a.resolver.Resolve(ctx, agg.Address)
	if !ok {
		return false
	}
	agg.Latitude = lat
	agg.Longitude = lon
	agg.CoordinateSource = model.CoordinateFromGeocoder
	return true
}

func groupByAddress(records []model.ComplaintRecord) []group {
	index := make(map[string]int)
	var groups []group
	for _, rec := range records {
		if strings.TrimSpace(rec.Address) == "" {
			continue
		}
		i, ok := index[rec.Address]
		if !ok {
			i = len(groups)
			index[rec.Address] = i
			groups = append(groups, group{address: rec.Address})
		}
		groups[i].records = append(groups[i].records, rec)
	}
	return groups
}
