// Package noisemap reads the exported analysis results back for the map.
package noisemap

import (
	"encoding/json"
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gradient-spp/noisemap/internal/export"
)

// Load reads the exported results file. A missing file yields no points.
func Load(path string) ([]export.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("noisemap: results file not found", zap.String("path", path))
		return []export.Record{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "noisemap: read %s", path)
	}

	var points []export.Record
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, eris.Wrapf(err, "noisemap: decode %s", path)
	}
	return points, nil
}

// Noisy keeps only the points marked noisy.
func Noisy(points []export.Record) []export.Record {
	out := make([]export.Record, 0, len(points))
	for _, p := range points {
		if p.IsNoisy {
			out = append(out, p)
		}
	}
	return out
}

// Sample returns up to count points chosen at random, in their original
// order. A count <= 0 or >= len(points) returns every point. A nil rng uses
// the global source.
func Sample(points []export.Record, count int, rng *rand.Rand) []export.Record {
	if count <= 0 || count >= len(points) {
		return append([]export.Record(nil), points...)
	}

	perm := func(n int) []int { return rand.Perm(n) }
	if rng != nil {
		perm = rng.Perm
	}

	picked := perm(len(points))[:count]
	keep := make([]bool, len(points))
	for _, i := range picked {
		keep[i] = true
	}

	out := make([]export.Record, 0, count)
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
