// Package export writes address aggregates as the JSON file consumed by the
// noise map.
package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gradient-spp/noisemap/internal/model"
)

// Record is one exported address. Field names are a compatibility contract
// with the map's reader.
type Record struct {
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	Address            string   `json:"address"`
	IsNoisy            bool     `json:"is_noisy"`
	ComplaintFrequency string   `json:"complaint_frequency"`
	TotalComplaints    int      `json:"total_complaints"`
	NoisyComplaints    int      `json:"noisy_complaints"`
	NoiseSources       []string `json:"noise_sources"`
	LastCheckDate      string   `json:"last_check_date"`
	NoiseRatio         float64  `json:"noise_ratio"`
}

// FromAggregate converts an aggregate into its exported form.
func FromAggregate(a model.AddressAggregate) Record {
	sources := a.NoiseSources
	if sources == nil {
		sources = []string{}
	}
	return Record{
		Latitude:           a.Latitude,
		Longitude:          a.Longitude,
		Address:            a.Address,
		IsNoisy:            a.IsNoisy,
		ComplaintFrequency: string(a.Frequency),
		TotalComplaints:    a.TotalComplaints,
		NoisyComplaints:    a.NoisyComplaints,
		NoiseSources:       sources,
		LastCheckDate:      a.LastCheckDate,
		NoiseRatio:         a.NoiseRatio(),
	}
}

// Marshal renders aggregates as an indented JSON array with non-ASCII text
// left unescaped.
func Marshal(aggs []model.AddressAggregate) ([]byte, error) {
	records := make([]Record, 0, len(aggs))
	for _, a := range aggs {
		records = append(records, FromAggregate(a))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, eris.Wrap(err, "export: encode")
	}
	return buf.Bytes(), nil
}

// Write replaces the file at path with the exported aggregates. The new
// content is written to a temporary file in the same directory and renamed
// into place, so readers see either the old file or the complete new one.
func Write(path string, aggs []model.AddressAggregate) error {
	data, err := Marshal(aggs)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "export: create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "export: create temp file")
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return eris.Wrap(err, "export: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return eris.Wrap(err, "export: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "export: close temp file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrap(err, "export: chmod temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "export: rename to %s", path)
	}
	committed = true

	zap.L().Info("export: wrote results",
		zap.String("path", path),
		zap.Int("addresses", len(aggs)),
		zap.Int("bytes", len(data)),
	)
	return nil
}
