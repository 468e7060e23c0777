package model

import "math"

// Frequency buckets the number of complaints filed for an address.
type Frequency string

const (
	FrequencyLow    Frequency = "low"
	FrequencyMedium Frequency = "medium"
	FrequencyHigh   Frequency = "high"
)

// Frequency thresholds are inclusive lower bounds.
const (
	HighFrequencyMin   = 5
	MediumFrequencyMin = 3
)

// FrequencyFor maps a complaint count to its bucket. High is checked
// before medium so the lower bound never masks the higher one.
func FrequencyFor(total int) Frequency {
	switch {
	case total >= HighFrequencyMin:
		return FrequencyHigh
	case total >= MediumFrequencyMin:
		return FrequencyMedium
	default:
		return FrequencyLow
	}
}

// CoordinateSource records where an aggregate's position came from.
type CoordinateSource string

const (
	CoordinateFromCSV      CoordinateSource = "csv"
	CoordinateFromGeocoder CoordinateSource = "geocoder"
)

// AddressAggregate is the per-address rollup of complaints sharing an
// exact address string.
type AddressAggregate struct {
	Latitude         float64          `json:"latitude"`
	Longitude        float64          `json:"longitude"`
	Address          string           `json:"address"`
	IsNoisy          bool             `json:"is_noisy"`
	Frequency        Frequency        `json:"complaint_frequency"`
	TotalComplaints  int              `json:"total_complaints"`
	NoisyComplaints  int              `json:"noisy_complaints"`
	NoiseSources     []string         `json:"noise_sources"`
	LastCheckDate    string           `json:"last_check_date"`
	CoordinateSource CoordinateSource `json:"-"`
}

// NoiseRatio returns noisy/total rounded to two decimals, halves to even.
func (a AddressAggregate) NoiseRatio() float64 {
	if a.TotalComplaints == 0 {
		return 0
	}
	ratio := float64(a.NoisyComplaints) / float64(a.TotalComplaints)
	return math.RoundToEven(ratio*100) / 100
}
