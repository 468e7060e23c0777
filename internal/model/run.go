package model

import "time"

// RunStatus represents the state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID        string      `json:"id"`
	Input     string      `json:"input"`
	Output    string      `json:"output"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary holds the counters reported at the end of a run.
type RunSummary struct {
	Strategy       ParseStrategy      `json:"strategy"`
	RowsRead       int                `json:"rows_read"`
	Records        int                `json:"records"`
	Skipped        map[SkipReason]int `json:"skipped,omitempty"`
	Addresses      int                `json:"addresses"`
	Exported       int                `json:"exported"`
	Dropped        int                `json:"dropped"`
	Geocoded       int                `json:"geocoded"`
	NoisyAddresses int                `json:"noisy_addresses"`
	QuietAddresses int                `json:"quiet_addresses"`
	Frequencies    map[Frequency]int  `json:"frequencies,omitempty"`
	DurationMs     int64              `json:"duration_ms"`
}
