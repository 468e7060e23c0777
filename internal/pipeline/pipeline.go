// Package pipeline runs one noise-map build: parse the complaint export,
// aggregate it per address and write the results file.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gradient-spp/noisemap/internal/aggregate"
	"github.com/gradient-spp/noisemap/internal/export"
	"github.com/gradient-spp/noisemap/internal/model"
	"github.com/gradient-spp/noisemap/internal/store"
)

// ErrNoRecords is returned when neither parsing strategy produced a record.
// No results file is written in that case.
var ErrNoRecords = eris.New("pipeline: no complaint records parsed")

// Parser reads a complaint export into a parse report.
type Parser interface {
	Parse(ctx context.Context, path string) (*model.ParseReport, error)
}

// Aggregator rolls records up per address.
type Aggregator interface {
	Aggregate(ctx context.Context, records []model.ComplaintRecord) ([]model.AddressAggregate, aggregate.Stats)
}

// WriteFunc writes the aggregates to path.
type WriteFunc func(path string, aggs []model.AddressAggregate) error

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore records every run in st.
func WithStore(st store.Store) Option {
	return func(p *Pipeline) {
		p.store = st
	}
}

// WithWriter replaces the results writer.
func WithWriter(w WriteFunc) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.write = w
		}
	}
}

// Pipeline sequences parsing, aggregation and export.
type Pipeline struct {
	parser     Parser
	aggregator Aggregator
	store      store.Store
	write      WriteFunc
}

// New creates a Pipeline.
func New(parser Parser, aggregator Aggregator, opts ...Option) *Pipeline {
	p := &Pipeline{
		parser:     parser,
		aggregator: aggregator,
		write:      export.Write,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run builds the results file at output from the complaint export at input.
// Parsing nothing is fatal and leaves output untouched, as is a failed write.
// Everything else is skipped and counted in the summary.
func (p *Pipeline) Run(ctx context.Context, input, output string) (*model.RunSummary, error) {
	log := zap.L().With(zap.String("input", input), zap.String("output", output))
	log.Info("pipeline: starting run")
	start := time.Now()

	runID := p.startRun(ctx, input, output)
	summary := &model.RunSummary{}

	runErr := p.run(ctx, input, output, summary)
	summary.DurationMs = time.Since(start).Milliseconds()

	if runErr != nil {
		log.Error("pipeline: run failed", zap.Error(runErr), zap.Int64("duration_ms", summary.DurationMs))
		p.finishRun(ctx, runID, summary, runErr)
		return summary, runErr
	}

	logSummary(log, summary)
	p.finishRun(ctx, runID, summary, nil)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, input, output string, summary *model.RunSummary) error {
	report, err := p.parser.Parse(ctx, input)
	if err != nil {
		return eris.Wrapf(ErrNoRecords, "pipeline: parse %s: %v", input, err)
	}

	records := report.Records()
	summary.Strategy = report.Strategy
	summary.Records = len(records)
	summary.Skipped = report.SkipCounts()
	summary.RowsRead = len(records) + len(report.Skipped())

	if len(records) == 0 {
		return ErrNoRecords
	}

	aggs, stats := p.aggregator.Aggregate(ctx, records)
	summary.Addresses = stats.Groups
	summary.Exported = stats.Emitted
	summary.Dropped = stats.Dropped
	summary.Geocoded = stats.Geocoded
	summary.Frequencies = make(map[model.Frequency]int)
	for _, a := range aggs {
		if a.IsNoisy {
			summary.NoisyAddresses++
		} else {
			summary.QuietAddresses++
		}
		summary.Frequencies[a.Frequency]++
	}

	if err := p.write(output, aggs); err != nil {
		return eris.Wrap(err, "pipeline: export")
	}
	return nil
}

func (p *Pipeline) startRun(ctx context.Context, input, output string) string {
	if p.store == nil {
		return ""
	}
	run, err := p.store.CreateRun(ctx, input, output)
	if err != nil {
		zap.L().Warn("pipeline: failed to record run", zap.Error(err))
		return ""
	}
	return run.ID
}

func (p *Pipeline) finishRun(ctx context.Context, runID string, summary *model.RunSummary, runErr error) {
	if p.store == nil || runID == "" {
		return
	}
	var err error
	if runErr != nil {
		err = p.store.FailRun(ctx, runID, summary, runErr)
	} else {
		err = p.store.CompleteRun(ctx, runID, summary)
	}
	if err != nil {
		zap.L().Warn("pipeline: failed to update run", zap.String("run_id", runID), zap.Error(err))
	}
}

func logSummary(log *zap.Logger, s *model.RunSummary) {
	skipped := make([]zap.Field, 0, len(s.Skipped))
	for reason, n := range s.Skipped {
		skipped = append(skipped, zap.Int(string(reason), n))
	}

	log.Info("pipeline: rows read",
		zap.String("strategy", string(s.Strategy)),
		zap.Int("rows", s.RowsRead),
		zap.Int("records", s.Records),
		zap.Dict("skipped", skipped...),
	)
	log.Info("pipeline: addresses found",
		zap.Int("addresses", s.Addresses),
		zap.Int("exported", s.Exported),
		zap.Int("dropped", s.Dropped),
		zap.Int("geocoded", s.Geocoded),
	)

	ratio := 0.0
	if s.Exported > 0 {
		ratio = float64(s.NoisyAddresses) / float64(s.Exported)
	}
	log.Info("pipeline: noise",
		zap.Int("noisy", s.NoisyAddresses),
		zap.Int("quiet", s.QuietAddresses),
		zap.Float64("noisy_ratio", ratio),
	)
	log.Info("pipeline: frequency",
		zap.Int(string(model.FrequencyHigh), s.Frequencies[model.FrequencyHigh]),
		zap.Int(string(model.FrequencyMedium), s.Frequencies[model.FrequencyMedium]),
		zap.Int(string(model.FrequencyLow), s.Frequencies[model.FrequencyLow]),
		zap.Int64("duration_ms", s.DurationMs),
	)
}
