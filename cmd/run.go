package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gradient-spp/noisemap/internal/aggregate"
	"github.com/gradient-spp/noisemap/internal/classify"
	"github.com/gradient-spp/noisemap/internal/complaint"
	"github.com/gradient-spp/noisemap/internal/config"
	"github.com/gradient-spp/noisemap/internal/fetcher"
	"github.com/gradient-spp/noisemap/internal/model"
	"github.com/gradient-spp/noisemap/internal/pipeline"
	"github.com/gradient-spp/noisemap/internal/resilience"
	"github.com/gradient-spp/noisemap/internal/resolve"
	"github.com/gradient-spp/noisemap/pkg/geocode"
)

var (
	runInput     string
	runOutput    string
	runDelimiter string
	runNoGeocode bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the noise map file from a complaint export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		applyRunFlags(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Init geocoder (optional)
		var client geocode.Client
		if !runNoGeocode {
			client = initGeocoder(cfg.Geocode)
		}
		if client != nil {
			defer client.Close()
		}

		res, err := buildResolver(ctx, client, cfg.Geocode)
		if err != nil {
			return err
		}

		var opts []pipeline.Option
		if cfg.History.Enabled {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			opts = append(opts, pipeline.WithStore(st))
		}

		input, cleanup, err := stageInput(ctx, cfg.Input.Path)
		if err != nil {
			return err
		}
		defer cleanup()

		parser := complaint.NewParser(complaint.ParseOptions{
			Delimiter: cfg.Input.DelimiterRune(),
			Encoding:  cfg.Input.Encoding,
		})
		p := pipeline.New(parser, aggregate.New(classify.New(), res), opts...)

		summary, err := p.Run(ctx, input, cfg.Output.Path)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		printSummary(cmd.OutOrStdout(), cfg.Output.Path, summary)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "complaint export (.csv, .xlsx, .zip or http(s) URL), overrides input.path")
	runCmd.Flags().StringVar(&runOutput, "output", "", "results file, overrides output.path")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", `field delimiter (";", ",", "\t"); detected when empty`)
	runCmd.Flags().BoolVar(&runNoGeocode, "no-geocode", false, "use CSV coordinates only")
	rootCmd.AddCommand(runCmd)
}

// stageInput downloads or unpacks the input when it is a URL or a .zip
// archive. cleanup removes anything staged.
func stageInput(ctx context.Context, input string) (string, func(), error) {
	if !fetcher.NeedsStaging(input) {
		return input, func() {}, nil
	}

	workDir, err := os.MkdirTemp("", "noisemap-input-*")
	if err != nil {
		return "", nil, eris.Wrap(err, "create staging directory")
	}
	cleanup := func() { _ = os.RemoveAll(workDir) }

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	local, err := fetcher.NewStager(f, workDir).Stage(ctx, input)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return local, cleanup, nil
}

func applyRunFlags(c *config.Config) {
	if runInput != "" {
		c.Input.Path = runInput
	}
	if runOutput != "" {
		c.Output.Path = runOutput
	}
	if runDelimiter != "" {
		c.Input.Delimiter = runDelimiter
	}
}

// initGeocoder builds the 2GIS client. Without an API key it returns nil and
// the run relies on CSV coordinates.
func initGeocoder(gc config.GeocodeConfig) geocode.Client {
	if gc.APIKey == "" {
		zap.L().Warn("geocode.api_key not set, addresses without coordinates will be dropped")
		return nil
	}

	breakerCfg := resilience.FromCircuitConfig(gc.Circuit.FailureThreshold, gc.Circuit.ResetTimeoutSecs)
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("geocode: circuit state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return geocode.NewDGIS(gc.APIKey,
		geocode.WithBaseURL(gc.BaseURL),
		geocode.WithTimeout(time.Duration(gc.TimeoutSecs)*time.Second),
		geocode.WithRateLimit(gc.RateLimit),
		geocode.WithRetry(resilience.FromRetryConfig(gc.Retry.MaxAttempts, gc.Retry.InitialBackoffMs, gc.Retry.MaxBackoffMs)),
		geocode.WithCircuitBreaker(resilience.NewCircuitBreaker(breakerCfg)),
	)
}

// buildResolver wires the per-run cache and lookup options around client.
// A nil client yields a nil resolver.
func buildResolver(ctx context.Context, client geocode.Client, gc config.GeocodeConfig) (aggregate.Resolver, error) {
	if client == nil {
		return nil, nil
	}

	cache, err := resolve.NewCache(gc.CacheSize)
	if err != nil {
		return nil, err
	}

	r, err := resolve.New(client,
		resolve.WithCity(gc.City),
		resolve.WithGeocodeOptions(geocodeOptions(ctx, client, gc)),
		resolve.WithCache(cache),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func geocodeOptions(ctx context.Context, client geocode.Client, gc config.GeocodeConfig) geocode.Options {
	opts := geocode.Options{CityID: gc.CityID}

	if opts.CityID == "" && gc.ResolveCityID && gc.City != "" {
		id, err := client.ResolveCityID(ctx, gc.City)
		switch {
		case err != nil:
			zap.L().Warn("geocode: city id lookup failed", zap.String("city", gc.City), zap.Error(err))
		case id == "":
			zap.L().Warn("geocode: unknown city", zap.String("city", gc.City))
		default:
			zap.L().Info("geocode: resolved city id", zap.String("city", gc.City), zap.String("city_id", id))
			opts.CityID = id
		}
	}

	if b := gc.BBox; len(b) == 4 {
		opts.BBox = geocode.NewBBox(b[0], b[1], b[2], b[3])
	}
	return opts
}

func printSummary(w io.Writer, output string, s *model.RunSummary) {
	_, _ = fmt.Fprintf(w, "Wrote %d addresses to %s (%d noisy, %d quiet, %d dropped) from %d records in %dms\n",
		s.Exported, output, s.NoisyAddresses, s.QuietAddresses, s.Dropped, s.Records, s.DurationMs)
}
