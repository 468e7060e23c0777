package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gradient-spp/noisemap/internal/export"
	"github.com/gradient-spp/noisemap/internal/noisemap"
)

var (
	pointsFile  string
	pointsCount int
	pointsAll   bool
)

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Print noisy map points from the results file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file := pointsFile
		if file == "" {
			file = cfg.Output.Path
		}

		points, err := noisemap.Load(file)
		if err != nil {
			return err
		}
		if !pointsAll {
			points = noisemap.Noisy(points)
		}
		points = noisemap.Sample(points, pointsCount, nil)

		return writePoints(cmd.OutOrStdout(), points)
	},
}

func init() {
	pointsCmd.Flags().StringVar(&pointsFile, "file", "", "results file, defaults to output.path")
	pointsCmd.Flags().IntVar(&pointsCount, "count", 0, "number of points to sample (0 = all)")
	pointsCmd.Flags().BoolVar(&pointsAll, "all", false, "include quiet addresses")
	rootCmd.AddCommand(pointsCmd)
}

func writePoints(w io.Writer, points []export.Record) error {
	if points == nil {
		points = []export.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(points), "points: encode")
}
