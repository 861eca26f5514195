package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/pipeline"
)

var (
	runAddress  string
	runRadius   float64
	runStrategy string
	runKeyword  string
	runNoStore  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run discovery and review analytics for an address",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		strategy, err := model.ParseStrategy(runStrategy)
		if err != nil {
			return err
		}

		q := model.SearchQuery{
			Address:     runAddress,
			RadiusMiles: runRadius,
			Strategy:    strategy,
			Keyword:     runKeyword,
		}
		if err := q.Validate(); err != nil {
			return err
		}

		st, err := initOptionalStore(ctx, runNoStore)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		placesClient, err := initPlaces()
		if err != nil {
			return err
		}
		geoClient, err := initGeocoder()
		if err != nil {
			return err
		}

		runner := pipeline.New(cfg, st, geoClient, placesClient)
		result, err := runner.Run(ctx, q)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		stats := placesClient.Stats()
		zap.L().Info("run finished",
			zap.String("summary", pipeline.Describe(result)),
			zap.Int64("api_requests", stats.Requests),
			zap.Int64("api_retries", stats.Retries),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runAddress, "address", "", "search center address (required)")
	runCmd.Flags().Float64Var(&runRadius, "radius", 10, "search radius in miles")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "coverage", "discovery strategy: brand or coverage")
	runCmd.Flags().StringVar(&runKeyword, "keyword", "", "brand or category keyword (required for brand strategy)")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "skip persistence, print results only")
	_ = runCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(runCmd)
}
