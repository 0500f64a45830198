package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/pipeline"
)

var (
	analyzeAccidents string
	analyzeWeather   string
	analyzeOutDir    string
	analyzeEps       float64
	analyzeMinPts    int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis batch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if analyzeEps > 0 {
			cfg.Cluster.EpsMeters = analyzeEps
		}
		if analyzeMinPts > 0 {
			cfg.Cluster.MinPts = analyzeMinPts
		}
		if analyzeOutDir != "" {
			cfg.Report.OutDir = analyzeOutDir
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p := pipeline.New(cfg, st, os.Stdout)
		result, err := p.Run(ctx, analyzeAccidents, analyzeWeather, cfg.Report.OutDir)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("analysis complete",
			zap.String("run", result.Run.ID),
			zap.Int("records", result.Run.Records),
			zap.Int("districts", result.Run.Districts),
			zap.Int("clusters", result.Run.Clusters),
			zap.String("out_dir", cfg.Report.OutDir),
		)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeAccidents, "accidents", "", "path to accident GeoJSON or shapefile (required)")
	analyzeCmd.Flags().StringVar(&analyzeWeather, "weather", "", "path to hourly weather XLSX (required)")
	analyzeCmd.Flags().StringVar(&analyzeOutDir, "out-dir", "", "output directory for artifacts")
	analyzeCmd.Flags().Float64Var(&analyzeEps, "eps", 0, "DBSCAN neighborhood radius in meters")
	analyzeCmd.Flags().IntVar(&analyzeMinPts, "min-pts", 0, "DBSCAN minimum neighbors")
	_ = analyzeCmd.MarkFlagRequired("accidents")
	_ = analyzeCmd.MarkFlagRequired("weather")
	rootCmd.AddCommand(analyzeCmd)
}
