package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/fetcher"
	"github.com/statadvice/accidents/internal/report"
	"github.com/statadvice/accidents/pkg/openmeteo"
)

var (
	weatherStart string
	weatherEnd   string
	weatherOut   string
)

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Download hourly weather archive into the weather XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		client := openmeteo.NewClient(
			openmeteo.WithBaseURL(cfg.Weather.BaseURL),
			openmeteo.WithRateLimit(cfg.Weather.RequestsPerSecond),
		)

		resp, err := client.Hourly(ctx, cfg.Weather.Latitude, cfg.Weather.Longitude, weatherStart, weatherEnd)
		if err != nil {
			return eris.Wrap(err, "fetch weather archive")
		}

		obs, err := fetcher.FromOpenMeteo(resp)
		if err != nil {
			return err
		}

		if err := report.WriteWeatherXLSX(weatherOut, obs); err != nil {
			return err
		}

		zap.L().Info("weather archive saved",
			zap.String("path", weatherOut),
			zap.Int("hours", len(obs)),
			zap.String("start", weatherStart),
			zap.String("end", weatherEnd),
		)
		return nil
	},
}

func init() {
	weatherCmd.Flags().StringVar(&weatherStart, "start", "2022-01-01", "start date (YYYY-MM-DD)")
	weatherCmd.Flags().StringVar(&weatherEnd, "end", "2024-12-31", "end date (YYYY-MM-DD)")
	weatherCmd.Flags().StringVar(&weatherOut, "out", "weather.xlsx", "output XLSX path")
	rootCmd.AddCommand(weatherCmd)
}
