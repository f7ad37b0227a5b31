package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trendcast",
		Short: "Commodity price trend forecasting",
		Long: `TrendCast forecasts daily commodity prices with a cross-validated linear
trend or Holt exponential smoothing, from a CSV file or as an HTTP service.`,
		SilenceUsage: true,
	}
	root.AddCommand(newForecastCmd(), newServeCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
