package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/stats"
)

var (
	windowSize  int
	degree      int
	aggregation string
	percentile  float64
	deviation   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <operation>",
	Short: "Run a statistics operation",
	Long: `Run a statistics operation over the series in the request ({data: [..]}).

Operations: ` + operationNames() + `

The result is the series on its time axis, rounded to one decimal.
polynomial_fit also reports the degree; without --degree the best one is
searched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		op := services.StatisticOperation(args[0])
		if !slices.Contains(services.StatisticOperations, op) {
			return fmt.Errorf("unknown operation %q, expected one of %s", args[0], operationNames())
		}
		agg, err := stats.ParseAggregation(aggregation)
		if err != nil {
			return err
		}

		var req models.DataRequest
		if err := loadRequest(&req); err != nil {
			return err
		}

		params := services.StatisticParams{
			DurationS:   durationS,
			WindowSize:  cfg.WindowSize,
			Aggregation: agg,
			Deviation:   deviation,
		}
		if cmd.Flags().Changed("window") {
			params.WindowSize = windowSize
		}
		if cmd.Flags().Changed("degree") {
			params.Degree = &degree
		}
		if cmd.Flags().Changed("percentile") {
			params.Percentile = &percentile
		}

		service := newService()
		if op == services.OpPolynomialFit {
			result, err := service.PolynomialFit(context.Background(), req.Data, params)
			if err != nil {
				return err
			}
			return printJSON(result)
		}
		result, err := service.Statistic(context.Background(), op, req.Data, params)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func operationNames() string {
	names := make([]string, len(services.StatisticOperations))
	for i, op := range services.StatisticOperations {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

func init() {
	statsCmd.Flags().IntVar(&windowSize, "window", 5, "rolling average window (default: $WINDOW_SIZE)")
	statsCmd.Flags().IntVar(&degree, "degree", 0, "polynomial degree (default: best fit)")
	statsCmd.Flags().StringVar(&aggregation, "aggregation", string(stats.AggregationMin), "summary aggregation")
	statsCmd.Flags().Float64Var(&percentile, "percentile", 0, "percentile in [0, 1] for the percentile aggregation")
	statsCmd.Flags().BoolVar(&deviation, "deviation", false, "return |value - statistic| instead of the statistic")
}
