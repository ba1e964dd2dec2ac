package stats

import (
	"fmt"
	"math"
	"slices"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregation selects the global statistic computed by SummaryStatistic.
type Aggregation string

const (
	AggregationMin        Aggregation = "min"
	AggregationMean       Aggregation = "mean"
	AggregationMedian     Aggregation = "median"
	AggregationMax        Aggregation = "max"
	AggregationStd        Aggregation = "std"
	AggregationVar        Aggregation = "var"
	AggregationSum        Aggregation = "sum"
	AggregationCount      Aggregation = "count"
	AggregationMode       Aggregation = "mode"
	AggregationPercentile Aggregation = "percentile"
)

// Aggregations lists every supported aggregation.
var Aggregations = []Aggregation{
	AggregationMin, AggregationMean, AggregationMedian, AggregationMax, AggregationStd,
	AggregationVar, AggregationSum, AggregationCount, AggregationMode, AggregationPercentile,
}

// ParseAggregation validates an aggregation name.
func ParseAggregation(s string) (Aggregation, error) {
	agg := Aggregation(s)
	if !slices.Contains(Aggregations, agg) {
		return "", sonify.Unsupported("aggregation type", s)
	}
	return agg, nil
}

// SummaryStatistic broadcasts one aggregate of the column to every row of the
// output column. percentile is only read for AggregationPercentile and must
// then lie in [0, 1]. When to is empty the column is named "<on>_<agg>".
func SummaryStatistic(f *sonify.Frame, on, to string, agg Aggregation, percentile *float64) (*sonify.Frame, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("summary statistic: %w", err)
	}
	value, err := Summarize(values, agg, percentile)
	if err != nil {
		return nil, fmt.Errorf("summary statistic: %w", err)
	}

	out := make([]float64, len(values))
	for i := range out {
		out[i] = value
	}
	return f.WithFloats(columnName(to, on, string(agg)), out)
}

// Summarize computes a single aggregate. NaN samples are dropped first; an
// empty remainder is an error rather than a default value.
func Summarize(values []float64, agg Aggregation, percentile *float64) (float64, error) {
	if agg == AggregationPercentile && (percentile == nil || *percentile < 0 || *percentile > 1) {
		return 0, sonify.ErrInvalidPercentile
	}

	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 0, fmt.Errorf("%w: no values left to aggregate", sonify.ErrEmptyInput)
	}

	switch agg {
	case AggregationMin:
		return floats.Min(clean), nil
	case AggregationMean:
		return stat.Mean(clean, nil), nil
	case AggregationMedian:
		return median(clean), nil
	case AggregationMax:
		return floats.Max(clean), nil
	case AggregationStd, AggregationVar:
		if len(clean) < 2 {
			return 0, fmt.Errorf("%w: %s needs at least two values", sonify.ErrInvalidParameter, agg)
		}
		if agg == AggregationStd {
			return stat.StdDev(clean, nil), nil
		}
		return stat.Variance(clean, nil), nil
	case AggregationSum:
		return floats.Sum(clean), nil
	case AggregationCount:
		return float64(len(clean)), nil
	case AggregationMode:
		return mode(clean), nil
	case AggregationPercentile:
		return quantile(clean, *percentile), nil
	default:
		return 0, sonify.Unsupported("aggregation type", agg)
	}
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// quantile interpolates linearly between the closest ranks: position
// (n-1)*p in the sorted sample.
func quantile(values []float64, p float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	pos := float64(len(sorted)-1) * p
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// mode returns the most frequent value, the smallest one on ties.
func mode(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}
