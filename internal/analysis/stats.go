package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

// NumSummary holds descriptive statistics for one numeric field over the valid values.
// Statistics that cannot be computed for the sample size are missing.
type NumSummary struct {
	Field   survey.Field `json:"field"`
	Count   int          `json:"count"`
	Missing int          `json:"missing"`
	Mean    survey.Num   `json:"mean"`
	Median  survey.Num   `json:"median"`
	Std     survey.Num   `json:"std"`
	Min     survey.Num   `json:"min"`
	Max     survey.Num   `json:"max"`
	P25     survey.Num   `json:"p25"`
	P75     survey.Num   `json:"p75"`
	// Outliers counts values whose robust z-score (MAD based) exceeds OutlierThreshold.
	Outliers         int     `json:"outliers"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
}

// values collects the valid values of a numeric field and counts the missing ones.
func values(rows []survey.Row, f survey.Field) (vals []float64, missing int) {
	vals = make([]float64, 0, len(rows))
	for _, r := range rows {
		n, ok := r.Numeric(f)
		if !ok || !n.Valid {
			missing++
			continue
		}
		vals = append(vals, n.V)
	}
	return vals, missing
}

func num(v float64, err error) survey.Num {
	if err != nil {
		return survey.Missing()
	}
	return survey.Some(v)
}

// Describe summarizes a numeric field. threshold <= 0 disables outlier counting.
func Describe(rows []survey.Row, f survey.Field, threshold float64) NumSummary {
	vals, missing := values(rows, f)
	s := NumSummary{
		Field: f, Count: len(vals), Missing: missing,
		Mean: survey.Missing(), Median: survey.Missing(), Std: survey.Missing(),
		Min: survey.Missing(), Max: survey.Missing(), P25: survey.Missing(), P75: survey.Missing(),
	}
	if len(vals) == 0 {
		return s
	}
	data := stats.Float64Data(vals)
	s.Mean = num(stats.Mean(data))
	s.Median = num(stats.Median(data))
	s.Min = num(stats.Min(data))
	s.Max = num(stats.Max(data))
	s.P25 = num(stats.Percentile(data, 25))
	s.P75 = num(stats.Percentile(data, 75))
	if len(vals) >= 2 {
		s.Std = num(stats.StandardDeviationSample(data))
	}
	if threshold > 0 {
		s.OutlierThreshold = threshold
		s.Outliers = countOutliers(data, threshold)
	}
	return s
}

// countOutliers uses the robust z-score 0.6745*(x-median)/MAD. A zero MAD flags nothing.
func countOutliers(data stats.Float64Data, threshold float64) int {
	median, err := stats.Median(data)
	if err != nil {
		return 0
	}
	mad, err := stats.MedianAbsoluteDeviation(data)
	if err != nil || mad == 0 {
		return 0
	}
	n := 0
	for _, v := range data {
		if math.Abs(0.6745*(v-median)/mad) > threshold {
			n++
		}
	}
	return n
}
