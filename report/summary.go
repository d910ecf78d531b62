package report

import (
	"github.com/montanaflynn/stats"
)

// Summary aggregates a filtered view for the dashboard summary panel.
type Summary struct {
	Regions    int     `json:"regions"`
	CountA     int     `json:"male"`
	CountB     int     `json:"female"`
	CountTotal int     `json:"total"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Max        float64 `json:"max"`
}

// Summarize sums the counts of records and describes the distribution of the
// selected metric. An empty input yields a zero Summary.
func Summarize(records []Record, metric Metric) Summary {
	var summary Summary
	if len(records) == 0 {
		return summary
	}

	values := make(stats.Float64Data, 0, len(records))
	for _, record := range records {
		summary.CountA += record.CountA
		summary.CountB += record.CountB
		summary.CountTotal += record.CountTotal
		values = append(values, float64(metric.Value(record)))
	}
	summary.Regions = len(records)

	// errors only occur on empty input, which is handled above
	summary.Mean, _ = stats.Mean(values)
	summary.Median, _ = stats.Median(values)
	summary.Max, _ = stats.Max(values)
	return summary
}
