package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"crimemap/geo"
	"crimemap/report"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// viewQuery is the filter state shared by the dashboard, API and exports.
type viewQuery struct {
	Period int
	Search string
	Metric report.Metric
}

type RecordRow struct {
	Region     string
	CountA     int
	CountB     int
	CountTotal int
	Color      string
}

type MetricOption struct {
	Value    string
	Label    string
	Selected bool
}

type DashboardView struct {
	Title      string
	Loading    bool
	Source     string
	ImportedAt string
	Periods    []int
	Period     int
	Search     string
	Metrics    []MetricOption
	Summary    report.Summary
	Legend     []geo.LegendEntry
	Rows       []RecordRow
	HasMap     bool
	MapURL     string
	ExportURL  string
	Unmatched  []string
}

// parseViewQuery reads year, q and metric. A missing year selects the latest
// period of the dataset.
func parseViewQuery(values url.Values, dataset *report.Dataset) (viewQuery, error) {
	query := viewQuery{
		Period: dataset.LatestPeriod(),
		Search: values.Get("q"),
	}

	if raw := strings.TrimSpace(values.Get("year")); raw != "" {
		period, err := strconv.Atoi(raw)
		if err != nil || period <= 0 {
			return viewQuery{}, fmt.Errorf("invalid year %q", raw)
		}
		query.Period = period
	}

	metric, ok := report.ParseMetric(values.Get("metric"))
	if !ok {
		return viewQuery{}, fmt.Errorf("invalid metric %q (valid: total, male, female)", values.Get("metric"))
	}
	query.Metric = metric
	return query, nil
}

func (q viewQuery) encode() string {
	values := url.Values{}
	if q.Period != report.NoPeriod {
		values.Set("year", strconv.Itoa(q.Period))
	}
	if q.Search != "" {
		values.Set("q", q.Search)
	}
	if q.Metric != "" && q.Metric != report.MetricTotal {
		values.Set("metric", string(q.Metric))
	}
	return values.Encode()
}

func withQuery(path string, q viewQuery) string {
	encoded := q.encode()
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}

// BuildDashboardView assembles the dashboard page for a filtered view.
func BuildDashboardView(title string, dataset *report.Dataset, boundaries *geo.Boundaries, q viewQuery, records []report.Record, scale geo.Scale) DashboardView {
	view := DashboardView{
		Title:     title,
		Periods:   dataset.Periods(),
		Period:    q.Period,
		Search:    q.Search,
		Metrics:   metricOptions(q.Metric),
		Summary:   report.Summarize(records, q.Metric),
		Legend:    scale.Legend(),
		Rows:      make([]RecordRow, 0, len(records)),
		HasMap:    boundaries != nil,
		MapURL:    withQuery("/map.svg", q),
		ExportURL: withQuery("/export.csv", q),
	}
	if dataset != nil {
		view.Source = dataset.Source
		view.ImportedAt = dataset.ImportedAt.Format("2006-01-02 15:04")
	}

	for _, record := range records {
		view.Rows = append(view.Rows, RecordRow{
			Region:     record.Region,
			CountA:     record.CountA,
			CountB:     record.CountB,
			CountTotal: record.CountTotal,
			Color:      scale.ColorFor(q.Metric.Value(record)),
		})
	}

	if boundaries != nil {
		joined := geo.Join(records, boundaries)
		for _, record := range joined.UnmatchedRecords {
			view.Unmatched = append(view.Unmatched, record.Region)
		}
	}
	return view
}

func metricOptions(selected report.Metric) []MetricOption {
	metrics := []report.Metric{report.MetricTotal, report.MetricMale, report.MetricFemale}
	options := make([]MetricOption, 0, len(metrics))
	for _, metric := range metrics {
		options = append(options, MetricOption{
			Value:    string(metric),
			Label:    metric.Label(),
			Selected: metric == selected,
		})
	}
	return options
}

// formatCount renders counts with thousands separators, e.g. "12,000".
func formatCount(value int) string {
	return numberPrinter.Sprintf("%d", value)
}

func formatDecimal(value float64) string {
	return numberPrinter.Sprintf("%.1f", value)
}
