package report

// NoPeriod marks "no period header seen yet" while scanning a report sheet.
const NoPeriod = 0

// Record is one parsed row of the offender table: a region's counts for a
// single reporting period. CountTotal is the source's own total and is not
// derived from CountA and CountB.
type Record struct {
	ID         int64  `json:"-" db:"id"`
	Region     string `json:"county" db:"region"`
	Period     int    `json:"year" db:"period"`
	CountA     int    `json:"male" db:"count_a"`
	CountB     int    `json:"female" db:"count_b"`
	CountTotal int    `json:"total" db:"count_total"`
}

// Metric selects which count of a record drives map colouring.
type Metric string

const (
	MetricTotal  Metric = "total"
	MetricMale   Metric = "male"
	MetricFemale Metric = "female"
)

// ParseMetric accepts the metric names plus the labels used by the dashboard
// selector ("Total", "Male", "Female"). Empty input selects MetricTotal.
func ParseMetric(value string) (Metric, bool) {
	switch normalizeSearch(value) {
	case "", "total":
		return MetricTotal, true
	case "male":
		return MetricMale, true
	case "female":
		return MetricFemale, true
	default:
		return "", false
	}
}

func (m Metric) Label() string {
	switch m {
	case MetricMale:
		return "Male Offenders"
	case MetricFemale:
		return "Female Offenders"
	default:
		return "Total Crimes"
	}
}

// Value returns the record count selected by m.
func (m Metric) Value(record Record) int {
	switch m {
	case MetricMale:
		return record.CountA
	case MetricFemale:
		return record.CountB
	default:
		return record.CountTotal
	}
}
