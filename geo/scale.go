package geo

import (
	"fmt"
	"math"
	"strings"

	"crimemap/report"

	"github.com/montanaflynn/stats"
)

const (
	ScaleFixed    = "fixed"
	ScaleQuantile = "quantile"

	// NoDataColor fills regions without a record.
	NoDataColor = "#D9D9D9"
)

var scaleColors = []string{"#FFEDA0", "#FED976", "#FEB24C", "#FD8D3C", "#FC4E2A", "#E31A1C", "#BD0026", "#800026"}

var fixedGrades = []int{0, 50, 200, 500, 1000, 2000, 5000, 10000}

// Grade is the lower bound of one colour band.
type Grade struct {
	Min   int
	Color string
}

type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Min   int    `json:"min"`
}

// Scale maps a count to a colour band. Bands are ascending by Min.
type Scale struct {
	grades []Grade
}

func FixedScale() Scale {
	grades := make([]Grade, len(fixedGrades))
	for i, min := range fixedGrades {
		grades[i] = Grade{Min: min, Color: scaleColors[i]}
	}
	return Scale{grades: grades}
}

// QuantileScale derives band bounds from the data's percentiles so each band
// holds a similar number of regions. It falls back to FixedScale when the
// data is too small to split.
func QuantileScale(values []int) Scale {
	data := make(stats.Float64Data, 0, len(values))
	for _, value := range values {
		data = append(data, float64(value))
	}

	grades := []Grade{{Min: 0, Color: scaleColors[0]}}
	step := 100.0 / float64(len(scaleColors))
	for i := 1; i < len(scaleColors); i++ {
		percentile, err := stats.Percentile(data, step*float64(i))
		if err != nil || math.IsNaN(percentile) {
			continue
		}
		bound := int(math.Ceil(percentile))
		if bound <= grades[len(grades)-1].Min {
			continue
		}
		grades = append(grades, Grade{Min: bound})
	}
	if len(grades) < 2 {
		return FixedScale()
	}

	// spread the palette so the darkest colour always marks the top band
	for i := range grades {
		grades[i].Color = scaleColors[i*(len(scaleColors)-1)/(len(grades)-1)]
	}
	return Scale{grades: grades}
}

// NewScale builds a scale by mode name; values feed the quantile mode.
func NewScale(mode string, values []int) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ScaleFixed:
		return FixedScale(), nil
	case ScaleQuantile:
		return QuantileScale(values), nil
	default:
		return Scale{}, fmt.Errorf("unsupported map scale: %s", mode)
	}
}

// RecordScale builds the scale for mode from the metric of every record,
// whether or not the record has a boundary.
func RecordScale(mode string, records []report.Record, metric report.Metric) (Scale, error) {
	values := make([]int, 0, len(records))
	for _, record := range records {
		values = append(values, metric.Value(record))
	}
	return NewScale(mode, values)
}

func (s Scale) Grades() []Grade {
	return append([]Grade(nil), s.grades...)
}

// ColorFor returns the colour of the highest band whose lower bound value
// reaches.
func (s Scale) ColorFor(value int) string {
	if len(s.grades) == 0 {
		return NoDataColor
	}
	for i := len(s.grades) - 1; i >= 0; i-- {
		if value >= s.grades[i].Min {
			return s.grades[i].Color
		}
	}
	return s.grades[0].Color
}

// Legend labels each band "<min> - <next-1>", the last one "<min>+".
func (s Scale) Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(s.grades))
	for i, grade := range s.grades {
		label := fmt.Sprintf("%d+", grade.Min)
		if i < len(s.grades)-1 {
			label = fmt.Sprintf("%d - %d", grade.Min, s.grades[i+1].Min-1)
		}
		entries = append(entries, LegendEntry{Label: label, Color: grade.Color, Min: grade.Min})
	}
	return entries
}
