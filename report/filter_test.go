package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{Region: "Nairobi City", Period: 2023, CountA: 120, CountB: 30, CountTotal: 150},
		{Region: "Kisumu", Period: 2023, CountA: 40, CountB: 10, CountTotal: 50},
		{Region: "Nairobi City", Period: 2022, CountA: 100, CountB: 20, CountTotal: 120},
		{Region: "Murang'a", Period: 2023, CountA: 5, CountB: 1, CountTotal: 6},
	}
}

func TestFilter(t *testing.T) {
	records := sampleRecords()

	t.Run("empty search keeps every record of the period in order", func(t *testing.T) {
		got := Filter(records, 2023, "")
		require.Len(t, got, 3)
		assert.Equal(t, "Nairobi City", got[0].Region)
		assert.Equal(t, "Kisumu", got[1].Region)
		assert.Equal(t, "Murang'a", got[2].Region)
	})

	t.Run("search is case insensitive substring", func(t *testing.T) {
		got := Filter(records, 2023, "nAIRobi")
		require.Len(t, got, 1)
		assert.Equal(t, 150, got[0].CountTotal)
	})

	t.Run("whitespace is part of the search", func(t *testing.T) {
		spaced := []Record{
			{Region: "Nairobi City", Period: 2023},
			{Region: "Cityville", Period: 2023},
			{Region: "Kisumu", Period: 2023},
		}

		got := Filter(spaced, 2023, " city")
		require.Len(t, got, 1)
		assert.Equal(t, "Nairobi City", got[0].Region)

		got = Filter(spaced, 2023, " ")
		require.Len(t, got, 1)
		assert.Equal(t, "Nairobi City", got[0].Region)

		assert.Empty(t, Filter(spaced[1:], 2023, " "))
	})

	t.Run("period mismatch excludes matching regions", func(t *testing.T) {
		got := Filter(records, 2021, "Nairobi")
		assert.Empty(t, got)
	})

	t.Run("input slice is untouched", func(t *testing.T) {
		before := append([]Record(nil), records...)
		_ = Filter(records, 2023, "kis")
		assert.Equal(t, before, records)
	})
}

func TestFilter_Idempotent(t *testing.T) {
	records := sampleRecords()
	for _, search := range []string{"", "a", "KISUMU", "zzz"} {
		once := Filter(records, 2023, search)
		twice := Filter(once, 2023, search)
		assert.Equal(t, once, twice, "search %q", search)
	}
}

func TestDataset(t *testing.T) {
	records := sampleRecords()
	ds := NewDataset("id-1", "book.xlsx", zeroTime, records)
	records[0].Region = "mutated"

	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, []int{2022, 2023}, ds.Periods())
	assert.Equal(t, 2023, ds.LatestPeriod())
	assert.Equal(t, "Nairobi City", ds.Records()[0].Region)
	assert.Len(t, ds.Filter(2022, ""), 1)

	var empty *Dataset
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, NoPeriod, empty.LatestPeriod())
	assert.Empty(t, empty.Filter(2023, ""))
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		input string
		want  Metric
		ok    bool
	}{
		{input: "", want: MetricTotal, ok: true},
		{input: "Total", want: MetricTotal, ok: true},
		{input: "Male", want: MetricMale, ok: true},
		{input: "female", want: MetricFemale, ok: true},
		{input: "other", ok: false},
	}
	for _, tc := range tests {
		got, ok := ParseMetric(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}

	record := Record{CountA: 1, CountB: 2, CountTotal: 7}
	assert.Equal(t, 1, MetricMale.Value(record))
	assert.Equal(t, 2, MetricFemale.Value(record))
	assert.Equal(t, 7, MetricTotal.Value(record))
}
