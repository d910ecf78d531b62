package report

import (
	"sort"
	"time"
)

// Dataset is an immutable, loaded set of records. Consumers derive filtered
// views from it; nothing mutates it after construction.
type Dataset struct {
	ID         string
	Source     string
	ImportedAt time.Time
	records    []Record
}

func NewDataset(id, source string, importedAt time.Time, records []Record) *Dataset {
	return &Dataset{
		ID:         id,
		Source:     source,
		ImportedAt: importedAt,
		records:    append([]Record(nil), records...),
	}
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Records returns a copy of all records in load order.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	return append([]Record(nil), d.records...)
}

func (d *Dataset) Filter(period int, search string) []Record {
	if d == nil {
		return []Record{}
	}
	return Filter(d.records, period, search)
}

// Periods returns the distinct periods present, ascending.
func (d *Dataset) Periods() []int {
	if d == nil {
		return nil
	}
	seen := make(map[int]struct{})
	out := make([]int, 0, 8)
	for _, record := range d.records {
		if _, ok := seen[record.Period]; ok {
			continue
		}
		seen[record.Period] = struct{}{}
		out = append(out, record.Period)
	}
	sort.Ints(out)
	return out
}

// LatestPeriod returns the highest period, or NoPeriod for an empty dataset.
func (d *Dataset) LatestPeriod() int {
	periods := d.Periods()
	if len(periods) == 0 {
		return NoPeriod
	}
	return periods[len(periods)-1]
}
