package geo

import (
	"strings"

	"crimemap/report"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Joined pairs boundary features with records by region name.
type Joined struct {
	// ByFeature maps a feature index to its record.
	ByFeature map[int]report.Record
	// UnmatchedRecords have no feature, or repeat a region already matched.
	UnmatchedRecords []report.Record
	// UnmatchedFeatures are feature names with no record.
	UnmatchedFeatures []string
}

// Join matches records to features by name, ignoring case and surrounding
// whitespace. The first record for a region wins.
func Join(records []report.Record, boundaries *Boundaries) Joined {
	joined := Joined{ByFeature: make(map[int]report.Record)}
	if boundaries == nil {
		joined.UnmatchedRecords = append(joined.UnmatchedRecords, records...)
		return joined
	}

	index := make(map[string]int, len(boundaries.Features))
	for i, feature := range boundaries.Features {
		key := joinKey(feature.Name)
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}

	for _, record := range records {
		i, ok := index[joinKey(record.Region)]
		if !ok {
			joined.UnmatchedRecords = append(joined.UnmatchedRecords, record)
			continue
		}
		if _, taken := joined.ByFeature[i]; taken {
			joined.UnmatchedRecords = append(joined.UnmatchedRecords, record)
			continue
		}
		joined.ByFeature[i] = record
	}

	for i, feature := range boundaries.Features {
		if _, ok := joined.ByFeature[i]; !ok {
			joined.UnmatchedFeatures = append(joined.UnmatchedFeatures, feature.Name)
		}
	}

	return joined
}

func (j Joined) Record(featureIndex int) (report.Record, bool) {
	record, ok := j.ByFeature[featureIndex]
	return record, ok
}

func joinKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}
