package report

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the records of the given period whose region contains search,
// compared with Unicode case folding. Whitespace in search is significant;
// only the empty string keeps every record of the period. The input slice is not modified and order is preserved.
func Filter(records []Record, period int, search string) []Record {
	folder := cases.Fold()
	needle := folder.String(search)
	out := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Period != period {
			continue
		}
		if search != "" && !strings.Contains(folder.String(record.Region), needle) {
			continue
		}
		out = append(out, record)
	}
	return out
}

// normalizeSearch folds value for comparison. A Caser is not safe for
// concurrent use, so each call builds its own.
func normalizeSearch(value string) string {
	return cases.Fold().String(strings.TrimSpace(value))
}
