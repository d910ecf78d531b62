package importer

import (
	"strconv"
	"strings"
)

// parseCount converts a cell to a non-negative count. Blank, boolean and
// non-numeric cells count as zero; a numeric prefix is honoured ("12 (est)"
// is 12, "7.9" is 7) and thousands separators are ignored.
func parseCount(cell Cell) int {
	if cell.Kind == CellEmpty || cell.Kind == CellBool {
		return 0
	}

	cleaned := strings.TrimSpace(cell.Text)
	cleaned = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(cleaned)

	end := 0
	if end < len(cleaned) && (cleaned[end] == '-' || cleaned[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(cleaned) && cleaned[end] >= '0' && cleaned[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	value, err := strconv.Atoi(cleaned[:end])
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func looksNumeric(value string) bool {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(cleaned, ",", ""), 64)
	return err == nil
}

func normalizeFormat(input string) string {
	return strings.TrimSpace(strings.ToLower(input))
}
