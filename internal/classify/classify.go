// Package classify decides whether a report row label is data or metadata.
//
// Report sheets carry no structural marker for data rows, so the decision is
// an ordered chain of rejection predicates: substring denylist, exact-label
// denylist, "no period seen yet" and, in closed mode, membership in a
// known-good region set.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type Reason string

const (
	ReasonAccepted          Reason = "accepted"
	ReasonPeriodMarker      Reason = "period_marker"
	ReasonEmptyLabel        Reason = "empty_label"
	ReasonRejectedSubstring Reason = "rejected_substring"
	ReasonRejectedLabel     Reason = "rejected_label"
	ReasonNoPeriod          Reason = "no_period"
	ReasonUnknownRegion     Reason = "unknown_region"
)

// AllReasons lists every reason in evaluation order.
func AllReasons() []Reason {
	return []Reason{
		ReasonPeriodMarker,
		ReasonEmptyLabel,
		ReasonRejectedSubstring,
		ReasonRejectedLabel,
		ReasonNoPeriod,
		ReasonUnknownRegion,
		ReasonAccepted,
	}
}

type RegionMode string

const (
	// RegionModeOpen accepts any label that no rejection rule matches.
	RegionModeOpen RegionMode = "open"
	// RegionModeClosed additionally requires the label to be a known region.
	RegionModeClosed RegionMode = "closed"
)

// PeriodMarker maps a label fragment to the period it starts.
type PeriodMarker struct {
	Label  string
	Period int
}

// Rules is the injected configuration of the row classifier.
type Rules struct {
	PeriodMarkers    []PeriodMarker
	RejectSubstrings []string
	RejectLabels     []string
	KnownRegions     []string
	RegionMode       RegionMode
}

// Classifier is a compiled Rules value. The zero value rejects nothing.
type Classifier struct {
	markers      []PeriodMarker
	substrings   []string
	labels       map[string]struct{}
	knownRegions map[string]struct{}
	mode         RegionMode
}

func New(rules Rules) *Classifier {
	c := &Classifier{
		markers:      make([]PeriodMarker, 0, len(rules.PeriodMarkers)),
		substrings:   make([]string, 0, len(rules.RejectSubstrings)),
		labels:       make(map[string]struct{}, len(rules.RejectLabels)),
		knownRegions: make(map[string]struct{}, len(rules.KnownRegions)),
		mode:         rules.RegionMode,
	}
	for _, marker := range rules.PeriodMarkers {
		if marker.Label == "" {
			continue
		}
		c.markers = append(c.markers, PeriodMarker{Label: norm.NFC.String(marker.Label), Period: marker.Period})
	}
	for _, value := range rules.RejectSubstrings {
		if value == "" {
			continue
		}
		c.substrings = append(c.substrings, norm.NFC.String(value))
	}
	for _, value := range rules.RejectLabels {
		c.labels[norm.NFC.String(value)] = struct{}{}
	}
	for _, value := range rules.KnownRegions {
		c.knownRegions[regionKey(value)] = struct{}{}
	}
	if c.mode == "" {
		c.mode = RegionModeOpen
	}
	return c
}

// MatchPeriod reports the period of the first configured marker contained in
// label. Markers are tried in configured order.
func (c *Classifier) MatchPeriod(label string) (int, bool) {
	label = norm.NFC.String(label)
	for _, marker := range c.markers {
		if strings.Contains(label, marker.Label) {
			return marker.Period, true
		}
	}
	return 0, false
}

// ClassifyLabel applies the rejection chain to a non-period row label.
// hasPeriod tells whether a period header has been seen before this row.
func (c *Classifier) ClassifyLabel(label string, hasPeriod bool) Reason {
	if strings.TrimSpace(label) == "" {
		return ReasonEmptyLabel
	}
	normalized := norm.NFC.String(label)
	for _, fragment := range c.substrings {
		if strings.Contains(normalized, fragment) {
			return ReasonRejectedSubstring
		}
	}
	if _, denied := c.labels[normalized]; denied {
		return ReasonRejectedLabel
	}
	if !hasPeriod {
		return ReasonNoPeriod
	}
	if c.mode == RegionModeClosed {
		if _, known := c.knownRegions[regionKey(label)]; !known {
			return ReasonUnknownRegion
		}
	}
	return ReasonAccepted
}

func regionKey(value string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(value)))
}
