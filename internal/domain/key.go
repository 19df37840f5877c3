package domain

import (
	"regexp"
	"strings"
)

// damSuffixRe matches a trailing "dam" with any whitespace before it.
var damSuffixRe = regexp.MustCompile(`(?i)\s*dam$`)

// Reserved names of the synthetic aggregate entities in the geo collection.
const (
	AggregateBig6 = "Big 6 Total"
	AggregateBig5 = "Big 5 Total"
)

// Reserved time-series keys for the aggregate entities.
const (
	AggregateKeyBig6 = "totalstored-big6"
	AggregateKeyBig5 = "totalstored-big5"
)

var aggregateKeys = map[string]string{
	AggregateBig6: AggregateKeyBig6,
	AggregateBig5: AggregateKeyBig5,
}

// AggregateNames lists the aggregate entities in display order.
var AggregateNames = []string{AggregateBig6, AggregateBig5}

// IsAggregate reports whether name is one of the reserved aggregate entities.
func IsAggregate(name string) bool {
	_, ok := aggregateKeys[name]
	return ok
}

// NormalizeKey converts a display name into the key used by the time-series
// tables, e.g. "Land-en-Zeezicht Dam" -> "land-enzeezicht".
//
// Only the first hyphen survives as a separator; later hyphens are dropped.
func NormalizeKey(name string) string {
	s := strings.ToLower(name)
	s = damSuffixRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")

	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(s, "-") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	switch len(segments) {
	case 0:
		return ""
	case 1:
		return segments[0]
	default:
		return segments[0] + "-" + strings.Join(segments[1:], "")
	}
}

// SeriesKey returns the lookup key for an entity: the reserved key for
// aggregates, the normalized name otherwise.
func SeriesKey(name string) string {
	if key, ok := aggregateKeys[name]; ok {
		return key
	}
	return NormalizeKey(name)
}
