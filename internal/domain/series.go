package domain

import (
	"sort"
	"time"
)

// LevelPoint is one dated storage reading for a reservoir. Every measurement
// is optional; a nil value means the reading is absent, never zero.
type LevelPoint struct {
	Date                time.Time
	PercentFull         *float64
	LastYearPercentFull *float64
	HeightM             *float64
	StorageMl           *float64
}

// RainfallPoint is one dated precipitation reading in millimetres.
type RainfallPoint struct {
	Date time.Time
	Prcp *float64
	Tavg *float64
}

// LevelTable maps a normalized entity key to its ascending-by-date series.
// Tables are built once at load time and treated as read-only afterwards.
type LevelTable map[string][]LevelPoint

// Series returns the series for key, or nil.
func (t LevelTable) Series(key string) []LevelPoint {
	if t == nil {
		return nil
	}
	return t[key]
}

// Resolved is a value together with the date it was actually observed on,
// which may be earlier than the requested date.
type Resolved struct {
	Value         float64
	EffectiveDate time.Time
}

// ResolveValue finds the fill percentage for target in an ascending series.
// A point dated exactly target with a value wins; otherwise the nearest
// earlier point with a value is used and its own date becomes the effective
// date. It reports false when no point qualifies, which callers must present
// as missing rather than zero.
func ResolveValue(series []LevelPoint, target time.Time) (Resolved, bool) {
	return resolve(series, target, func(p LevelPoint) (time.Time, *float64) {
		return p.Date, p.PercentFull
	})
}

// resolve implements the exact-then-earlier lookup for any dated series.
func resolve[P any](series []P, target time.Time, at func(P) (time.Time, *float64)) (Resolved, bool) {
	target = truncateDay(target)

	// First index strictly after target.
	end := sort.Search(len(series), func(i int) bool {
		d, _ := at(series[i])
		return d.After(target)
	})

	for i := end - 1; i >= 0; i-- {
		d, v := at(series[i])
		if v == nil {
			continue
		}
		return Resolved{Value: *v, EffectiveDate: d}, true
	}
	return Resolved{}, false
}

// SortLevels orders a series ascending by date in place, keeping the last of
// any points that share a date. It returns the cleaned series and the number
// of duplicates dropped.
func SortLevels(series []LevelPoint) ([]LevelPoint, int) {
	return sortDedupe(series, func(p LevelPoint) time.Time { return p.Date })
}

// SortRainfall is SortLevels for rainfall series.
func SortRainfall(series []RainfallPoint) ([]RainfallPoint, int) {
	return sortDedupe(series, func(p RainfallPoint) time.Time { return p.Date })
}

func sortDedupe[P any](series []P, dateOf func(P) time.Time) ([]P, int) {
	sort.SliceStable(series, func(i, j int) bool {
		return dateOf(series[i]).Before(dateOf(series[j]))
	})
	out := series[:0]
	dropped := 0
	for _, p := range series {
		if n := len(out); n > 0 && dateOf(out[n-1]).Equal(dateOf(p)) {
			out[n-1] = p
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}

// DateBounds is the first and last date present across a set of series.
type DateBounds struct {
	Min time.Time
	Max time.Time
}

// Empty reports whether no dates were found.
func (b DateBounds) Empty() bool { return b.Min.IsZero() && b.Max.IsZero() }

// LevelBounds returns the date range covered by every series in the table.
func LevelBounds(t LevelTable) DateBounds {
	var b DateBounds
	for _, series := range t {
		if len(series) == 0 {
			continue
		}
		first, last := series[0].Date, series[len(series)-1].Date
		if b.Min.IsZero() || first.Before(b.Min) {
			b.Min = first
		}
		if last.After(b.Max) {
			b.Max = last
		}
	}
	return b
}

// LatestDate returns the date of the last point in series, or the zero time.
func LatestDate(series []LevelPoint) time.Time {
	if len(series) == 0 {
		return time.Time{}
	}
	return series[len(series)-1].Date
}
