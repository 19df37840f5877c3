package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func level(t *testing.T, date string, pct *float64) LevelPoint {
	t.Helper()
	return LevelPoint{Date: day(t, date), PercentFull: pct}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-05-01T08:30:00", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-05-01 08:30", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{" 2024-05-01 ", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-05", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "yesterday", "2024-13-01", "01/05/2024", "24-5"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseDate(bad)
			require.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-05-01", FormatDate(time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)))
	assert.Empty(t, FormatDate(time.Time{}))
}

func TestResolveValue(t *testing.T) {
	series := []LevelPoint{
		level(t, "2024-01-01", ptr(50)),
		level(t, "2024-01-02", nil),
		level(t, "2024-01-03", ptr(52)),
		level(t, "2024-01-05", nil),
	}

	tests := []struct {
		name     string
		target   string
		want     float64
		wantDate string
		found    bool
	}{
		{"exact match", "2024-01-03", 52, "2024-01-03", true},
		{"null on target falls back", "2024-01-02", 50, "2024-01-01", true},
		{"gap falls back", "2024-01-04", 52, "2024-01-03", true},
		{"trailing null falls back", "2024-01-05", 52, "2024-01-03", true},
		{"after the series", "2025-06-01", 52, "2024-01-03", true},
		{"before the series", "2023-12-31", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveValue(series, day(t, tt.target))
			require.Equal(t, tt.found, ok)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.wantDate, FormatDate(got.EffectiveDate))
		})
	}
}

func TestResolveValue_Empty(t *testing.T) {
	_, ok := ResolveValue(nil, time.Now())
	assert.False(t, ok)

	_, ok = ResolveValue([]LevelPoint{level(t, "2024-01-01", nil)}, day(t, "2024-01-01"))
	assert.False(t, ok)
}

func TestResolveValue_EffectiveDateNeverAfterTarget(t *testing.T) {
	series := []LevelPoint{
		level(t, "2024-01-01", ptr(10)),
		level(t, "2024-01-10", ptr(20)),
		level(t, "2024-01-20", nil),
		level(t, "2024-01-30", ptr(40)),
	}
	for d := day(t, "2023-12-25"); d.Before(day(t, "2024-02-10")); d = d.AddDate(0, 0, 1) {
		got, ok := ResolveValue(series, d)
		if !ok {
			assert.True(t, d.Before(series[0].Date), "unresolved at %s", FormatDate(d))
			continue
		}
		assert.False(t, got.EffectiveDate.After(d), "effective date after target at %s", FormatDate(d))
	}
}

func TestResolveValue_IgnoresTimeOfDay(t *testing.T) {
	series := []LevelPoint{level(t, "2024-01-01", ptr(10))}
	got, ok := ResolveValue(series, time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 10.0, got.Value)
}

func TestSortLevels(t *testing.T) {
	in := []LevelPoint{
		level(t, "2024-01-03", ptr(3)),
		level(t, "2024-01-01", ptr(1)),
		level(t, "2024-01-03", ptr(33)),
		level(t, "2024-01-02", ptr(2)),
	}
	got, dropped := SortLevels(in)

	assert.Equal(t, 1, dropped)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-01-01", FormatDate(got[0].Date))
	assert.Equal(t, "2024-01-02", FormatDate(got[1].Date))
	assert.Equal(t, "2024-01-03", FormatDate(got[2].Date))
	assert.Equal(t, 33.0, *got[2].PercentFull)
}

func TestLevelBounds(t *testing.T) {
	table := LevelTable{
		"a": {level(t, "2020-01-01", ptr(1)), level(t, "2024-01-01", ptr(2))},
		"b": {level(t, "2019-06-01", ptr(1)), level(t, "2023-01-01", ptr(2))},
		"c": nil,
	}
	b := LevelBounds(table)
	assert.Equal(t, "2019-06-01", FormatDate(b.Min))
	assert.Equal(t, "2024-01-01", FormatDate(b.Max))
	assert.True(t, LevelBounds(nil).Empty())
}

func TestLatestDate(t *testing.T) {
	assert.True(t, LatestDate(nil).IsZero())
	assert.Equal(t, "2024-01-02", FormatDate(LatestDate([]LevelPoint{
		level(t, "2024-01-01", ptr(1)),
		level(t, "2024-01-02", nil),
	})))
}
