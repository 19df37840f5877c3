package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"suffix and case", "Theewaterskloof Dam", "theewaterskloof"},
		{"first hyphen only", "Land-en-Zeezicht Dam", "land-enzeezicht"},
		{"inner whitespace removed", "Steenbras Upper Dam", "steenbrasupper"},
		{"no suffix", "Wemmershoek", "wemmershoek"},
		{"suffix without space", "Voelvleidam", "voelvlei"},
		{"lowercase suffix", "berg river dam", "bergriver"},
		{"leading hyphen", "-Kleinplaas Dam", "kleinplaas"},
		{"hyphens only", "--", ""},
		{"empty", "", ""},
		{"only the suffix", "Dam", ""},
		{"dam inside name kept", "Damwater", "damwater"},
		{"spaces around hyphen", "De Villiers - Upper Dam", "devilliers-upper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	for _, in := range []string{
		"Theewaterskloof Dam",
		"Land-en-Zeezicht Dam",
		"Steenbras Lower Dam",
		"a-b-c-d",
		"  spaced  out  ",
	} {
		once := NormalizeKey(in)
		assert.Equal(t, once, NormalizeKey(once), in)
	}
}

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, AggregateKeyBig6, SeriesKey(AggregateBig6))
	assert.Equal(t, AggregateKeyBig5, SeriesKey(AggregateBig5))
	assert.Equal(t, "theewaterskloof", SeriesKey("Theewaterskloof Dam"))
}

func TestIsAggregate(t *testing.T) {
	assert.True(t, IsAggregate("Big 6 Total"))
	assert.True(t, IsAggregate("Big 5 Total"))
	assert.False(t, IsAggregate("big 6 total"))
	assert.False(t, IsAggregate("Wemmershoek Dam"))
}
