package domain

import "math"

// Band is a discrete fill-level category used for map and list colouring.
type Band string

const (
	BandRed         Band = "red"
	BandAmber       Band = "amber"
	BandLightYellow Band = "light-yellow"
	BandLightGreen  Band = "light-green"
	BandGreen       Band = "green"
	BandGrey        Band = "grey"
)

var bandColors = map[Band]string{
	BandRed:         "#d7191c",
	BandAmber:       "#fdae61",
	BandLightYellow: "#ffffbf",
	BandLightGreen:  "#a6d96a",
	BandGreen:       "#1a9641",
	BandGrey:        "#c8c8c8",
}

// Color returns the hex fill colour for the band.
func (b Band) Color() string {
	if c, ok := bandColors[b]; ok {
		return c
	}
	return bandColors[BandGrey]
}

// Classify maps a fill percentage to its band. The value is clamped to
// [0, 100] first; a missing or NaN value is grey.
//
//	<=20 red | <=40 amber | <=60 light-yellow | <=80 light-green | >80 green
func Classify(percent *float64) Band {
	if percent == nil || math.IsNaN(*percent) {
		return BandGrey
	}
	v := math.Min(math.Max(*percent, 0), 100)
	switch {
	case v <= 20:
		return BandRed
	case v <= 40:
		return BandAmber
	case v <= 60:
		return BandLightYellow
	case v <= 80:
		return BandLightGreen
	default:
		return BandGreen
	}
}
