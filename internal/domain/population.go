package domain

import (
	"math"
	"sort"
	"time"
)

// PopulationPoint is a yearly population estimate.
type PopulationPoint struct {
	Year       int     `json:"year"`
	Population float64 `json:"population"`
}

// SortPopulation orders samples by year in place, keeping the last sample
// for a repeated year.
func SortPopulation(samples []PopulationPoint) ([]PopulationPoint, int) {
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Year < samples[j].Year })
	out := samples[:0]
	dropped := 0
	for _, p := range samples {
		if n := len(out); n > 0 && out[n-1].Year == p.Year {
			out[n-1] = p
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}

// InterpolatePopulation estimates the population on date by linear
// interpolation between the samples for its year and the following year.
// A missing year is replaced by the nearest available sample, so dates
// outside the sampled range are clamped to the first or last value. It
// reports false only when there are no samples.
func InterpolatePopulation(yearly []PopulationPoint, date time.Time) (float64, bool) {
	if len(yearly) == 0 {
		return 0, false
	}
	date = date.UTC()
	y := date.Year()

	p0 := nearestSample(yearly, y)
	p1 := nearestSample(yearly, y+1)

	start := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	frac := float64(date.Sub(start)) / float64(end.Sub(start))
	frac = math.Min(math.Max(frac, 0), 1)

	return p0 + frac*(p1-p0), true
}

// nearestSample returns the population for year, or for the closest sampled
// year when it is missing. Ties go to the earlier year.
func nearestSample(yearly []PopulationPoint, year int) float64 {
	i := sort.Search(len(yearly), func(i int) bool { return yearly[i].Year >= year })
	switch {
	case i < len(yearly) && yearly[i].Year == year:
		return yearly[i].Population
	case i == 0:
		return yearly[0].Population
	case i == len(yearly):
		return yearly[len(yearly)-1].Population
	}
	before, after := yearly[i-1], yearly[i]
	if year-before.Year <= after.Year-year {
		return before.Population
	}
	return after.Population
}
