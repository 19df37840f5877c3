package domain

import "time"

// Dataset is one labelled line of a chart. Nil entries are gaps.
type Dataset struct {
	Label string     `json:"label"`
	Data  []*float64 `json:"data"`
}

// Chart is a set of datasets sharing date labels.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset labels.
const (
	LabelPercentFull    = "% Full"
	LabelLastYear       = "Last Year % Full"
	LabelRainfall       = "Rainfall (mm)"
	LabelPopulation     = "Population"
	LabelAvgTemperature = "Avg Temp (°C)"
)

// LevelChart renders the window of a level series as "% Full" and
// "Last Year % Full" lines.
func LevelChart(series []LevelPoint, w Window, today time.Time) Chart {
	points := FilterLevels(series, w, today)
	labels := make([]string, len(points))
	pct := make([]*float64, len(points))
	lastYear := make([]*float64, len(points))
	for i, p := range points {
		labels[i] = FormatDate(p.Date)
		pct[i] = copyFloat(p.PercentFull)
		lastYear[i] = copyFloat(p.LastYearPercentFull)
	}
	return Chart{
		Labels: labels,
		Datasets: []Dataset{
			{Label: LabelPercentFull, Data: pct},
			{Label: LabelLastYear, Data: lastYear},
		},
	}
}

// RainfallChart renders the window of a rainfall series.
func RainfallChart(series []RainfallPoint, w Window, today time.Time) Chart {
	points := FilterRainfall(series, w, today)
	labels := make([]string, len(points))
	prcp := make([]*float64, len(points))
	tavg := make([]*float64, len(points))
	for i, p := range points {
		labels[i] = FormatDate(p.Date)
		prcp[i] = copyFloat(p.Prcp)
		tavg[i] = copyFloat(p.Tavg)
	}
	return Chart{
		Labels: labels,
		Datasets: []Dataset{
			{Label: LabelRainfall, Data: prcp},
			{Label: LabelAvgTemperature, Data: tavg},
		},
	}
}

// WithPopulation appends a population line interpolated onto the chart's
// date labels. Without samples the chart is returned unchanged.
func (c Chart) WithPopulation(yearly []PopulationPoint) Chart {
	if len(yearly) == 0 {
		return c
	}
	data := make([]*float64, len(c.Labels))
	for i, label := range c.Labels {
		d, err := ParseDate(label)
		if err != nil {
			continue
		}
		if v, ok := InterpolatePopulation(yearly, d); ok {
			data[i] = &v
		}
	}
	datasets := make([]Dataset, len(c.Datasets), len(c.Datasets)+1)
	copy(datasets, c.Datasets)
	c.Datasets = append(datasets, Dataset{Label: LabelPopulation, Data: data})
	return c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
