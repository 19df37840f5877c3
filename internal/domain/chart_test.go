package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelChart(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	series := []LevelPoint{
		{Date: day(t, "2020-01-01"), PercentFull: ptr(40)},
		{Date: day(t, "2024-01-01"), PercentFull: ptr(60), LastYearPercentFull: ptr(55)},
		{Date: day(t, "2024-06-01"), PercentFull: nil, LastYearPercentFull: ptr(70)},
	}

	c := LevelChart(series, Window1Y, today)
	assert.Equal(t, []string{"2024-01-01", "2024-06-01"}, c.Labels)
	require.Len(t, c.Datasets, 2)
	assert.Equal(t, LabelPercentFull, c.Datasets[0].Label)
	assert.Equal(t, []*float64{ptr(60), nil}, c.Datasets[0].Data)
	assert.Equal(t, []*float64{ptr(55), ptr(70)}, c.Datasets[1].Data)

	all := LevelChart(series, WindowAll, today)
	assert.Len(t, all.Labels, 3)
}

func TestRainfallChart(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	series := []RainfallPoint{
		{Date: day(t, "2024-05-01"), Prcp: ptr(12.5), Tavg: ptr(14)},
		{Date: day(t, "2024-05-02"), Prcp: nil},
	}
	c := RainfallChart(series, Window5Y, today)

	assert.Equal(t, []string{"2024-05-01", "2024-05-02"}, c.Labels)
	assert.Equal(t, LabelRainfall, c.Datasets[0].Label)
	assert.Equal(t, []*float64{ptr(12.5), nil}, c.Datasets[0].Data)
}

func TestChartWithPopulation(t *testing.T) {
	c := Chart{
		Labels:   []string{"2020-01-01", "2021-01-01"},
		Datasets: []Dataset{{Label: LabelPercentFull, Data: []*float64{ptr(1), ptr(2)}}},
	}
	yearly := []PopulationPoint{{Year: 2020, Population: 100}, {Year: 2021, Population: 200}}

	got := c.WithPopulation(yearly)
	require.Len(t, got.Datasets, 2)
	assert.Len(t, c.Datasets, 1, "receiver is not modified")
	assert.Equal(t, LabelPopulation, got.Datasets[1].Label)
	assert.InDelta(t, 100, *got.Datasets[1].Data[0], 1e-9)
	assert.InDelta(t, 200, *got.Datasets[1].Data[1], 1e-9)

	assert.Equal(t, c, c.WithPopulation(nil))
}
