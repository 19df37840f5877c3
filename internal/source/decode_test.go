package source

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{`63.4`, ptr(63.4)},
		{`"63.4"`, ptr(63.4)},
		{`" 12 "`, ptr(12)},
		{`"55%"`, ptr(55)},
		{`null`, nil},
		{`""`, nil},
		{`"n/a"`, nil},
		{`"NaN"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n number
			require.NoError(t, json.Unmarshal([]byte(tt.in), &n))
			assert.Equal(t, tt.want, n.v)
		})
	}
}

func TestIdentifier_UnmarshalJSON(t *testing.T) {
	var got struct {
		A identifier `json:"a"`
		B identifier `json:"b"`
		C identifier `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12345, "b": "abc-1", "c": null}`), &got))
	assert.Equal(t, identifier("12345"), got.A)
	assert.Equal(t, identifier("abc-1"), got.B)
	assert.Empty(t, got.C)
}

func TestDecodeLevels(t *testing.T) {
	data := []byte(`{
		"theewaterskloof": [
			{"date": "2024-05-02", "percent_full": "64.1", "last_year_percent_full": 50},
			{"date": "2024-05-01", "percent_full": 63.4, "height_m": 28.1, "storage_ml": 300000},
			{"date": "not a date", "percent_full": 1},
			{"date": "2024-05-03", "percent_full": null}
		],
		"totalstored-big6": []
	}`)

	table, dropped, err := decodeLevels(data)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Contains(t, table, "totalstored-big6")
	assert.Empty(t, table["totalstored-big6"])

	series := table["theewaterskloof"]
	require.Len(t, series, 3)
	assert.Equal(t, "2024-05-01", domain.FormatDate(series[0].Date))
	assert.Equal(t, 63.4, *series[0].PercentFull)
	assert.Equal(t, 28.1, *series[0].HeightM)
	assert.Equal(t, 64.1, *series[1].PercentFull)
	assert.Equal(t, 50.0, *series[1].LastYearPercentFull)
	assert.Nil(t, series[2].PercentFull)
}

func TestDecodeLevels_Invalid(t *testing.T) {
	_, _, err := decodeLevels([]byte(`[1, 2, 3]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode level table")
}

func TestDecodeRainfall(t *testing.T) {
	data := []byte(`[
		{"date": "2024-05", "tavg": 15.2, "prcp": 88.1},
		{"date": "2024-04", "tavg": 17.0, "prcp": null}
	]`)
	series, dropped, err := decodeRainfall(data)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, series, 2)
	assert.Equal(t, "2024-04-01", domain.FormatDate(series[0].Date))
	assert.Nil(t, series[0].Prcp)
	assert.Equal(t, 88.1, *series[1].Prcp)
}

func TestDecodePopulation(t *testing.T) {
	data := []byte(`[
		{"year": 2021, "population": 4700000},
		{"year": "2020", "population": "4650000"},
		{"year": 2022, "population": null}
	]`)
	samples, dropped, err := decodePopulation(data)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []domain.PopulationPoint{
		{Year: 2020, Population: 4_650_000},
		{Year: 2021, Population: 4_700_000},
	}, samples)
}

func TestDecodeAlerts(t *testing.T) {
	data := []byte(`[
		{
			"Id": 901, "title": " Burst pipe ", "service_area": "Water & Sanitation",
			"area": "Bellville", "location": "Voortrekker Rd",
			"coordinates": {"lat": -33.9, "lng": 18.63},
			"publish_date": "2024-05-01T07:30:00", "effective_date": "2024-05-01", "expiry_date": "2024-05-03 18:00"
		},
		{
			"Id": "902", "title": "Outage", "service_area": "Electricity",
			"coordinates": {"lat": null, "lng": null},
			"publish_date": "2024-05-01", "expiry_date": "soon"
		},
		{"Id": 903, "title": "No coordinates", "service_area": "Electricity", "publish_date": "2024-05-01", "expiry_date": "2024-05-02"}
	]`)

	alerts, undated, err := decodeAlerts(data, domain.AlertUnplanned)
	require.NoError(t, err)
	assert.Equal(t, 1, undated)
	require.Len(t, alerts, 3)

	first := alerts[0]
	assert.Equal(t, "901", first.ID)
	assert.Equal(t, domain.AlertUnplanned, first.Kind)
	assert.Equal(t, "Burst pipe", first.Title)
	assert.Equal(t, &domain.Coordinates{Lat: -33.9, Lng: 18.63}, first.Coordinates)
	assert.Equal(t, "2024-05-01", domain.FormatDate(*first.PublishDate))
	assert.Equal(t, "2024-05-03", domain.FormatDate(*first.ExpiryDate))

	assert.Nil(t, alerts[1].Coordinates, "null coordinates are not mappable")
	assert.Nil(t, alerts[1].ExpiryDate, "invalid date is treated as missing")
	assert.Nil(t, alerts[2].Coordinates)
}

func TestDecodeGeo(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"NAME": "Theewaterskloof Dam", "current_percentage_full": "61.5", "current_date": "2024-04-30"},
				"geometry": {"type": "Polygon", "coordinates": [[[19.2, -34.0], [19.3, -34.0], [19.3, -34.1], [19.2, -34.0]]]}
			},
			{
				"type": "Feature",
				"properties": {"NAME": "Steenbras Dams", "storage_levels": [
					{"date": "2024-05-02", "percent_full": 90},
					{"date": "2024-05-01", "percent_full": 89}
				]},
				"geometry": {"type": "MultiPolygon", "coordinates": [
					[[[18.9, -34.1], [19.0, -34.1], [19.0, -34.2], [18.9, -34.1]]],
					[[[18.8, -34.1], [18.85, -34.1], [18.85, -34.2], [18.8, -34.1]]]
				]}
			},
			{
				"type": "Feature",
				"properties": {"NAME": "Big 6 Total"},
				"geometry": null
			}
		]
	}`)

	features, dropped, err := decodeGeo(data)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, features, 3)

	tw := features[0]
	assert.Equal(t, "Theewaterskloof Dam", tw.Name)
	assert.Equal(t, 61.5, *tw.CurrentPercent)
	assert.Equal(t, "2024-04-30", domain.FormatDate(*tw.CurrentDate))
	assert.IsType(t, orb.Polygon{}, tw.Geometry)

	sb := features[1]
	assert.IsType(t, orb.MultiPolygon{}, sb.Geometry)
	assert.Len(t, sb.Polygons(), 2)
	require.Len(t, sb.StorageLevels, 2)
	assert.Equal(t, "2024-05-01", domain.FormatDate(sb.StorageLevels[0].Date))

	agg := features[2]
	assert.True(t, agg.Aggregate())
	assert.Nil(t, agg.Geometry)
}

func TestDecodeGeo_Invalid(t *testing.T) {
	_, _, err := decodeGeo([]byte(`{"type": "Feature"`))
	require.Error(t, err)
}

func ptr(v float64) *float64 { return &v }
