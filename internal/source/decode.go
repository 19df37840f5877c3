package source

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
)

// number decodes a JSON number, a numeric string or null. Anything that is
// not a finite number decodes to nil so it renders as missing.
type number struct {
	v *float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	n.v = nil
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("decode number: %w", err)
		}
		s = strings.TrimSuffix(strings.TrimSpace(str), "%")
		if s == "" {
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n.v = &f
	return nil
}

// identifier decodes an alert Id published as either a number or a string.
type identifier string

func (id *identifier) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = identifier(str)
		return nil
	}
	*id = identifier(s)
	return nil
}

type rawLevel struct {
	Date                string `json:"date"`
	PercentFull         number `json:"percent_full"`
	LastYearPercentFull number `json:"last_year_percent_full"`
	HeightM             number `json:"height_m"`
	StorageMl           number `json:"storage_ml"`
}

type rawRainfall struct {
	Date string `json:"date"`
	Prcp number `json:"prcp"`
	Tavg number `json:"tavg"`
}

type rawPopulation struct {
	Year       json.Number `json:"year"`
	Population number      `json:"population"`
}

type rawCoordinates struct {
	Lat number `json:"lat"`
	Lng number `json:"lng"`
}

type rawAlert struct {
	ID            identifier      `json:"Id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ServiceArea   string          `json:"service_area"`
	Area          string          `json:"area"`
	Location      string          `json:"location"`
	Coordinates   *rawCoordinates `json:"coordinates"`
	PublishDate   string          `json:"publish_date"`
	EffectiveDate string          `json:"effective_date"`
	ExpiryDate    string          `json:"expiry_date"`
}

// decoded is the typed result of decoding one source.
type decoded struct {
	records int
	dropped int
	apply   func(*Data)
}

// decodeLevels parses a table of per-entity series. Points with an
// unparseable date are dropped; each series is sorted ascending.
func decodeLevels(data []byte) (domain.LevelTable, int, error) {
	var raw map[string][]rawLevel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode level table: %w", err)
	}
	table := make(domain.LevelTable, len(raw))
	dropped := 0
	for key, points := range raw {
		series, n := toLevels(points)
		dropped += n
		table[key] = series
	}
	return table, dropped, nil
}

func toLevels(points []rawLevel) ([]domain.LevelPoint, int) {
	series := make([]domain.LevelPoint, 0, len(points))
	dropped := 0
	for _, p := range points {
		d, err := domain.ParseDate(p.Date)
		if err != nil {
			dropped++
			continue
		}
		series = append(series, domain.LevelPoint{
			Date:                d,
			PercentFull:         p.PercentFull.v,
			LastYearPercentFull: p.LastYearPercentFull.v,
			HeightM:             p.HeightM.v,
			StorageMl:           p.StorageMl.v,
		})
	}
	series, dupes := domain.SortLevels(series)
	return series, dropped + dupes
}

func decodeRainfall(data []byte) ([]domain.RainfallPoint, int, error) {
	var raw []rawRainfall
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode rainfall: %w", err)
	}
	series := make([]domain.RainfallPoint, 0, len(raw))
	dropped := 0
	for _, p := range raw {
		d, err := domain.ParseDate(p.Date)
		if err != nil {
			dropped++
			continue
		}
		series = append(series, domain.RainfallPoint{Date: d, Prcp: p.Prcp.v, Tavg: p.Tavg.v})
	}
	series, dupes := domain.SortRainfall(series)
	return series, dropped + dupes, nil
}

func decodePopulation(data []byte) ([]domain.PopulationPoint, int, error) {
	var raw []rawPopulation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode population: %w", err)
	}
	samples := make([]domain.PopulationPoint, 0, len(raw))
	dropped := 0
	for _, p := range raw {
		year, err := strconv.Atoi(p.Year.String())
		if err != nil || p.Population.v == nil {
			dropped++
			continue
		}
		samples = append(samples, domain.PopulationPoint{Year: year, Population: *p.Population.v})
	}
	samples, dupes := domain.SortPopulation(samples)
	return samples, dropped + dupes, nil
}

// decodeAlerts parses an alert feed and tags every record with kind.
// Unparseable dates become nil, which keeps the record out of the active set;
// the returned count is the number of such records.
func decodeAlerts(data []byte, kind domain.AlertKind) ([]domain.AlertRecord, int, error) {
	var raw []rawAlert
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode %s alerts: %w", kind, err)
	}
	alerts := make([]domain.AlertRecord, 0, len(raw))
	undated := 0
	for _, a := range raw {
		rec := domain.AlertRecord{
			ID:            string(a.ID),
			Kind:          kind,
			Title:         strings.TrimSpace(a.Title),
			Description:   strings.TrimSpace(a.Description),
			ServiceArea:   strings.TrimSpace(a.ServiceArea),
			Area:          strings.TrimSpace(a.Area),
			Location:      strings.TrimSpace(a.Location),
			PublishDate:   optionalDate(a.PublishDate),
			EffectiveDate: optionalDate(a.EffectiveDate),
			ExpiryDate:    optionalDate(a.ExpiryDate),
		}
		if c := a.Coordinates; c != nil && c.Lat.v != nil && c.Lng.v != nil {
			rec.Coordinates = &domain.Coordinates{Lat: *c.Lat.v, Lng: *c.Lng.v}
		}
		if rec.PublishDate == nil || rec.ExpiryDate == nil {
			undated++
		}
		alerts = append(alerts, rec)
	}
	return alerts, undated, nil
}

func optionalDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}

// decodeGeo parses the reservoir collection. Features without a polygon
// geometry are kept so they can still be listed.
func decodeGeo(data []byte) ([]domain.Feature, int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, fmt.Errorf("decode geo collection: %w", err)
	}
	features := make([]domain.Feature, 0, len(fc.Features))
	dropped := 0
	for _, f := range fc.Features {
		feat, n := toFeature(f)
		dropped += n
		features = append(features, feat)
	}
	return features, dropped, nil
}

func toFeature(f *geojson.Feature) (domain.Feature, int) {
	props := f.Properties
	if props == nil {
		props = geojson.Properties{}
	}
	feat := domain.Feature{
		Name:       strings.TrimSpace(props.MustString(domain.PropName, "")),
		Properties: props,
	}
	switch g := f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Point:
		feat.Geometry = g
	}

	if v, ok := props[domain.PropCurrentPct]; ok {
		feat.CurrentPercent = numberFrom(v)
	}
	if s, ok := props[domain.PropCurrentDate].(string); ok {
		feat.CurrentDate = optionalDate(s)
	}

	dropped := 0
	if levels, ok := props[domain.PropStorageLevels]; ok && levels != nil {
		// Re-encode the embedded array so it shares the table decoder.
		b, err := json.Marshal(levels)
		if err != nil {
			return feat, 1
		}
		var raw []rawLevel
		if err := json.Unmarshal(b, &raw); err != nil {
			return feat, 1
		}
		feat.StorageLevels, dropped = toLevels(raw)
	}
	return feat, dropped
}

func numberFrom(v any) *float64 {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var n number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	return n.v
}
