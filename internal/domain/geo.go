package domain

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property names read from and written to reservoir features.
const (
	PropName          = "NAME"
	PropCurrentPct    = "current_percentage_full"
	PropCurrentDate   = "current_date"
	PropStorageLevels = "storage_levels"
	PropKey           = "key"
	PropBand          = "band"
	PropColor         = "color"
	PropEffectiveDate = "effective_date"
)

// Feature is a reservoir or aggregate entity from the geo collection with
// its typed readings pulled out of the property bag.
type Feature struct {
	Name     string
	Geometry orb.Geometry

	// Properties is the descriptive bag as published. It is never modified.
	Properties geojson.Properties

	// CurrentPercent and CurrentDate are the static reading embedded in the
	// feature, used only when no series can resolve a value.
	CurrentPercent *float64
	CurrentDate    *time.Time

	// StorageLevels is an optional embedded series, ascending by date.
	StorageLevels []LevelPoint
}

// Aggregate reports whether the feature is a synthetic total.
func (f Feature) Aggregate() bool { return IsAggregate(f.Name) }

// Key returns the time-series lookup key.
func (f Feature) Key() string { return SeriesKey(f.Name) }

// Polygons returns the feature geometry as a list of polygons. A
// MultiPolygon yields its members; anything else yields nothing.
func (f Feature) Polygons() []orb.Polygon {
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return []orb.Polygon(g)
	default:
		return nil
	}
}

// FirstCoordinate returns the first vertex of the outer ring, used to
// centre the map on an entity.
func (f Feature) FirstCoordinate() (orb.Point, bool) {
	for _, poly := range f.Polygons() {
		if len(poly) > 0 && len(poly[0]) > 0 {
			return poly[0][0], true
		}
	}
	if p, ok := f.Geometry.(orb.Point); ok {
		return p, true
	}
	return orb.Point{}, false
}

// FeatureIndex finds a feature by display name or by series key.
func FeatureIndex(features []Feature, name string) (Feature, bool) {
	key := SeriesKey(name)
	for _, f := range features {
		if f.Name == name || (key != "" && f.Key() == key) {
			return f, true
		}
	}
	return Feature{}, false
}

// AlertPoints builds a point collection from the mappable alerts. Alerts
// without coordinates are skipped.
func AlertPoints(alerts []AlertRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range alerts {
		if !a.Mappable() {
			continue
		}
		f := geojson.NewFeature(orb.Point{a.Coordinates.Lng, a.Coordinates.Lat})
		f.ID = a.ID
		f.Properties["id"] = a.ID
		f.Properties["kind"] = string(a.Kind)
		f.Properties["title"] = a.Title
		f.Properties["service_area"] = a.ServiceArea
		f.Properties["icon"] = a.IconID()
		if a.Area != "" {
			f.Properties["area"] = a.Area
		}
		if a.Location != "" {
			f.Properties["location"] = a.Location
		}
		f.Properties["publish_date"] = formatOptional(a.PublishDate)
		f.Properties["expiry_date"] = formatOptional(a.ExpiryDate)
		fc.Append(f)
	}
	return fc
}
