package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// NotAvailable is the label shown when no value can be resolved.
const NotAvailable = "N/A"

// UnknownName is the list label for a feature without a name.
const UnknownName = "Unknown"

// ReadingSource names where a resolved reading came from.
type ReadingSource string

const (
	ReadingDaily    ReadingSource = "daily"
	ReadingMonthly  ReadingSource = "monthly"
	ReadingEmbedded ReadingSource = "embedded"
	ReadingStatic   ReadingSource = "static"
)

// LevelTables groups the reservoir level tables by frequency.
type LevelTables struct {
	Daily   LevelTable
	Monthly LevelTable
}

// Reading is a resolved fill percentage for one entity.
type Reading struct {
	Resolved
	Source ReadingSource
}

// ResolveFeature resolves the fill percentage of f on date. The daily table
// wins, then the monthly table, then the series embedded in the feature, and
// finally the static reading if it is not dated after date.
func ResolveFeature(f Feature, tables LevelTables, date time.Time) (Reading, bool) {
	key := f.Key()
	if r, ok := ResolveValue(tables.Daily.Series(key), date); ok {
		return Reading{Resolved: r, Source: ReadingDaily}, true
	}
	if r, ok := ResolveValue(tables.Monthly.Series(key), date); ok {
		return Reading{Resolved: r, Source: ReadingMonthly}, true
	}
	if r, ok := ResolveValue(f.StorageLevels, date); ok {
		return Reading{Resolved: r, Source: ReadingEmbedded}, true
	}
	if f.CurrentPercent != nil && !math.IsNaN(*f.CurrentPercent) {
		var eff time.Time
		if f.CurrentDate != nil {
			if f.CurrentDate.After(truncateDay(date)) {
				return Reading{}, false
			}
			eff = *f.CurrentDate
		}
		return Reading{Resolved: Resolved{Value: *f.CurrentPercent, EffectiveDate: eff}, Source: ReadingStatic}, true
	}
	return Reading{}, false
}

// EntityView is the list-panel and headline rendering of one entity.
type EntityView struct {
	Name          string        `json:"name"`
	Key           string        `json:"key"`
	Aggregate     bool          `json:"aggregate"`
	Percent       *float64      `json:"percent"`
	Rounded       *int          `json:"rounded"`
	Label         string        `json:"label"`
	EffectiveDate string        `json:"effective_date,omitempty"`
	Source        ReadingSource `json:"source,omitempty"`
	Band          Band          `json:"band"`
	Color         string        `json:"color"`
	Center        *[2]float64   `json:"center,omitempty"`
}

// NewEntityView resolves f on date and renders it.
func NewEntityView(f Feature, tables LevelTables, date time.Time) EntityView {
	name := f.Name
	if name == "" {
		name = UnknownName
	}
	v := EntityView{
		Name:      name,
		Key:       f.Key(),
		Aggregate: f.Aggregate(),
		Label:     NotAvailable,
		Band:      BandGrey,
		Color:     BandGrey.Color(),
	}
	if p, ok := f.FirstCoordinate(); ok {
		v.Center = &[2]float64{p.Lon(), p.Lat()}
	}

	r, ok := ResolveFeature(f, tables, date)
	if !ok {
		return v
	}
	pct := r.Value
	rounded := int(math.Round(pct))
	v.Percent = &pct
	v.Rounded = &rounded
	v.Label = fmt.Sprintf("%d%% full", rounded)
	v.EffectiveDate = FormatDate(r.EffectiveDate)
	v.Source = r.Source
	v.Band = Classify(&pct)
	v.Color = v.Band.Color()
	return v
}

// ViewInput is everything the view model is derived from.
type ViewInput struct {
	Features []Feature
	Levels   LevelTables
	Alerts   []AlertRecord
}

// ViewQuery selects the date and optional service area of a view.
type ViewQuery struct {
	Date        time.Time
	ServiceArea string
}

// ViewModel is the render-ready state of the dashboard for one date.
type ViewModel struct {
	Date        string `json:"date"`
	ServiceArea string `json:"service_area,omitempty"`

	// Map holds one polygon feature per reservoir part, with the resolved
	// reading and band merged into a copy of its properties.
	Map *geojson.FeatureCollection `json:"map"`

	Aggregates []EntityView `json:"aggregates"`
	Reservoirs []EntityView `json:"reservoirs"`

	Alerts       []AlertView                `json:"alerts"`
	AlertPoints  *geojson.FeatureCollection `json:"alert_points"`
	AlertSummary AlertSummary               `json:"alert_summary"`
}

// BuildViewModel derives the dashboard state for q from in. It is pure: the
// same input yields a deeply equal result, and nothing reachable from in is
// modified.
func BuildViewModel(in ViewInput, q ViewQuery) ViewModel {
	date := truncateDay(q.Date)
	vm := ViewModel{
		Date:        FormatDate(date),
		ServiceArea: q.ServiceArea,
		Map:         geojson.NewFeatureCollection(),
		Aggregates:  []EntityView{},
		Reservoirs:  []EntityView{},
	}

	for _, name := range AggregateNames {
		if f, ok := FeatureIndex(in.Features, name); ok && f.Aggregate() {
			vm.Aggregates = append(vm.Aggregates, NewEntityView(f, in.Levels, date))
			continue
		}
		// An aggregate missing from the collection still resolves from the tables.
		agg := NewEntityView(Feature{Name: name}, in.Levels, date)
		if agg.Percent != nil {
			vm.Aggregates = append(vm.Aggregates, agg)
		}
	}

	for _, f := range in.Features {
		if f.Aggregate() {
			continue
		}
		view := NewEntityView(f, in.Levels, date)
		vm.Reservoirs = append(vm.Reservoirs, view)
		for _, poly := range f.Polygons() {
			vm.Map.Append(mapFeature(f, poly, view))
		}
	}

	active := ActiveAlerts(in.Alerts, date)
	vm.AlertSummary = SummarizeAlerts(active)
	shown := FilterByServiceArea(active, q.ServiceArea)
	vm.Alerts = AlertViews(shown)
	vm.AlertPoints = AlertPoints(shown)
	return vm
}

// mapFeature builds an output feature from one polygon of f. The source
// properties are copied, never written.
func mapFeature(f Feature, poly orb.Polygon, view EntityView) *geojson.Feature {
	out := geojson.NewFeature(poly.Clone())
	if f.Properties != nil {
		out.Properties = f.Properties.Clone()
	}
	delete(out.Properties, PropStorageLevels)
	out.Properties[PropKey] = view.Key
	out.Properties[PropBand] = string(view.Band)
	out.Properties[PropColor] = view.Color
	if view.Percent != nil {
		out.Properties[PropCurrentPct] = *view.Percent
	} else {
		out.Properties[PropCurrentPct] = nil
	}
	out.Properties[PropEffectiveDate] = view.EffectiveDate
	return out
}
