// Package source fetches the dashboard's published data objects, decodes
// them into domain types and tracks the load state of each one.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotLoaded is returned when a view needs a source that has no data.
var ErrNotLoaded = errors.New("source not loaded")

// Store fetches a published object by its path.
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Name identifies a data source.
type Name string

const (
	Geo             Name = "geo"
	LevelsDaily     Name = "dam_levels_daily"
	LevelsMonthly   Name = "dam_levels_monthly"
	RainfallDaily   Name = "rainfall_daily"
	RainfallMonthly Name = "rainfall_monthly"
	Population      Name = "population_yearly"
	AlertsPlanned   Name = "alerts_planned"
	AlertsUnplanned Name = "alerts_unplanned"
)

// Definition describes where a source is published.
type Definition struct {
	Name Name
	Path string
}

// Catalog lists every source the dashboard loads.
var Catalog = []Definition{
	{Name: Geo, Path: "shapefiles/Bulk_Water_Dams_Enriched.geojson"},
	{Name: LevelsDaily, Path: "timeseries/dam_levels_daily.json"},
	{Name: LevelsMonthly, Path: "timeseries/dam_levels_monthly.json"},
	{Name: RainfallDaily, Path: "timeseries/cape_town_rainfall_daily.json"},
	{Name: RainfallMonthly, Path: "timeseries/cape_town_rainfall_monthly.json"},
	{Name: Population, Path: "timeseries/cape_town_population_yearly.json"},
	{Name: AlertsPlanned, Path: "timeseries/service_alerts_planned.json"},
	{Name: AlertsUnplanned, Path: "timeseries/service_alerts_unplanned.json"},
}

// Sources required by the map and alert views. The full dashboard view
// needs both sets.
var (
	MapSources   = []Name{Geo, LevelsDaily}
	AlertSources = []Name{AlertsPlanned, AlertsUnplanned}
	ViewSources  = []Name{Geo, LevelsDaily, AlertsPlanned, AlertsUnplanned}
)

// State is the lifecycle of one source.
type State string

const (
	StateNotLoaded State = "not_loaded"
	StateLoaded    State = "loaded"
	StateFailed    State = "failed"
)

// Status records the outcome of the most recent load of a source. A loaded
// source with zero records is distinct from one that was never loaded.
type Status struct {
	Name     Name      `json:"name"`
	State    State     `json:"state"`
	Records  int       `json:"records"`
	Dropped  int       `json:"dropped"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
	Stale    bool      `json:"stale,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Usable reports whether the source has data to serve, possibly from an
// earlier load.
func (s Status) Usable() bool { return s.State == StateLoaded || s.Stale }

// NotLoadedError lists the sources a request needed but could not use.
type NotLoadedError struct {
	Missing []Name
}

func (e *NotLoadedError) Error() string {
	names := make([]string, len(e.Missing))
	for i, n := range e.Missing {
		names[i] = string(n)
	}
	return fmt.Sprintf("%s: %s", ErrNotLoaded, strings.Join(names, ", "))
}

func (e *NotLoadedError) Unwrap() error { return ErrNotLoaded }
