// Package dashboard owns the served snapshot and answers every dashboard
// query from it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/observability"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/source"
)

var (
	// ErrUnknownEntity is returned when a reservoir has no series.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrInvalidFrequency is returned for a frequency other than daily or monthly.
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// SnapshotLoader builds a new snapshot from the previous one.
type SnapshotLoader interface {
	Load(ctx context.Context, prev *source.Snapshot) *source.Snapshot
}

// AlertPublisher announces alerts that became active.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.AlertRecord) error
}

// Controller serves queries from the current snapshot and swaps in a new
// one on every reload. Readers never block on a reload in progress.
type Controller struct {
	loader    SnapshotLoader
	publisher AlertPublisher
	views     *viewCache
	current   atomic.Pointer[source.Snapshot]
	reloadMu  sync.Mutex
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Controller with nothing loaded. publisher may be nil.
func New(loader SnapshotLoader, publisher AlertPublisher, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	c := &Controller{
		loader:    loader,
		publisher: publisher,
		views:     newViewCache(cacheSize),
		logger:    logger,
		metrics:   metrics,
	}
	c.current.Store(source.EmptySnapshot())
	return c
}

// Snapshot returns the snapshot currently being served.
func (c *Controller) Snapshot() *source.Snapshot {
	return c.current.Load()
}

// Reload fetches every source and atomically replaces the served snapshot.
// Concurrent calls are serialized. Alerts that are active today but were
// not in the previous snapshot are published, except on the first load.
func (c *Controller) Reload(ctx context.Context) *source.Snapshot {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	start := time.Now()
	prev := c.current.Load()
	next := c.loader.Load(ctx, prev)
	c.current.Store(next)
	c.metrics.ReloadDuration.Observe(time.Since(start).Seconds())

	today := domain.Today()
	active := domain.ActiveAlerts(next.Data.Alerts(), today)
	c.metrics.AlertsActive.Set(float64(len(active)))

	c.logger.Info("snapshot reloaded",
		"generation", next.Generation,
		"duration", time.Since(start),
		"active_alerts", len(active))

	if prev.Generation > 0 && c.publisher != nil {
		fresh := NewlyActive(domain.ActiveAlerts(prev.Data.Alerts(), today), active)
		if len(fresh) > 0 {
			if err := c.publisher.PublishAlerts(ctx, fresh); err != nil {
				c.logger.Error("publish alert notices failed", "count", len(fresh), "error", err)
			} else {
				c.metrics.AlertsPublished.Add(float64(len(fresh)))
				c.logger.Info("alert notices published", "count", len(fresh))
			}
		}
	}
	return next
}

// CheckReadiness reports whether the map view can be served.
func (c *Controller) CheckReadiness(_ context.Context) error {
	return c.Snapshot().Require(source.MapSources...)
}

// DefaultDate is the latest date of the system-wide aggregate series, or
// today when that series is not available.
func (c *Controller) DefaultDate() time.Time {
	return defaultDate(c.Snapshot())
}

func defaultDate(snap *source.Snapshot) time.Time {
	if d := domain.LatestDate(snap.Data.Levels.Daily.Series(domain.AggregateKeyBig6)); !d.IsZero() {
		return d
	}
	return domain.Today()
}

// resolveDate parses a request date, defaulting to the snapshot's default.
func resolveDate(snap *source.Snapshot, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return defaultDate(snap), nil
	}
	return domain.ParseDate(s)
}

// View returns the full dashboard view for a date and optional service area.
func (c *Controller) View(date, serviceArea string) (domain.ViewModel, error) {
	snap := c.Snapshot()
	if err := snap.Require(source.ViewSources...); err != nil {
		return domain.ViewModel{}, err
	}
	d, err := resolveDate(snap, date)
	if err != nil {
		return domain.ViewModel{}, err
	}
	return c.buildView(snap, "view", snap.Data.ViewInput(), domain.ViewQuery{Date: d, ServiceArea: serviceArea}), nil
}

// ReservoirList is the list panel for one date.
type ReservoirList struct {
	Date       string              `json:"date"`
	Aggregates []domain.EntityView `json:"aggregates"`
	Reservoirs []domain.EntityView `json:"reservoirs"`
}

// Reservoirs returns every reservoir and aggregate resolved on a date. It
// needs only the geo and level sources.
func (c *Controller) Reservoirs(date string) (ReservoirList, error) {
	snap := c.Snapshot()
	if err := snap.Require(source.MapSources...); err != nil {
		return ReservoirList{}, err
	}
	d, err := resolveDate(snap, date)
	if err != nil {
		return ReservoirList{}, err
	}
	in := domain.ViewInput{Features: snap.Data.Features, Levels: snap.Data.Levels}
	vm := c.buildView(snap, "reservoirs", in, domain.ViewQuery{Date: d})
	return ReservoirList{Date: vm.Date, Aggregates: vm.Aggregates, Reservoirs: vm.Reservoirs}, nil
}

func (c *Controller) buildView(snap *source.Snapshot, kind string, in domain.ViewInput, q domain.ViewQuery) domain.ViewModel {
	key := fmt.Sprintf("%d|%s|%s|%s", snap.Generation, kind, domain.FormatDate(q.Date), strings.ToLower(q.ServiceArea))
	if vm, ok := c.views.get(key); ok {
		c.metrics.ViewCache.WithLabelValues("hit").Inc()
		return vm
	}
	c.metrics.ViewCache.WithLabelValues("miss").Inc()

	start := time.Now()
	vm := domain.BuildViewModel(in, q)
	c.metrics.ViewBuildDuration.Observe(time.Since(start).Seconds())
	c.metrics.ViewBuilds.Inc()

	c.views.put(key, vm)
	return vm
}

// Frequency selects the daily or monthly tables.
type Frequency string

const (
	Daily   Frequency = "daily"
	Monthly Frequency = "monthly"
)

// ParseFrequency parses a frequency name. The empty string means Daily.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(s)); f {
	case Daily, Monthly:
		return f, nil
	case "":
		return Daily, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

// Series returns the level chart of one reservoir or aggregate. name may be
// a display name or a series key. A population line is added when the
// population source is loaded.
func (c *Controller) Series(name, window, frequency string) (domain.Chart, error) {
	w, err := domain.ParseWindow(window)
	if err != nil {
		return domain.Chart{}, err
	}
	freq, err := ParseFrequency(frequency)
	if err != nil {
		return domain.Chart{}, err
	}

	snap := c.Snapshot()
	table, need := snap.Data.Levels.Daily, source.LevelsDaily
	if freq == Monthly {
		table, need = snap.Data.Levels.Monthly, source.LevelsMonthly
	}
	if err := snap.Require(need); err != nil {
		return domain.Chart{}, err
	}

	series, ok := table[domain.SeriesKey(name)]
	if !ok {
		// Keys that do not normalize to themselves are matched verbatim.
		if series, ok = table[name]; !ok {
			return domain.Chart{}, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
		}
	}

	chart := domain.LevelChart(series, w, domain.Today())
	if snap.Has(source.Population) {
		chart = chart.WithPopulation(snap.Data.Population)
	}
	return chart, nil
}

// Rainfall returns the rainfall chart for a window and frequency.
func (c *Controller) Rainfall(window, frequency string) (domain.Chart, error) {
	w, err := domain.ParseWindow(window)
	if err != nil {
		return domain.Chart{}, err
	}
	freq, err := ParseFrequency(frequency)
	if err != nil {
		return domain.Chart{}, err
	}

	snap := c.Snapshot()
	series, need := snap.Data.RainfallDaily, source.RainfallDaily
	if freq == Monthly {
		series, need = snap.Data.RainfallMonthly, source.RainfallMonthly
	}
	if err := snap.Require(need); err != nil {
		return domain.Chart{}, err
	}
	return domain.RainfallChart(series, w, domain.Today()), nil
}

// PopulationEstimate is the interpolated population on a date.
type PopulationEstimate struct {
	Date       string                   `json:"date"`
	Population *float64                 `json:"population"`
	Samples    []domain.PopulationPoint `json:"samples"`
}

// Population estimates the population on a date.
func (c *Controller) Population(date string) (PopulationEstimate, error) {
	snap := c.Snapshot()
	if err := snap.Require(source.Population); err != nil {
		return PopulationEstimate{}, err
	}
	d, err := resolveDate(snap, date)
	if err != nil {
		return PopulationEstimate{}, err
	}
	est := PopulationEstimate{Date: domain.FormatDate(d), Samples: snap.Data.Population}
	if v, ok := domain.InterpolatePopulation(snap.Data.Population, d); ok {
		est.Population = &v
	}
	return est, nil
}

// AlertList is the alert panel for one date.
type AlertList struct {
	Date        string              `json:"date"`
	ServiceArea string              `json:"service_area,omitempty"`
	Alerts      []domain.AlertView  `json:"alerts"`
	Summary     domain.AlertSummary `json:"summary"`
}

// Alerts returns the alerts active on a date, optionally filtered by
// service area. The summary always covers every active alert.
func (c *Controller) Alerts(date, serviceArea string) (AlertList, error) {
	active, d, err := c.activeAlerts(date)
	if err != nil {
		return AlertList{}, err
	}
	return AlertList{
		Date:        domain.FormatDate(d),
		ServiceArea: serviceArea,
		Alerts:      domain.AlertViews(domain.FilterByServiceArea(active, serviceArea)),
		Summary:     domain.SummarizeAlerts(active),
	}, nil
}

// AlertPoints returns the mappable active alerts as a point collection.
func (c *Controller) AlertPoints(date, serviceArea string) (*geojson.FeatureCollection, error) {
	active, _, err := c.activeAlerts(date)
	if err != nil {
		return nil, err
	}
	return domain.AlertPoints(domain.FilterByServiceArea(active, serviceArea)), nil
}

func (c *Controller) activeAlerts(date string) ([]domain.AlertRecord, time.Time, error) {
	snap := c.Snapshot()
	if err := snap.Require(source.AlertSources...); err != nil {
		return nil, time.Time{}, err
	}
	d, err := resolveDate(snap, date)
	if err != nil {
		return nil, time.Time{}, err
	}
	return domain.ActiveAlerts(snap.Data.Alerts(), d), d, nil
}

// DateRange is the selectable date range of the dashboard.
type DateRange struct {
	Min     string `json:"min,omitempty"`
	Max     string `json:"max,omitempty"`
	Default string `json:"default"`
}

// Dates returns the range covered by the daily level table and the
// default selected date.
func (c *Controller) Dates() DateRange {
	snap := c.Snapshot()
	b := domain.LevelBounds(snap.Data.Levels.Daily)
	return DateRange{
		Min:     domain.FormatDate(b.Min),
		Max:     domain.FormatDate(b.Max),
		Default: domain.FormatDate(defaultDate(snap)),
	}
}

// Status returns the load status of every source.
func (c *Controller) Status() []source.Status {
	return c.Snapshot().Statuses()
}
