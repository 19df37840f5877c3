package source

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/observability"
)

// Loader fetches and decodes every source in the catalog.
type Loader struct {
	store   Store
	catalog []Definition
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader over the full catalog.
func NewLoader(store Store, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		store:   store,
		catalog: Catalog,
		logger:  logger,
		metrics: metrics,
	}
}

type outcome struct {
	def      Definition
	decoded  decoded
	err      error
	duration time.Duration
}

// Load fetches every source concurrently and returns a new snapshot. A
// source that fails keeps the data it had in prev, marked stale, so one bad
// object degrades only the views that depend on it. Load never returns nil.
func (l *Loader) Load(ctx context.Context, prev *Snapshot) *Snapshot {
	if prev == nil {
		prev = EmptySnapshot()
	}

	outcomes := make([]outcome, len(l.catalog))
	var wg sync.WaitGroup
	for i, def := range l.catalog {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = l.loadOne(ctx, def)
		}()
	}
	wg.Wait()

	now := time.Now().UTC()
	next := &Snapshot{
		Generation: prev.Generation + 1,
		LoadedAt:   now,
		Data:       prev.Data,
		statuses:   maps.Clone(prev.statuses),
	}
	if next.statuses == nil {
		next.statuses = make(map[Name]Status, len(l.catalog))
	}

	for _, o := range outcomes {
		name := o.def.Name
		if o.err != nil {
			st := prev.Status(name)
			st.State = StateFailed
			st.Error = o.err.Error()
			st.Stale = prev.Status(name).Usable()
			next.statuses[name] = st
			l.logger.Warn("source load failed",
				"source", name, "path", o.def.Path, "stale", st.Stale, "error", o.err)
			continue
		}

		o.decoded.apply(&next.Data)
		next.statuses[name] = Status{
			Name:     name,
			State:    StateLoaded,
			Records:  o.decoded.records,
			Dropped:  o.decoded.dropped,
			LoadedAt: now,
		}
		l.metrics.SourceRecords.WithLabelValues(string(name)).Set(float64(o.decoded.records))
		if o.decoded.dropped > 0 {
			l.metrics.RecordsDropped.WithLabelValues(string(name)).Add(float64(o.decoded.dropped))
		}
		l.logger.Info("source loaded",
			"source", name,
			"records", o.decoded.records,
			"dropped", o.decoded.dropped,
			"duration", o.duration)
	}

	l.metrics.SnapshotGeneration.Set(float64(next.Generation))
	return next
}

func (l *Loader) loadOne(ctx context.Context, def Definition) outcome {
	start := time.Now()
	out := outcome{def: def}
	defer func() {
		out.duration = time.Since(start)
		l.metrics.SourceLoadDuration.WithLabelValues(string(def.Name)).Observe(out.duration.Seconds())
	}()

	data, err := l.store.Get(ctx, def.Path)
	if err != nil {
		l.metrics.SourceLoads.WithLabelValues(string(def.Name), "fetch_error").Inc()
		out.err = fmt.Errorf("fetch %s: %w", def.Path, err)
		return out
	}

	dec, err := decode(def.Name, data)
	if err != nil {
		l.metrics.SourceLoads.WithLabelValues(string(def.Name), "decode_error").Inc()
		out.err = err
		return out
	}
	l.metrics.SourceLoads.WithLabelValues(string(def.Name), "success").Inc()
	out.decoded = dec
	return out
}

// decode dispatches to the decoder for name and wraps the result so it can
// be applied to a Data after every fetch has finished.
func decode(name Name, data []byte) (decoded, error) {
	switch name {
	case Geo:
		features, dropped, err := decodeGeo(data)
		if err != nil {
			return decoded{}, err
		}
		return decoded{len(features), dropped, func(d *Data) { d.Features = features }}, nil
	case LevelsDaily, LevelsMonthly:
		table, dropped, err := decodeLevels(data)
		if err != nil {
			return decoded{}, err
		}
		if name == LevelsDaily {
			return decoded{len(table), dropped, func(d *Data) { d.Levels.Daily = table }}, nil
		}
		return decoded{len(table), dropped, func(d *Data) { d.Levels.Monthly = table }}, nil
	case RainfallDaily, RainfallMonthly:
		series, dropped, err := decodeRainfall(data)
		if err != nil {
			return decoded{}, err
		}
		if name == RainfallDaily {
			return decoded{len(series), dropped, func(d *Data) { d.RainfallDaily = series }}, nil
		}
		return decoded{len(series), dropped, func(d *Data) { d.RainfallMonthly = series }}, nil
	case Population:
		samples, dropped, err := decodePopulation(data)
		if err != nil {
			return decoded{}, err
		}
		return decoded{len(samples), dropped, func(d *Data) { d.Population = samples }}, nil
	case AlertsPlanned, AlertsUnplanned:
		kind := domain.AlertPlanned
		if name == AlertsUnplanned {
			kind = domain.AlertUnplanned
		}
		alerts, undated, err := decodeAlerts(data, kind)
		if err != nil {
			return decoded{}, err
		}
		if kind == domain.AlertPlanned {
			return decoded{len(alerts), undated, func(d *Data) { d.PlannedAlerts = alerts }}, nil
		}
		return decoded{len(alerts), undated, func(d *Data) { d.UnplannedAlerts = alerts }}, nil
	default:
		return decoded{}, fmt.Errorf("unknown source %q", name)
	}
}
