package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errMissing = errors.New("object not found")

// memStore serves objects from memory. Paths without content fail.
type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	calls   int
}

func (m *memStore) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	body, ok := m.objects[path]
	if !ok {
		return nil, errMissing
	}
	return []byte(body), nil
}

func (m *memStore) set(path, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = body
}

func (m *memStore) remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
}

func pathOf(t *testing.T, name Name) string {
	t.Helper()
	for _, def := range Catalog {
		if def.Name == name {
			return def.Path
		}
	}
	t.Fatalf("no catalog entry for %s", name)
	return ""
}

func fullStore(t *testing.T) *memStore {
	t.Helper()
	return &memStore{objects: map[string]string{
		pathOf(t, Geo): `{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{"NAME":"Wemmershoek Dam"},"geometry":{"type":"Polygon","coordinates":[[[19.0,-33.8],[19.1,-33.8],[19.1,-33.9],[19.0,-33.8]]]}}
		]}`,
		pathOf(t, LevelsDaily):     `{"wemmershoek":[{"date":"2024-05-01","percent_full":70}]}`,
		pathOf(t, LevelsMonthly):   `{"wemmershoek":[{"date":"2024-04","percent_full":68}]}`,
		pathOf(t, RainfallDaily):   `[{"date":"2024-05-01","prcp":4.2,"tavg":14}]`,
		pathOf(t, RainfallMonthly): `[]`,
		pathOf(t, Population):      `[{"year":2024,"population":4800000}]`,
		pathOf(t, AlertsPlanned):   `[{"Id":1,"title":"Maintenance","service_area":"Electricity","publish_date":"2024-05-01","expiry_date":"2024-05-02"}]`,
		pathOf(t, AlertsUnplanned): `[]`,
	}}
}

func TestLoader_LoadsEverySource(t *testing.T) {
	store := fullStore(t)
	metrics := observability.NewMetricsForTesting()
	loader := NewLoader(store, discardLogger(), metrics)

	snap := loader.Load(context.Background(), nil)

	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, len(Catalog), store.calls)
	for _, st := range snap.Statuses() {
		assert.Equal(t, StateLoaded, st.State, st.Name)
		assert.False(t, st.Stale, st.Name)
	}
	require.NoError(t, snap.Require(ViewSources...))

	assert.Len(t, snap.Data.Features, 1)
	assert.Len(t, snap.Data.Levels.Daily["wemmershoek"], 1)
	assert.Len(t, snap.Data.Levels.Monthly["wemmershoek"], 1)
	assert.Len(t, snap.Data.RainfallDaily, 1)
	assert.Len(t, snap.Data.Population, 1)
	require.Len(t, snap.Data.Alerts(), 1)
	assert.Equal(t, domain.AlertPlanned, snap.Data.Alerts()[0].Kind)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotGeneration))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceLoads.WithLabelValues(string(Geo), "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceRecords.WithLabelValues(string(LevelsDaily))))
}

func TestLoader_LoadedButEmptyIsNotMissing(t *testing.T) {
	store := fullStore(t)
	snap := NewLoader(store, discardLogger(), observability.NewMetricsForTesting()).Load(context.Background(), nil)

	st := snap.Status(AlertsUnplanned)
	assert.Equal(t, StateLoaded, st.State)
	assert.Zero(t, st.Records)
	assert.True(t, snap.Has(AlertsUnplanned))
	assert.Empty(t, snap.Data.UnplannedAlerts)
}

func TestLoader_FailedSourceDegradesOnlyItsViews(t *testing.T) {
	store := fullStore(t)
	store.remove(pathOf(t, Population))
	store.set(pathOf(t, RainfallDaily), `{"not": "an array"}`)

	metrics := observability.NewMetricsForTesting()
	snap := NewLoader(store, discardLogger(), metrics).Load(context.Background(), nil)

	require.NoError(t, snap.Require(ViewSources...))

	pop := snap.Status(Population)
	assert.Equal(t, StateFailed, pop.State)
	assert.False(t, pop.Stale)
	assert.Contains(t, pop.Error, "object not found")

	err := snap.Require(Population, RainfallDaily)
	require.ErrorIs(t, err, ErrNotLoaded)
	var nle *NotLoadedError
	require.ErrorAs(t, err, &nle)
	assert.Equal(t, []Name{Population, RainfallDaily}, nle.Missing)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceLoads.WithLabelValues(string(Population), "fetch_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceLoads.WithLabelValues(string(RainfallDaily), "decode_error")))
}

func TestLoader_ReloadKeepsPreviousDataOnFailure(t *testing.T) {
	store := fullStore(t)
	loader := NewLoader(store, discardLogger(), observability.NewMetricsForTesting())
	first := loader.Load(context.Background(), nil)

	store.remove(pathOf(t, LevelsDaily))
	store.set(pathOf(t, AlertsUnplanned), `[{"Id":7,"title":"New","service_area":"Water","publish_date":"2024-05-01","expiry_date":"2024-05-09"}]`)
	second := loader.Load(context.Background(), first)

	assert.Equal(t, uint64(2), second.Generation)

	daily := second.Status(LevelsDaily)
	assert.Equal(t, StateFailed, daily.State)
	assert.True(t, daily.Stale)
	assert.True(t, second.Has(LevelsDaily))
	assert.Len(t, second.Data.Levels.Daily["wemmershoek"], 1, "stale data is still served")

	assert.Len(t, second.Data.UnplannedAlerts, 1)
	assert.Empty(t, first.Data.UnplannedAlerts, "previous snapshot is not modified")
	assert.Equal(t, StateLoaded, first.Status(LevelsDaily).State)
}

func TestEmptySnapshot(t *testing.T) {
	snap := EmptySnapshot()
	for _, st := range snap.Statuses() {
		assert.Equal(t, StateNotLoaded, st.State)
	}
	require.ErrorIs(t, snap.Require(Geo), ErrNotLoaded)
	assert.NoError(t, snap.Require())
}

func TestNotLoadedError(t *testing.T) {
	err := &NotLoadedError{Missing: []Name{Geo, LevelsDaily}}
	assert.Equal(t, "source not loaded: geo, dam_levels_daily", err.Error())
	assert.True(t, errors.Is(err, ErrNotLoaded))
}
