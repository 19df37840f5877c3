package source

import (
	"time"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
)

// Data is the decoded content of every source. It is shared read-only
// between requests once published in a Snapshot.
type Data struct {
	Features        []domain.Feature
	Levels          domain.LevelTables
	RainfallDaily   []domain.RainfallPoint
	RainfallMonthly []domain.RainfallPoint
	Population      []domain.PopulationPoint
	PlannedAlerts   []domain.AlertRecord
	UnplannedAlerts []domain.AlertRecord
}

// Alerts returns planned then unplanned alerts in a new slice.
func (d Data) Alerts() []domain.AlertRecord {
	out := make([]domain.AlertRecord, 0, len(d.PlannedAlerts)+len(d.UnplannedAlerts))
	out = append(out, d.PlannedAlerts...)
	return append(out, d.UnplannedAlerts...)
}

// ViewInput returns the inputs of the dashboard view model.
func (d Data) ViewInput() domain.ViewInput {
	return domain.ViewInput{
		Features: d.Features,
		Levels:   d.Levels,
		Alerts:   d.Alerts(),
	}
}

// Snapshot is an immutable, fully loaded set of sources. A reload builds a
// new Snapshot rather than modifying the one being served.
type Snapshot struct {
	Generation uint64
	LoadedAt   time.Time
	Data       Data

	statuses map[Name]Status
}

// EmptySnapshot returns a snapshot in which nothing has been loaded.
func EmptySnapshot() *Snapshot {
	s := &Snapshot{statuses: make(map[Name]Status, len(Catalog))}
	for _, def := range Catalog {
		s.statuses[def.Name] = Status{Name: def.Name, State: StateNotLoaded}
	}
	return s
}

// Status returns the load status of a source.
func (s *Snapshot) Status(name Name) Status {
	if st, ok := s.statuses[name]; ok {
		return st
	}
	return Status{Name: name, State: StateNotLoaded}
}

// Statuses returns every source status in catalog order.
func (s *Snapshot) Statuses() []Status {
	out := make([]Status, 0, len(Catalog))
	for _, def := range Catalog {
		out = append(out, s.Status(def.Name))
	}
	return out
}

// Require returns a *NotLoadedError naming every source in names that has
// no usable data.
func (s *Snapshot) Require(names ...Name) error {
	var missing []Name
	for _, n := range names {
		if !s.Status(n).Usable() {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &NotLoadedError{Missing: missing}
	}
	return nil
}

// Has reports whether a single source is usable.
func (s *Snapshot) Has(name Name) bool { return s.Status(name).Usable() }
