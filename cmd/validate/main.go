// Command validate performs integrity checks on a data directory laid out
// like the storage bucket: every source decodes without dropped records,
// every reservoir has a reading, values are in range, alert records are
// coherent, and the derived view agrees with the band classifier.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/adapter/storage"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/observability"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/source"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory laid out like the storage bucket")
	flag.Parse()

	os.Exit(run(*dataDir, os.Stdout))
}

func run(dataDir string, out io.Writer) int {
	fmt.Fprintln(out, "=== Reservoir Data Integrity Validation ===")
	fmt.Fprintln(out)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loader := source.NewLoader(storage.NewDirStore(dataDir), logger, observability.NewMetricsForTesting())
	snap := loader.Load(context.Background(), source.EmptySnapshot())

	phases := []*phase{
		validateSources(snap),
		validateCoverage(snap.Data),
		validateRanges(snap.Data),
		validateAlerts(snap.Data.Alerts()),
		validateView(snap.Data),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-34s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	for _, st := range snap.Statuses() {
		fmt.Fprintf(out, "  %-20s %-10s %5d records\n", st.Name, st.State, st.Records)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateSources(snap *source.Snapshot) *phase {
	p := &phase{name: "Source loading"}
	for _, st := range snap.Statuses() {
		if st.State != source.StateLoaded {
			p.errorf("%s: %s %s", st.Name, st.State, st.Error)
			continue
		}
		if st.Dropped > 0 {
			p.errorf("%s: %d records dropped", st.Name, st.Dropped)
		}
	}
	return p
}

func validateCoverage(data source.Data) *phase {
	p := &phase{name: "Reservoir coverage"}

	known := make(map[string]bool, len(data.Features))
	for _, name := range domain.AggregateNames {
		known[domain.SeriesKey(name)] = true
	}
	for _, f := range data.Features {
		known[f.Key()] = true
		if f.Aggregate() {
			continue
		}
		if f.Name == "" {
			p.errorf("feature without NAME")
		}
		if len(f.Polygons()) == 0 {
			p.errorf("%s: no polygon geometry", f.Name)
		}
		_, hasDaily := data.Levels.Daily[f.Key()]
		_, hasMonthly := data.Levels.Monthly[f.Key()]
		if !hasDaily && !hasMonthly && len(f.StorageLevels) == 0 && f.CurrentPercent == nil {
			p.errorf("%s: no series under key %q and no static value", f.Name, f.Key())
		}
	}

	for key := range data.Levels.Daily {
		if !known[key] {
			p.errorf("daily series %q matches no feature", key)
		}
	}
	return p
}

func validateRanges(data source.Data) *phase {
	p := &phase{name: "Value ranges"}
	for label, table := range map[string]domain.LevelTable{"daily": data.Levels.Daily, "monthly": data.Levels.Monthly} {
		for key, series := range table {
			for _, pt := range series {
				if v := pt.PercentFull; v != nil && (*v < 0 || *v > 100) {
					p.errorf("%s %s %s: percent_full %.1f outside [0,100]", label, key, domain.FormatDate(pt.Date), *v)
				}
			}
		}
	}
	for _, series := range [][]domain.RainfallPoint{data.RainfallDaily, data.RainfallMonthly} {
		for _, pt := range series {
			if pt.Prcp != nil && *pt.Prcp < 0 {
				p.errorf("rainfall %s: negative prcp %.1f", domain.FormatDate(pt.Date), *pt.Prcp)
			}
		}
	}
	for _, pt := range data.Population {
		if pt.Population <= 0 {
			p.errorf("population %d: non-positive value", pt.Year)
		}
	}
	return p
}

func validateAlerts(alerts []domain.AlertRecord) *phase {
	p := &phase{name: "Alert records"}
	seen := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		if seen[a.Key()] {
			p.errorf("%s: duplicate id", a.Key())
		}
		seen[a.Key()] = true

		if a.PublishDate == nil || a.ExpiryDate == nil {
			p.errorf("%s: missing publish or expiry date", a.Key())
		} else if a.ExpiryDate.Before(*a.PublishDate) {
			p.errorf("%s: expires %s before it is published %s",
				a.Key(), domain.FormatDate(*a.ExpiryDate), domain.FormatDate(*a.PublishDate))
		}
		if a.ServiceArea == "" {
			p.errorf("%s: empty service_area", a.Key())
		}
		if c := a.Coordinates; c != nil && (c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180) {
			p.errorf("%s: coordinates %.4f,%.4f out of range", a.Key(), c.Lat, c.Lng)
		}
	}
	return p
}

func validateView(data source.Data) *phase {
	p := &phase{name: "View derivation"}

	date := domain.LatestDate(data.Levels.Daily.Series(domain.AggregateKeyBig6))
	if date.IsZero() {
		p.errorf("no %s series to select a date from", domain.AggregateKeyBig6)
		return p
	}
	vm := domain.BuildViewModel(data.ViewInput(), domain.ViewQuery{Date: date})

	parts := 0
	for _, f := range data.Features {
		if !f.Aggregate() {
			parts += len(f.Polygons())
		}
	}
	if len(vm.Map.Features) != parts {
		p.errorf("map has %d features, want %d polygon parts", len(vm.Map.Features), parts)
	}

	for _, v := range append(vm.Aggregates, vm.Reservoirs...) {
		if want := domain.Classify(v.Percent); v.Band != want {
			p.errorf("%s: band %s, classifier gives %s", v.Name, v.Band, want)
		}
		if v.Percent == nil && v.Label != domain.NotAvailable {
			p.errorf("%s: label %q without a reading", v.Name, v.Label)
		}
	}
	if len(vm.Aggregates) != len(domain.AggregateNames) {
		p.errorf("%d of %d aggregates resolved on %s", len(vm.Aggregates), len(domain.AggregateNames), vm.Date)
	}
	return p
}
