// Command snapshot loads every source from a local data directory and writes
// the dashboard view model for one date as JSON. It runs the same load and
// derivation code as the service, so its output can be hosted statically or
// used as a fixture.
//
// Usage:
//
//	go run ./cmd/snapshot \
//	  -data-dir data \
//	  -date 2024-05-03 \
//	  -service-area Water \
//	  -today 2024-05-10 \
//	  -out view.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/adapter/storage"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/observability"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/source"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "snapshot:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "directory laid out like the storage bucket")
	date := fs.String("date", "", "selected date (YYYY-MM-DD); defaults to the latest aggregate reading")
	area := fs.String("service-area", "", "only include alerts for this service area")
	today := fs.String("today", "", "pin the current date (YYYY-MM-DD) for reproducible output")
	out := fs.String("out", "", "output path; stdout when empty")
	verbose := fs.Bool("v", false, "log source loading to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *today != "" {
		t, err := domain.ParseDate(*today)
		if err != nil {
			return fmt.Errorf("-today: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t.Add(12 * time.Hour)))
		defer domain.SetClock(nil)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	metrics := observability.NewMetricsForTesting()

	loader := source.NewLoader(storage.NewDirStore(*dataDir), logger, metrics)
	dash := dashboard.New(loader, nil, 1, logger, metrics)
	snap := dash.Reload(context.Background())

	for _, st := range snap.Statuses() {
		if st.State != source.StateLoaded {
			logger.Warn("source not loaded", "source", st.Name, "error", st.Error)
		}
	}

	vm, err := dash.View(*date, *area)
	if err != nil {
		var nle *source.NotLoadedError
		if errors.As(err, &nle) {
			return fmt.Errorf("cannot build view from %s: %w", *dataDir, err)
		}
		return err
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(vm); err != nil {
		return fmt.Errorf("write view: %w", err)
	}
	if *out != "" {
		logger.Info("view written", "path", *out, "date", vm.Date, "reservoirs", len(vm.Reservoirs))
	}
	return nil
}
