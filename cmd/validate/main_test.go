package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/source"
)

func TestRun_SampleDataPasses(t *testing.T) {
	var out bytes.Buffer
	code := run("../../data", &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_MissingSourcesFail(t *testing.T) {
	var out bytes.Buffer
	code := run(t.TempDir(), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Source loading")
	assert.Contains(t, out.String(), "Validation FAILED.")
}

func TestRun_ReportsBadAlerts(t *testing.T) {
	dir := t.TempDir()
	copyTree(t, "../../data", dir)
	path := filepath.Join(dir, "timeseries", "service_alerts_planned.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"Id":1,"title":"Backwards","service_area":"Water","publish_date":"2024-05-03","expiry_date":"2024-05-01"}
	]`), 0o644))

	var out bytes.Buffer
	assert.Equal(t, 1, run(dir, &out))
	assert.Contains(t, out.String(), "planned:1: expires 2024-05-01 before it is published 2024-05-03")
}

func TestValidateAlerts(t *testing.T) {
	d := func(s string) *time.Time { return parse(t, s) }
	alerts := []domain.AlertRecord{
		{ID: "1", Kind: domain.AlertPlanned, ServiceArea: "Water", PublishDate: d("2024-05-01"), ExpiryDate: d("2024-05-02")},
		{ID: "1", Kind: domain.AlertPlanned, ServiceArea: "", PublishDate: d("2024-05-01"), ExpiryDate: d("2024-05-02"),
			Coordinates: &domain.Coordinates{Lat: 120, Lng: 18}},
		{ID: "2", Kind: domain.AlertUnplanned, ServiceArea: "Water"},
	}

	p := validateAlerts(alerts)

	assert.Len(t, p.errors, 4)
}

func TestValidateRanges(t *testing.T) {
	over := 104.2
	data := source.Data{Levels: domain.LevelTables{Daily: domain.LevelTable{
		"wemmershoek": {{Date: *parse(t, "2024-05-01"), PercentFull: &over}},
	}}}

	p := validateRanges(data)

	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "outside [0,100]")
}

func parse(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func copyTree(t *testing.T, src, dst string) {
	t.Helper()
	require.NoError(t, filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, b, 0o644)
	}))
}
