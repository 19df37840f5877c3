package dashboard

import (
	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
)

// NewlyActive returns the alerts in current whose kind and id do not appear
// in previous, in the order of current.
func NewlyActive(previous, current []domain.AlertRecord) []domain.AlertRecord {
	seen := make(map[string]struct{}, len(previous))
	for _, a := range previous {
		seen[a.Key()] = struct{}{}
	}

	var out []domain.AlertRecord
	for _, a := range current {
		k := a.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}
