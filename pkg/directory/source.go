package directory

import (
	"context"

	"clinic-kiosk/pkg/model"
)

// Source fetches the full patient table from the external tabular store.
// Implementations return every row on each call; the cache owns freshness.
type Source interface {
	ID() string
	Fetch(ctx context.Context) ([]model.PatientRecord, error)
}
