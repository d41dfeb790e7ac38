// Package sheets defines where period summaries are exported to.
package sheets

import (
	"context"
	"time"

	"budge/internal/core"
)

// Snapshot is the budget-vs-spending view of one user over one period,
// as computed at GeneratedAt.
type Snapshot struct {
	UserID      string
	Period      core.Period
	Categories  []core.CategorySummary
	Totals      core.SummaryTotals
	GeneratedAt time.Time
}

// NewSnapshot computes totals for rows.
func NewSnapshot(userID string, period core.Period, rows []core.CategorySummary, at time.Time) Snapshot {
	return Snapshot{
		UserID:      userID,
		Period:      period,
		Categories:  rows,
		Totals:      core.Totals(period, rows),
		GeneratedAt: at,
	}
}

// SummaryExporter writes a snapshot to an outbound destination and returns
// a reference to where it landed.
type SummaryExporter interface {
	Export(ctx context.Context, s Snapshot) (ref string, err error)
}
