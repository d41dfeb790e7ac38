package google

import (
	"time"

	ports "budge/internal/sheets"
)

const totalLabel = "TOTAL"

// snapshotRows converts a snapshot to sheet rows: one per category in
// snapshot order, then a totals row. Columns: exported at, user, start, end,
// category, budgeted, spent, percentage, over budget, category id.
// Amounts are plain decimal strings so USER_ENTERED parses them as numbers.
func snapshotRows(s ports.Snapshot) [][]any {
	at := s.GeneratedAt.UTC().Format(time.RFC3339)
	start, end := s.Period.Start.String(), s.Period.End.String()

	rows := make([][]any, 0, len(s.Categories)+1)
	for _, c := range s.Categories {
		rows = append(rows, []any{
			at, s.UserID, start, end,
			c.Name,
			c.Budgeted.String(),
			c.Spent.String(),
			c.Percentage.String(),
			c.OverBudget,
			c.ID,
		})
	}
	t := s.Totals
	rows = append(rows, []any{
		at, s.UserID, start, end,
		totalLabel,
		t.Budgeted.String(),
		t.Spent.String(),
		t.Percentage.String(),
		t.Spent.Cents > t.Budgeted.Cents,
		"",
	})
	return rows
}
