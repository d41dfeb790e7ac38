package core

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent is a percentage rounded half-up to two decimals.
type Percent struct {
	decimal.Decimal
}

func (p Percent) String() string {
	return p.StringFixed(2)
}

// MarshalJSON writes the percentage as a JSON number with two decimals.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// PercentOf returns part/whole*100, or zero when whole is not positive.
func PercentOf(part, whole Money) Percent {
	if whole.Cents <= 0 {
		return Percent{decimal.Zero}
	}
	return Percent{part.Decimal().Mul(hundred).DivRound(whole.Decimal(), 2)}
}

// CategorySummary is the budget-vs-spending view of one category.
type CategorySummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Budgeted   Money   `json:"budgeted"`
	Spent      Money   `json:"spent"`
	Percentage Percent `json:"percentage"`
	OverBudget bool    `json:"over_budget"`
}

// SpendingByCategory is a category with spend inside the window.
type SpendingByCategory struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Amount     Money   `json:"amount"`
	Limit      Money   `json:"limit"`
	Percentage Percent `json:"percentage"`
}

// SummaryTotals aggregates a summary into budget-level figures.
type SummaryTotals struct {
	Period     Period  `json:"period"`
	Budgeted   Money   `json:"budgeted"`
	Spent      Money   `json:"spent"`
	Percentage Percent `json:"percentage"`
}

// Summarize joins categories with the user's expense transactions in period.
//
// Every category appears in the result, in the order given, even without
// spending. Transactions of other users, income, uncategorized ones and
// those outside the window are ignored.
func Summarize(userID string, categories []Category, txs []Transaction, period Period) []CategorySummary {
	spent := make(map[string]Money, len(categories))
	for _, tx := range txs {
		if tx.UserID != userID || tx.Type != Expense || !tx.HasCategory() {
			continue
		}
		if !period.Contains(tx.Date) {
			continue
		}
		spent[*tx.CategoryID] = spent[*tx.CategoryID].Add(tx.Amount)
	}

	out := make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		s := spent[c.ID]
		out = append(out, CategorySummary{
			ID:         c.ID,
			Name:       c.Name,
			Budgeted:   c.Amount,
			Spent:      s,
			Percentage: PercentOf(s, c.Amount),
			OverBudget: s.Cents > c.Amount.Cents,
		})
	}
	return out
}

// Spending keeps only the categories that have spend in the window.
func Spending(summaries []CategorySummary) []SpendingByCategory {
	out := make([]SpendingByCategory, 0, len(summaries))
	for _, s := range summaries {
		if s.Spent.Cents <= 0 {
			continue
		}
		out = append(out, SpendingByCategory{
			ID:         s.ID,
			Name:       s.Name,
			Amount:     s.Spent,
			Limit:      s.Budgeted,
			Percentage: s.Percentage,
		})
	}
	return out
}

func Totals(period Period, summaries []CategorySummary) SummaryTotals {
	t := SummaryTotals{Period: period}
	for _, s := range summaries {
		t.Budgeted = t.Budgeted.Add(s.Budgeted)
		t.Spent = t.Spent.Add(s.Spent)
	}
	t.Percentage = PercentOf(t.Spent, t.Budgeted)
	return t
}
