package ledger

import "github.com/shopspring/decimal"

// Summary aggregates a transaction sequence for display.
type Summary struct {
	TotalTransactions int     `json:"totalTransactions"`
	TotalCredits      float64 `json:"totalCredits"`
	TotalDebits       float64 `json:"totalDebits"`
	Balance           float64 `json:"balance"`
}

// Summarize computes the three display aggregates: total credits, total
// debits (absolute value), and the balance (credits plus signed debits).
// Sums are accumulated as decimals so repeated float addition does not drift
// in the displayed totals.
func Summarize(txs []Transaction) Summary {
	credits := decimal.Zero
	debits := decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case Credit:
			credits = credits.Add(decimal.NewFromFloat(t.Amount))
		case Debit:
			debits = debits.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	balance := credits.Add(debits)
	return Summary{
		TotalTransactions: len(txs),
		TotalCredits:      credits.InexactFloat64(),
		TotalDebits:       debits.Abs().InexactFloat64(),
		Balance:           balance.InexactFloat64(),
	}
}
