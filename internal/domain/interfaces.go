package domain

// BalanceSource exposes custody totals for metrics export
type BalanceSource interface {
	Balances() Balances
}
