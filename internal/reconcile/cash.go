package reconcile

import "github.com/shopspring/decimal"

// matchTolerance absorbs rounding between the computed expectation and a
// hand-counted drawer: differences within ±1 currency unit are a MATCH. It is
// a policy constant, not a derived value.
var matchTolerance = decimal.NewFromInt(1)

type Classification string

const (
	ClassMatch    Classification = "match"
	ClassShortage Classification = "shortage"
	ClassSurplus  Classification = "surplus"
)

// CashInputs are the five components of the expected-cash equation.
type CashInputs struct {
	OpeningCash      decimal.Decimal
	TotalRevenue     decimal.Decimal
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	TotalWithdrawals decimal.Decimal
}

// ExpectedCash is linear in its inputs:
// opening + revenue + income - expenses - withdrawals.
func ExpectedCash(in CashInputs) decimal.Decimal {
	return in.OpeningCash.
		Add(in.TotalRevenue).
		Add(in.TotalIncome).
		Sub(in.TotalExpenses).
		Sub(in.TotalWithdrawals)
}

type CashResult struct {
	Expected       decimal.Decimal
	Counted        decimal.Decimal
	Difference     decimal.Decimal
	Classification Classification
	// Loss is set for SHORTAGE (|difference|), Extra for SURPLUS.
	Loss  decimal.Decimal
	Extra decimal.Decimal
}

// Reconcile compares a counted drawer amount against the expectation. Pure;
// called both live during a draft and when reconstructing a locked day from
// its persisted totals, and must agree in both cases.
func Reconcile(in CashInputs, counted decimal.Decimal) CashResult {
	expected := ExpectedCash(in)
	difference := counted.Sub(expected)

	result := CashResult{
		Expected:   expected,
		Counted:    counted,
		Difference: difference,
	}

	switch {
	case difference.Abs().LessThanOrEqual(matchTolerance):
		result.Classification = ClassMatch
	case difference.IsNegative():
		result.Classification = ClassShortage
		result.Loss = difference.Abs()
	default:
		result.Classification = ClassSurplus
		result.Extra = difference
	}
	return result
}
