package billing

import (
	"github.com/shopspring/decimal"

	"billdesk/internal/domain"
)

// Totals is the aggregate of a priced cart against the cash tendered.
type Totals struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
	CashPaid decimal.Decimal
	// Change is cash paid minus total and goes negative on underpayment.
	Change decimal.Decimal
}

// Aggregate sums line subtotals and taxes and derives the change.
func Aggregate(items []domain.PurchaseItem, cashPaid decimal.Decimal) Totals {
	subtotal, tax := decimal.Zero, decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineSubtotal)
		tax = tax.Add(it.LineTax)
	}
	subtotal, tax = Round2(subtotal), Round2(tax)
	total := Round2(subtotal.Add(tax))
	cashPaid = Round2(cashPaid)
	return Totals{
		Subtotal: subtotal,
		TaxTotal: tax,
		Total:    total,
		CashPaid: cashPaid,
		Change:   Round2(cashPaid.Sub(total)),
	}
}

// ChangeOwed reports whether any change has to be handed back.
func (t Totals) ChangeOwed() bool { return t.Change.IsPositive() }

// ChangeGiven is the change recorded on the purchase, never negative.
func (t Totals) ChangeGiven() decimal.Decimal {
	if !t.ChangeOwed() {
		return decimal.Zero
	}
	return t.Change
}

// WholeUnits is the part of the change the drawer can pay out. Minor units are dropped.
func (t Totals) WholeUnits() int64 {
	if !t.ChangeOwed() {
		return 0
	}
	return t.Change.IntPart()
}

// Underpaid reports whether the cash tendered does not cover the total.
func (t Totals) Underpaid() bool { return t.Change.IsNegative() }
