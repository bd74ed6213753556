package billing

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"billdesk/internal/domain"
)

// ErrChangeInfeasible is matched by *InfeasibleError.
var ErrChangeInfeasible = errors.New("exact change not possible")

// InfeasibleError reports the part of the change the drawer could not cover.
type InfeasibleError struct {
	Amount    int64
	Remaining int64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("%s: amount=%d remaining=%d", ErrChangeInfeasible, e.Amount, e.Remaining)
}

func (e *InfeasibleError) Is(target error) bool { return target == ErrChangeInfeasible }

// SortDesc returns a copy of inventory ordered highest value first.
func SortDesc(inventory []domain.Denomination) []domain.Denomination {
	out := slices.Clone(inventory)
	slices.SortStableFunc(out, func(a, b domain.Denomination) int { return cmp.Compare(b.Value, a.Value) })
	return out
}

// Dispense picks notes for amount whole units, greedily from the highest value
// down, never taking more of a value than is on hand. It either covers amount
// exactly or returns *InfeasibleError; inventory is not modified either way.
func Dispense(amount int64, inventory []domain.Denomination) ([]domain.DispensedNote, error) {
	if amount <= 0 {
		return nil, nil
	}
	remaining := amount
	notes := make([]domain.DispensedNote, 0, len(inventory))
	for _, d := range SortDesc(inventory) {
		if remaining == 0 {
			break
		}
		if d.Value <= 0 || d.Count <= 0 {
			continue
		}
		use := min(remaining/d.Value, d.Count)
		if use > 0 {
			notes = append(notes, domain.DispensedNote{Value: d.Value, Count: use})
			remaining -= use * d.Value
		}
	}
	if remaining != 0 {
		return nil, &InfeasibleError{Amount: amount, Remaining: remaining}
	}
	return notes, nil
}

// Bill is a fully computed sale, ready to be persisted.
type Bill struct {
	Items  []domain.PurchaseItem
	Totals Totals
	Change domain.ChangeBreakdown
}

// Compute aggregates priced items and works out the change breakdown against inventory.
func Compute(items []domain.PurchaseItem, cashPaid decimal.Decimal, inventory []domain.Denomination) Bill {
	totals := Aggregate(items, cashPaid)
	bill := Bill{Items: items, Totals: totals, Change: domain.NoChange()}
	if !totals.ChangeOwed() {
		return bill
	}
	notes, err := Dispense(totals.WholeUnits(), inventory)
	var infeasible *InfeasibleError
	switch {
	case errors.As(err, &infeasible):
		bill.Change = domain.Infeasible(infeasible.Remaining)
	case len(notes) > 0:
		bill.Change = domain.Dispensed(notes)
	}
	return bill
}
