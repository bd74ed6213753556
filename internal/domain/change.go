package domain

// ChangeKind tags which variant a ChangeBreakdown holds.
type ChangeKind string

const (
	ChangeNone       ChangeKind = "none"
	ChangeDispensed  ChangeKind = "dispensed"
	ChangeInfeasible ChangeKind = "infeasible"
)

// ChangeInfeasibleMessage is recorded on purchases where exact change could not be made.
const ChangeInfeasibleMessage = "cannot make exact change with available denominations"

// DispensedNote is how many units of one denomination were handed out.
type DispensedNote struct {
	Value int64 `json:"value"`
	Count int64 `json:"count"`
}

// ChangeBreakdown is either nothing owed, the notes dispensed (highest value
// first) or an infeasibility marker carrying the amount that could not be covered.
type ChangeBreakdown struct {
	Kind      ChangeKind      `json:"kind"`
	Dispensed []DispensedNote `json:"dispensed,omitempty"`
	Remaining int64           `json:"remaining,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func NoChange() ChangeBreakdown { return ChangeBreakdown{Kind: ChangeNone} }

func Dispensed(notes []DispensedNote) ChangeBreakdown {
	return ChangeBreakdown{Kind: ChangeDispensed, Dispensed: notes}
}

func Infeasible(remaining int64) ChangeBreakdown {
	return ChangeBreakdown{Kind: ChangeInfeasible, Remaining: remaining, Error: ChangeInfeasibleMessage}
}

func (c ChangeBreakdown) IsInfeasible() bool { return c.Kind == ChangeInfeasible }

// Total is the whole-unit sum of dispensed notes.
func (c ChangeBreakdown) Total() int64 {
	var sum int64
	for _, n := range c.Dispensed {
		sum += n.Value * n.Count
	}
	return sum
}
