// Package ledger holds the pure allocation math behind bulk point
// operations: fair share splitting, capacity-limited deductions and
// shortfall redistribution. Storage and policy live elsewhere; everything
// here is deterministic on its inputs.
package ledger

// MemberBalance is a group member's current total at the start of an
// operation. Totals are read once per operation, the plan does not
// re-read them between passes.
type MemberBalance struct {
	StudentID int64
	Total     int64
}

// Deduction is one negative adjustment row to be written for a member.
type Deduction struct {
	StudentID int64
	Amount    int64
}

// DeductionPlan is the outcome of planning a bulk subtract across members.
// Base holds the pass-1 capacity-limited deductions, Extra the pass-2
// shortfall top-ups. Rows are kept separate because each pass writes its
// own adjustment row. Shortfall is whatever remains after a single
// forward sweep over the members; when total member capacity is below the
// requested amount the plan under-deducts rather than failing.
type DeductionPlan struct {
	Base      []Deduction
	Extra     []Deduction
	Shortfall int64
}

// Deducted returns the total amount the plan removes across both passes.
func (p DeductionPlan) Deducted() int64 {
	var sum int64
	for _, d := range p.Base {
		sum += d.Amount
	}
	for _, d := range p.Extra {
		sum += d.Amount
	}
	return sum
}

// Shares splits points across n members: floor division plus one extra
// point for the first points%n members, in enumeration order. The result
// always sums to points and no two shares differ by more than one.
func Shares(points int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	shares := make([]int64, n)
	per := points / int64(n)
	remainder := points % int64(n)
	for i := range shares {
		shares[i] = per
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}

// PercentOf computes a percentage delta with floor rounding.
func PercentOf(total, percentage int64) int64 {
	return total * percentage / 100
}

// PlanDeductions computes the member side of a bulk subtract.
//
// Pass 1 gives every member an intended share (see Shares) and deducts
// min(intended, balance). Pass 2 sweeps the members once more in the same
// order, pushing the accumulated shortfall onto whoever still has
// capacity left relative to their starting balance. The sweep runs only
// once: if capacity runs out the residual shortfall is reported, not
// retried.
func PlanDeductions(members []MemberBalance, points int64) DeductionPlan {
	var plan DeductionPlan
	if len(members) == 0 {
		plan.Shortfall = points
		return plan
	}

	shares := Shares(points, len(members))
	deducted := make(map[int64]int64, len(members))

	for i, m := range members {
		balance := m.Total
		if balance < 0 {
			balance = 0
		}
		intended := shares[i]
		deduct := intended
		if balance < deduct {
			deduct = balance
		}
		if deduct >= 1 {
			plan.Base = append(plan.Base, Deduction{StudentID: m.StudentID, Amount: deduct})
			deducted[m.StudentID] = deduct
		}
		plan.Shortfall += intended - deduct
	}

	if plan.Shortfall <= 0 {
		return plan
	}

	for _, m := range members {
		if plan.Shortfall <= 0 {
			break
		}
		balance := m.Total
		if balance < 0 {
			balance = 0
		}
		capacity := balance - deducted[m.StudentID]
		extra := capacity
		if extra > plan.Shortfall {
			extra = plan.Shortfall
		}
		if extra >= 1 {
			plan.Extra = append(plan.Extra, Deduction{StudentID: m.StudentID, Amount: extra})
			deducted[m.StudentID] += extra
			plan.Shortfall -= extra
		}
	}

	return plan
}
