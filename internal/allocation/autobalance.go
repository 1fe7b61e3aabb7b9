package allocation

import (
	"github.com/vouchersplit/backend/internal/errs"
)

const (
	MinEvenSplit = 2
	MaxEvenSplit = 100
)

// CanFillRemaining reports whether FillRemaining would change anything.
func CanFillRemaining(a Allocation) bool {
	return a.Remaining() > 0
}

// FillRemaining puts the unallocated amount into the first unset slot, or
// into a new trailing slot when every slot is filled.
func FillRemaining(a Allocation) Allocation {
	remaining := a.Remaining()
	if remaining <= 0 {
		return a
	}
	for i, v := range a.slots {
		if v == Unset {
			return a.SetSlot(i, remaining)
		}
	}
	a = a.AddSlot()
	return a.SetSlot(a.Len()-1, remaining)
}

// AutoCompleteTrailing recomputes the last slot after slot edited changed so
// that the allocation balances. Only the last slot is touched. A negative
// result leaves the last slot blank. Editing the last slot itself is a no-op.
func AutoCompleteTrailing(a Allocation, edited int) Allocation {
	last := a.Len() - 1
	if last < 1 || edited < 0 || edited >= last {
		return a
	}

	var others int64
	for _, v := range a.slots[:last] {
		others += v
	}
	complement := a.original - others
	if complement < 0 {
		complement = Unset
	}
	return a.SetSlot(last, complement)
}

// EditSlot sets one slot and applies the trailing auto-complete.
func EditSlot(a Allocation, index int, cents int64) Allocation {
	return AutoCompleteTrailing(a.SetSlot(index, cents), index)
}

// EvenSplit replaces all slots with n near-equal amounts. Each slot gets the
// per-slot share rounded to the cent and the last slot absorbs whatever
// rounding leaves over, so the result always sums to the original value.
func EvenSplit(a Allocation, n int) (Allocation, error) {
	if n < MinEvenSplit || n > MaxEvenSplit {
		return a, errs.Markf(errs.ErrValidation, "split count must be between %d and %d, got %d", MinEvenSplit, MaxEvenSplit, n)
	}
	count := int64(n)
	if a.original < count {
		return a, errs.Markf(errs.ErrValidation, "cannot split %d cents into %d positive vouchers", a.original, n)
	}

	share := roundDiv(a.original, count)
	if share*(count-1) >= a.original {
		share = a.original / count
	}

	slots := make([]int64, n)
	for i := range slots[:n-1] {
		slots[i] = share
	}
	slots[n-1] = a.original - share*(count-1)
	return a.with(slots), nil
}

// roundDiv divides non-negative a by positive b rounding half away from zero.
func roundDiv(a, b int64) int64 {
	return (2*a + b) / (2 * b)
}
