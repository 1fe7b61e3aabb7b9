// Package allocation models an in-progress voucher split: a fixed original
// value and an ordered list of proposed sub-voucher amounts (slots).
//
// Allocation is a value type. Every operation returns a new Allocation and
// leaves the receiver untouched, so callers can keep earlier versions around
// for undo or comparison.
package allocation

import (
	"math"

	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/money"
)

// Unset marks a slot the user has not filled in yet.
const Unset int64 = 0

type Allocation struct {
	original int64
	slots    []int64
}

// New creates an allocation with no slots.
func New(originalCents int64) (Allocation, error) {
	if originalCents <= 0 {
		return Allocation{}, errs.Markf(errs.ErrValidation, "original value must be positive, got %d", originalCents)
	}
	if originalCents > money.MaxCents {
		return Allocation{}, errs.Markf(errs.ErrValidation, "original value %d is out of range", originalCents)
	}
	return Allocation{original: originalCents}, nil
}

// FromSlots rebuilds an allocation from previously stored slot values.
func FromSlots(originalCents int64, slots []int64) (Allocation, error) {
	a, err := New(originalCents)
	if err != nil {
		return Allocation{}, err
	}
	for i, v := range slots {
		if v < 0 {
			return Allocation{}, errs.Markf(errs.ErrValidation, "slot %d is negative", i+1)
		}
		if v > money.MaxCents {
			return Allocation{}, errs.Markf(errs.ErrValidation, "slot %d is out of range", i+1)
		}
	}
	a.slots = append([]int64(nil), slots...)
	return a, nil
}

func (a Allocation) Original() int64 { return a.original }

func (a Allocation) Len() int { return len(a.slots) }

// Slots returns a copy of the slot values; Unset slots are 0.
func (a Allocation) Slots() []int64 {
	return append([]int64{}, a.slots...)
}

// Slot returns the value at i, or Unset if i is out of range.
func (a Allocation) Slot(i int) int64 {
	if i < 0 || i >= len(a.slots) {
		return Unset
	}
	return a.slots[i]
}

func (a Allocation) AddSlot() Allocation {
	return a.with(append(a.Slots(), Unset))
}

// RemoveSlot drops the slot at index. Out of range indexes are ignored.
func (a Allocation) RemoveSlot(index int) Allocation {
	if index < 0 || index >= len(a.slots) {
		return a
	}
	slots := make([]int64, 0, len(a.slots)-1)
	slots = append(slots, a.slots[:index]...)
	slots = append(slots, a.slots[index+1:]...)
	return a.with(slots)
}

// SetSlot replaces the value at index. 0 clears the slot. Out of range
// indexes, negative values and values above money.MaxCents are ignored.
func (a Allocation) SetSlot(index int, cents int64) Allocation {
	if index < 0 || index >= len(a.slots) || cents < 0 || cents > money.MaxCents {
		return a
	}
	slots := a.Slots()
	slots[index] = cents
	return a.with(slots)
}

// TotalAllocated saturates at math.MaxInt64 instead of wrapping.
func (a Allocation) TotalAllocated() int64 {
	var total int64
	for _, v := range a.slots {
		if v > math.MaxInt64-total {
			return math.MaxInt64
		}
		total += v
	}
	return total
}

// Remaining is negative when the slots exceed the original value.
func (a Allocation) Remaining() int64 {
	return a.original - a.TotalAllocated()
}

// PositiveSlots returns the slots that would be submitted, in order.
func (a Allocation) PositiveSlots() []int64 {
	out := make([]int64, 0, len(a.slots))
	for _, v := range a.slots {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

func (a Allocation) with(slots []int64) Allocation {
	return Allocation{original: a.original, slots: slots}
}
