package allocation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vouchersplit/backend/internal/errs"
)

func mustNew(t *testing.T, original int64, slots ...int64) Allocation {
	t.Helper()
	a, err := FromSlots(original, slots)
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	a, err := New(10000)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), a.Original())
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, int64(10000), a.Remaining())

	for _, v := range []int64{0, -1} {
		_, err := New(v)
		assert.True(t, errs.Is(err, errs.ErrValidation))
	}

	_, err = New(1<<53 + 1)
	assert.True(t, errs.Is(err, errs.ErrValidation))

	_, err = FromSlots(1, []int64{math.MaxInt64, math.MaxInt64, 3})
	assert.True(t, errs.Is(err, errs.ErrValidation))

	_, err = FromSlots(1000, []int64{100, -5})
	assert.True(t, errs.Is(err, errs.ErrValidation))
}

func TestAllocation_Operations(t *testing.T) {
	base := mustNew(t, 10000)

	t.Run("add slot appends unset", func(t *testing.T) {
		a := base.AddSlot().AddSlot()
		assert.Equal(t, []int64{0, 0}, a.Slots())
		assert.Equal(t, 0, base.Len(), "receiver must not change")
	})

	t.Run("set slot", func(t *testing.T) {
		a := base.AddSlot().AddSlot().SetSlot(1, 2500)
		assert.Equal(t, []int64{0, 2500}, a.Slots())
		assert.Equal(t, int64(2500), a.TotalAllocated())
		assert.Equal(t, int64(7500), a.Remaining())

		cleared := a.SetSlot(1, Unset)
		assert.Equal(t, []int64{0, 0}, cleared.Slots())
		assert.Equal(t, []int64{0, 2500}, a.Slots())
	})

	t.Run("set slot ignores bad input", func(t *testing.T) {
		a := base.AddSlot()
		assert.Equal(t, a.Slots(), a.SetSlot(5, 100).Slots())
		assert.Equal(t, a.Slots(), a.SetSlot(-1, 100).Slots())
		assert.Equal(t, a.Slots(), a.SetSlot(0, -100).Slots())
		assert.Equal(t, a.Slots(), a.SetSlot(0, math.MaxInt64).Slots())
	})

	t.Run("remove slot", func(t *testing.T) {
		a := mustNew(t, 10000, 1000, 2000, 3000)
		assert.Equal(t, []int64{1000, 3000}, a.RemoveSlot(1).Slots())
		assert.Equal(t, []int64{1000, 2000, 3000}, a.Slots())
	})

	t.Run("remove out of range is a no-op", func(t *testing.T) {
		a := mustNew(t, 10000, 4000, 6000)
		got := a.RemoveSlot(999)
		assert.Equal(t, 2, got.Len())
		assert.Equal(t, []int64{4000, 6000}, got.Slots())
		assert.Equal(t, []int64{4000, 6000}, a.RemoveSlot(-1).Slots())
	})

	t.Run("remaining may be negative", func(t *testing.T) {
		a := mustNew(t, 10000, 6000, 6000)
		assert.Equal(t, int64(-2000), a.Remaining())
	})

	t.Run("slots returns a copy", func(t *testing.T) {
		a := mustNew(t, 10000, 5000)
		s := a.Slots()
		s[0] = 1
		assert.Equal(t, int64(5000), a.Slot(0))
	})

	t.Run("positive slots keep order", func(t *testing.T) {
		a := mustNew(t, 10000, 0, 3000, 0, 7000)
		assert.Equal(t, []int64{3000, 7000}, a.PositiveSlots())
	})
}

func TestFillRemaining(t *testing.T) {
	t.Run("fills first unset slot", func(t *testing.T) {
		a := mustNew(t, 10000, 3000, 0, 0)
		got := FillRemaining(a)
		assert.Equal(t, []int64{3000, 7000, 0}, got.Slots())
		assert.Equal(t, int64(0), got.Remaining())
	})

	t.Run("appends when all slots set", func(t *testing.T) {
		a := mustNew(t, 10000, 3000, 2000)
		got := FillRemaining(a)
		assert.Equal(t, []int64{3000, 2000, 5000}, got.Slots())
	})

	t.Run("no-op when nothing remains", func(t *testing.T) {
		exact := mustNew(t, 10000, 10000)
		over := mustNew(t, 10000, 6000, 6000)
		assert.False(t, CanFillRemaining(exact))
		assert.False(t, CanFillRemaining(over))
		assert.Equal(t, exact.Slots(), FillRemaining(exact).Slots())
		assert.Equal(t, over.Slots(), FillRemaining(over).Slots())
	})

	t.Run("works on empty allocation", func(t *testing.T) {
		a := mustNew(t, 500)
		assert.True(t, CanFillRemaining(a))
		assert.Equal(t, []int64{500}, FillRemaining(a).Slots())
	})
}

func TestAutoCompleteTrailing(t *testing.T) {
	t.Run("recomputes only the last slot", func(t *testing.T) {
		a := mustNew(t, 10000, 1000, 2000, 3000, 4000, 0)
		got := EditSlot(a, 1, 1500)
		assert.Equal(t, []int64{1000, 1500, 3000, 4000, 500}, got.Slots())
		assert.Equal(t, int64(0), got.Remaining())
	})

	t.Run("blank when others exceed original", func(t *testing.T) {
		a := mustNew(t, 10000, 6000, 3000, 1000)
		got := EditSlot(a, 0, 9000)
		assert.Equal(t, []int64{9000, 3000, 0}, got.Slots())
	})

	t.Run("editing the last slot does not propagate", func(t *testing.T) {
		a := mustNew(t, 10000, 5000, 5000)
		got := EditSlot(a, 1, 1000)
		assert.Equal(t, []int64{5000, 1000}, got.Slots())
	})

	t.Run("single slot untouched", func(t *testing.T) {
		a := mustNew(t, 10000, 100)
		assert.Equal(t, []int64{100}, AutoCompleteTrailing(a, 0).Slots())
	})

	t.Run("idempotent", func(t *testing.T) {
		a := mustNew(t, 10000, 1234, 0, 777)
		once := AutoCompleteTrailing(a, 0)
		twice := AutoCompleteTrailing(once, 0)
		assert.Equal(t, once.Slots(), twice.Slots())
		assert.Equal(t, []int64{1234, 0, 8766}, once.Slots())
	})
}

func TestEvenSplit(t *testing.T) {
	tests := []struct {
		original int64
		n        int
		want     []int64
	}{
		{10000, 2, []int64{5000, 5000}},
		{10000, 4, []int64{2500, 2500, 2500, 2500}},
		{1000, 3, []int64{333, 333, 334}},
		{1000, 7, []int64{143, 143, 143, 143, 143, 143, 142}},
		{150, 100, nil},
	}

	for _, tt := range tests {
		a := mustNew(t, tt.original, 1, 2, 3)
		got, err := EvenSplit(a, tt.n)
		require.NoError(t, err)

		assert.Equal(t, tt.n, got.Len())
		assert.Equal(t, tt.original, got.TotalAllocated(), "split %d into %d must conserve value", tt.original, tt.n)
		if tt.want != nil {
			assert.Equal(t, tt.want, got.Slots())
		}
		for _, v := range got.Slots() {
			assert.Positive(t, v)
		}
	}

	t.Run("exactly one slot absorbs remainder", func(t *testing.T) {
		a := mustNew(t, 1000)
		got, err := EvenSplit(a, 3)
		require.NoError(t, err)

		differing := 0
		for _, v := range got.Slots() {
			if v != 333 {
				differing++
			}
		}
		assert.Equal(t, 1, differing)
	})

	t.Run("rejects bad counts", func(t *testing.T) {
		a := mustNew(t, 10000)
		for _, n := range []int{0, 1, 101} {
			_, err := EvenSplit(a, n)
			assert.True(t, errs.Is(err, errs.ErrValidation))
		}
	})

	t.Run("rejects value smaller than count", func(t *testing.T) {
		_, err := EvenSplit(mustNew(t, 3), 4)
		assert.True(t, errs.Is(err, errs.ErrValidation))
	})
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name  string
		alloc Allocation
		ok    bool
	}{
		{"exact", mustNew(t, 10000, 5000, 5000), true},
		{"zero slots filtered", mustNew(t, 10000, 5000, 0, 5000, 0), true},
		{"under allocated", mustNew(t, 10000, 5000, 4000), false},
		{"over allocated", mustNew(t, 10000, 5000, 5000, 1), false},
		{"no slots", mustNew(t, 10000), false},
		{"only unset slots", mustNew(t, 10000, 0, 0), false},
		{"slot above original", mustNew(t, 10000, 15000), false},
		{"slot above original beside an unset slot", mustNew(t, 10000, 12000, 0), false},
		{"sum wraps past int64", Allocation{original: 1, slots: []int64{math.MaxInt64, math.MaxInt64, 3}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, IsSubmittable(tt.alloc))
			err := Validate(tt.alloc)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errs.Is(err, errs.ErrValidation))
			}
		})
	}

	t.Run("zero value allocation", func(t *testing.T) {
		assert.False(t, IsSubmittable(Allocation{}))
	})

	t.Run("huge slots never balance", func(t *testing.T) {
		a := Allocation{original: 1, slots: []int64{math.MaxInt64, math.MaxInt64, 3}}
		assert.Equal(t, int64(math.MaxInt64), a.TotalAllocated())
		assert.Less(t, a.Remaining(), int64(0))
	})

	t.Run("messages", func(t *testing.T) {
		assert.Contains(t, Validate(mustNew(t, 10000, 15000)).Error(), "voucher 1 is worth more than the original R100.00")
		assert.Contains(t, Validate(mustNew(t, 10000, 5000, 4000)).Error(), "R10.00 still unallocated")
		assert.Contains(t, Validate(mustNew(t, 10000, 5000, 5000, 1)).Error(), "over-allocated by R0.01")
	})
}

func TestEvenSplitThenSubmittable(t *testing.T) {
	for n := MinEvenSplit; n <= MaxEvenSplit; n++ {
		a, err := EvenSplit(mustNew(t, 99999), n)
		require.NoError(t, err)
		assert.True(t, IsSubmittable(a), "n=%d", n)
	}
}
