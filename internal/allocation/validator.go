package allocation

import (
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/money"
)

// IsSubmittable reports whether the allocation can be sent for splitting.
func IsSubmittable(a Allocation) bool {
	return Validate(a) == nil
}

// Validate explains why an allocation cannot be submitted. Unset and zero
// slots are skipped rather than rejected.
func Validate(a Allocation) error {
	if a.original <= 0 {
		return errs.Markf(errs.ErrValidation, "allocation has no original value")
	}
	if len(a.PositiveSlots()) == 0 {
		return errs.Markf(errs.ErrValidation, "at least one voucher amount is required")
	}
	for i, v := range a.slots {
		if v > a.original {
			return errs.Markf(errs.ErrValidation, "voucher %d is worth more than the original %s", i+1, money.FormatRand(a.original))
		}
	}

	remaining := a.Remaining()
	switch {
	case remaining > 0:
		return errs.Markf(errs.ErrValidation, "%s still unallocated", money.FormatRand(remaining))
	case remaining < 0:
		return errs.Markf(errs.ErrValidation, "over-allocated by %s", money.FormatRand(-remaining))
	}
	return nil
}
