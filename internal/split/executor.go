// Package split turns a balanced allocation into issued vouchers. It owns the
// single upstream split call, the per-voucher submission guard and the
// session state machine a client walks through while planning a split.
package split

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vouchersplit/backend/internal/allocation"
	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
)

// Request is one upstream split call. AmountsCents holds only positive
// amounts, in the order the user arranged them.
type Request struct {
	Token          string
	AmountsCents   []int64
	IdempotencyKey string
}

// Splitter performs the upstream split.
type Splitter interface {
	SplitVoucher(ctx context.Context, req Request) ([]models.VoucherRecord, error)
}

// VoucherValidator looks a voucher up by PIN.
type VoucherValidator interface {
	ValidateVoucher(ctx context.Context, pin string) (*models.Voucher, error)
}

type Result struct {
	IdempotencyKey string                 `json:"idempotencyKey"`
	Vouchers       []models.VoucherRecord `json:"vouchers"`
}

type Executor struct {
	splitter Splitter
	timeout  time.Duration
	newKey   func() string
}

// NewExecutor returns an executor that gives every call at most timeout.
// A zero timeout leaves the caller's context in charge.
func NewExecutor(splitter Splitter, timeout time.Duration) *Executor {
	return &Executor{
		splitter: splitter,
		timeout:  timeout,
		newKey:   uuid.NewString,
	}
}

// Execute validates the allocation and performs the split exactly once with a
// fresh idempotency key. It never retries.
func (e *Executor) Execute(ctx context.Context, token string, alloc allocation.Allocation) (*Result, error) {
	return e.ExecuteWithKey(ctx, token, alloc, "")
}

// ExecuteWithKey is Execute with a caller-chosen idempotency key, used when a
// client resubmits a request it already tagged.
func (e *Executor) ExecuteWithKey(ctx context.Context, token string, alloc allocation.Allocation, key string) (*Result, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errs.Markf(errs.ErrValidation, "voucher token is required")
	}
	if err := allocation.Validate(alloc); err != nil {
		return nil, err
	}
	if key == "" {
		key = e.newKey()
	}

	req := Request{
		Token:          token,
		AmountsCents:   alloc.PositiveSlots(),
		IdempotencyKey: key,
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	log.Printf("[SPLIT] Submitting split of %s into %d vouchers (key %s)", audit.MaskToken(token), len(req.AmountsCents), key)

	records, err := e.splitter.SplitVoucher(callCtx, req)
	if err != nil {
		return nil, classify(callCtx, err)
	}

	if len(records) != len(req.AmountsCents) {
		return nil, errs.Markf(errs.ErrUnknownOutcome,
			"split returned %d vouchers, expected %d", len(records), len(req.AmountsCents))
	}
	var issued int64
	for _, r := range records {
		issued += r.Amount
	}
	if issued != alloc.Original() {
		log.Printf("[SPLIT] Warning: issued total %d differs from original %d (key %s)", issued, alloc.Original(), key)
	}

	return &Result{IdempotencyKey: key, Vouchers: records}, nil
}

// classify makes sure every failure carries one of the error kinds. A
// definite upstream answer wins over the context state.
func classify(ctx context.Context, err error) error {
	switch {
	case errs.Is(err, errs.ErrRejected), errs.Is(err, errs.ErrAuth), errs.Is(err, errs.ErrValidation):
		return err
	case errs.Ambiguous(err):
		return err
	case ctx.Err() == context.DeadlineExceeded:
		return errs.Mark(errs.Wrap(err, "split voucher"), errs.ErrTimeout)
	case ctx.Err() != nil:
		return errs.Mark(errs.Wrap(err, "split voucher abandoned"), errs.ErrUnknownOutcome)
	case errs.Is(err, errs.ErrNetwork):
		return err
	}
	return errs.Mark(errs.Wrap(err, "split voucher"), errs.ErrNetwork)
}

// HistoryEntries builds the log lines for a successful split: one "split"
// entry per issued voucher followed by one "split-original" entry for the
// consumed voucher.
func HistoryEntries(userID int64, original models.Voucher, records []models.VoucherRecord, at time.Time) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(records)+1)
	for i, r := range records {
		entries = append(entries, models.HistoryEntry{
			UserID:       userID,
			Type:         models.HistorySplit,
			SerialNumber: r.SerialNumber,
			Reference:    r.Reference,
			Token:        r.Token,
			AmountCents:  r.Amount,
			Status:       models.HistoryStatusSuccess,
			OccurredAt:   at,
			Details: models.Metadata{
				"label":               fmt.Sprintf("Voucher %d", i+1),
				"requestId":           r.RequestID,
				"dateTime":            r.DateTime,
				"expiryDateTime":      r.ExpiryDateTime,
				"productName":         r.ProductName,
				"productInstructions": r.ProductInstructions,
				"productHelp":         r.ProductHelp,
				"customerMessage":     r.CustomerMessage,
				"barcode":             r.Barcode,
				"originalSerial":      original.SerialNumber,
			},
		})
	}

	entries = append(entries, models.HistoryEntry{
		UserID:       userID,
		Type:         models.HistorySplitOriginal,
		SerialNumber: original.SerialNumber,
		AmountCents:  original.ValueCents,
		Status:       models.HistoryStatusConsumed,
		OccurredAt:   at,
		Details:      models.Metadata{"splitInto": len(records)},
	})
	return entries
}
