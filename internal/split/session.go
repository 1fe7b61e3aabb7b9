package split

import (
	"context"
	"log"
	"time"

	"github.com/vouchersplit/backend/internal/allocation"
	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
)

type State int

const (
	Idle State = iota
	Validated
	Allocating
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validated:
		return "validated"
	case Allocating:
		return "allocating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var transitions = map[State][]State{
	Idle:       {Validated},
	Validated:  {Allocating, Idle},
	Allocating: {Submitting, Idle},
	Submitting: {Succeeded, Failed},
	Succeeded:  {Idle},
	Failed:     {Allocating, Idle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// HistoryAppender receives the entries of a successful split.
type HistoryAppender interface {
	Append(ctx context.Context, entries ...models.HistoryEntry) error
}

// Session tracks one user's split from voucher validation to result. It is
// not safe for concurrent use; each request or CLI run owns its own.
type Session struct {
	state   State
	userID  int64
	token   string
	voucher *models.Voucher
	alloc   allocation.Allocation
	result  *Result
	lastErr error

	exec    *Executor
	history HistoryAppender
	guard   Guard
	now     func() time.Time

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)
}

func NewSession(exec *Executor, history HistoryAppender, guard Guard, userID int64) *Session {
	return &Session{
		exec:    exec,
		history: history,
		guard:   guard,
		userID:  userID,
		now:     time.Now,
	}
}

func (s *Session) State() State                      { return s.state }
func (s *Session) Voucher() *models.Voucher          { return s.voucher }
func (s *Session) Allocation() allocation.Allocation { return s.alloc }
func (s *Session) Result() *Result                   { return s.result }
func (s *Session) LastError() error                  { return s.lastErr }

func (s *Session) moveTo(to State) {
	if !canTransition(s.state, to) {
		panic("split: invalid session transition " + s.state.String() + " -> " + to.String())
	}
	from := s.state
	s.state = to
	if s.OnTransition != nil {
		s.OnTransition(from, to)
	}
}

// Validate looks up the voucher and seeds an empty allocation with its value.
func (s *Session) Validate(ctx context.Context, v VoucherValidator, pin string) (*models.Voucher, error) {
	if s.state != Idle {
		return nil, errs.Markf(errs.ErrValidation, "session already %s, start over first", s.state)
	}

	voucher, err := v.ValidateVoucher(ctx, pin)
	if err != nil {
		return nil, err
	}
	if voucher.Status != "" && voucher.Status != models.VoucherStatusActive {
		return voucher, errs.Markf(errs.ErrValidation, "voucher is %s", voucher.Status)
	}
	if !voucher.CanBeSplit {
		return voucher, errs.Markf(errs.ErrValidation, "voucher cannot be split")
	}
	alloc, err := allocation.New(voucher.ValueCents)
	if err != nil {
		return voucher, err
	}

	s.token = pin
	s.voucher = voucher
	s.alloc = alloc
	s.moveTo(Validated)
	return voucher, nil
}

// Edit applies fn to the current allocation. A failed session goes back to
// allocating on the first edit.
func (s *Session) Edit(fn func(allocation.Allocation) (allocation.Allocation, error)) error {
	switch s.state {
	case Validated, Allocating:
	case Failed:
		s.moveTo(Allocating)
	default:
		return errs.Markf(errs.ErrValidation, "cannot edit allocation while %s", s.state)
	}

	next, err := fn(s.alloc)
	if err != nil {
		return err
	}
	s.alloc = next
	if s.state == Validated {
		s.moveTo(Allocating)
	}
	return nil
}

// Submit performs the split. On failure the allocation is kept and the
// session is back in Allocating with LastError set. History is only written
// after a successful split.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	return s.SubmitWithKey(ctx, "")
}

func (s *Session) SubmitWithKey(ctx context.Context, key string) (*Result, error) {
	if s.state == Failed {
		s.moveTo(Allocating)
	}
	if s.state != Allocating {
		return nil, errs.Markf(errs.ErrValidation, "nothing to submit while %s", s.state)
	}
	if err := allocation.Validate(s.alloc); err != nil {
		return nil, err
	}

	serial := s.voucher.SerialNumber
	if err := s.guard.Acquire(ctx, serial); err != nil {
		return nil, err
	}

	s.moveTo(Submitting)
	result, err := s.exec.ExecuteWithKey(ctx, s.token, s.alloc, key)
	if err != nil {
		s.fail(ctx, serial, err)
		return nil, err
	}

	if err := s.guard.Release(context.WithoutCancel(ctx), serial); err != nil {
		log.Printf("[SPLIT] Failed to release guard for %s: %v", serial, err)
	}

	s.result = result
	s.lastErr = nil
	s.moveTo(Succeeded)

	entries := HistoryEntries(s.userID, *s.voucher, result.Vouchers, s.now())
	if err := s.history.Append(context.WithoutCancel(ctx), entries...); err != nil {
		log.Printf("[SPLIT] Split %s succeeded but history write failed: %v", result.IdempotencyKey, err)
		return result, errs.Wrap(err, "record split history")
	}

	log.Printf("[SPLIT] Split of %s complete: %d vouchers", audit.MaskToken(s.token), len(result.Vouchers))
	return result, nil
}

func (s *Session) fail(ctx context.Context, serial string, err error) {
	s.lastErr = err
	s.moveTo(Failed)

	guardCtx := context.WithoutCancel(ctx)
	if errs.Ambiguous(err) {
		if gerr := s.guard.MarkUnknown(guardCtx, serial); gerr != nil {
			log.Printf("[SPLIT] Failed to mark %s unknown: %v", serial, gerr)
		}
	} else if gerr := s.guard.Release(guardCtx, serial); gerr != nil {
		log.Printf("[SPLIT] Failed to release guard for %s: %v", serial, gerr)
	}

	log.Printf("[SPLIT] Split of %s failed: %v", audit.MaskToken(s.token), err)
	s.moveTo(Allocating)
}

// Reset discards everything and returns to Idle. It is a no-op while a
// submission is in flight.
func (s *Session) Reset() {
	if s.state == Idle || s.state == Submitting {
		return
	}
	s.moveTo(Idle)
	s.token = ""
	s.voucher = nil
	s.alloc = allocation.Allocation{}
	s.result = nil
	s.lastErr = nil
}
