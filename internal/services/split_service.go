package services

import (
	"context"
	"log"
	"strconv"

	"github.com/vouchersplit/backend/internal/allocation"
	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/config"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/metrics"
	"github.com/vouchersplit/backend/internal/money"
	"github.com/vouchersplit/backend/internal/split"
)

// Plan actions.
const (
	PlanAdd    = "add"
	PlanRemove = "remove"
	PlanSet    = "set"
	PlanEdit   = "edit"
	PlanFill   = "fill"
	PlanEven   = "even"
)

// PlanRequest applies one edit to an allocation the client holds. Value is
// the amount as typed ("12.50"); blank clears the slot.
// @Description Allocation edit request
type PlanRequest struct {
	OriginalCents int64   `json:"originalCents" validate:"required,gt=0,lte=9007199254740992" example:"10000"`
	Slots         []int64 `json:"slots" validate:"dive,gte=0,lte=9007199254740992"`
	Action        string  `json:"action" validate:"required,oneof=add remove set edit fill even" example:"edit"`
	Index         int     `json:"index" validate:"gte=0"`
	Value         string  `json:"value" example:"25.00"`
	Count         int     `json:"count" example:"4"`
}

// PlanResult is the allocation after the edit.
// @Description Allocation state
type PlanResult struct {
	OriginalCents    int64   `json:"originalCents"`
	Slots            []int64 `json:"slots"`
	TotalAllocated   int64   `json:"totalAllocated"`
	Remaining        int64   `json:"remaining"`
	RemainingText    string  `json:"remainingText" example:"R10.00"`
	Submittable      bool    `json:"submittable"`
	CanFillRemaining bool    `json:"canFillRemaining"`
	Problem          string  `json:"problem,omitempty" example:"R10.00 still unallocated"`
}

type SplitService struct {
	vouchers split.VoucherValidator
	exec     *split.Executor
	guard    split.Guard
	history  split.HistoryAppender
	maxSlots int
	audit    *audit.Logger
}

func NewSplitService(vouchers split.VoucherValidator, exec *split.Executor, guard split.Guard, history split.HistoryAppender, cfg *config.VoucherConfig, auditLogger *audit.Logger) *SplitService {
	maxSlots := cfg.MaxSplitCount
	if maxSlots <= 0 || maxSlots > allocation.MaxEvenSplit {
		maxSlots = allocation.MaxEvenSplit
	}
	return &SplitService{
		vouchers: vouchers,
		exec:     exec,
		guard:    guard,
		history:  history,
		maxSlots: maxSlots,
		audit:    auditLogger,
	}
}

// Plan applies req to the allocation it describes. It holds no state.
func (s *SplitService) Plan(req PlanRequest) (*PlanResult, error) {
	if len(req.Slots) > s.maxSlots {
		return nil, errs.Markf(errs.ErrValidation, "at most %d vouchers per split", s.maxSlots)
	}
	a, err := allocation.FromSlots(req.OriginalCents, req.Slots)
	if err != nil {
		return nil, err
	}

	inRange := func() error {
		if req.Index >= a.Len() {
			return errs.Markf(errs.ErrValidation, "voucher %d does not exist", req.Index+1)
		}
		return nil
	}

	switch req.Action {
	case PlanAdd:
		if a.Len() >= s.maxSlots {
			return nil, errs.Markf(errs.ErrValidation, "at most %d vouchers per split", s.maxSlots)
		}
		a = a.AddSlot()
	case PlanRemove:
		// out of range is a no-op
		a = a.RemoveSlot(req.Index)
	case PlanSet, PlanEdit:
		if err := inRange(); err != nil {
			return nil, err
		}
		cents, err := money.ParseToCents(req.Value)
		if err != nil {
			return nil, err
		}
		if req.Action == PlanSet {
			a = a.SetSlot(req.Index, cents)
		} else {
			a = allocation.EditSlot(a, req.Index, cents)
		}
	case PlanFill:
		a = allocation.FillRemaining(a)
	case PlanEven:
		if req.Count > s.maxSlots {
			return nil, errs.Markf(errs.ErrValidation, "at most %d vouchers per split", s.maxSlots)
		}
		if a, err = allocation.EvenSplit(a, req.Count); err != nil {
			return nil, err
		}
	default:
		return nil, errs.Markf(errs.ErrValidation, "unknown action %q", req.Action)
	}

	return planResult(a), nil
}

func planResult(a allocation.Allocation) *PlanResult {
	res := &PlanResult{
		OriginalCents:    a.Original(),
		Slots:            a.Slots(),
		TotalAllocated:   a.TotalAllocated(),
		Remaining:        a.Remaining(),
		RemainingText:    money.FormatSigned(a.Remaining()),
		CanFillRemaining: allocation.CanFillRemaining(a),
	}
	if err := allocation.Validate(a); err != nil {
		res.Problem = err.Error()
	} else {
		res.Submittable = true
	}
	return res
}

// Submit validates the voucher behind pin, checks the allocation against
// its value and performs the split once. key, when set, is reused as the
// idempotency key. A result with a non-nil error means the vouchers were
// issued but history could not be written.
func (s *SplitService) Submit(ctx context.Context, userID int64, pin string, amounts []int64, key string) (*split.Result, error) {
	uid := strconv.FormatInt(userID, 10)

	session := split.NewSession(s.exec, s.history, s.guard, userID)
	session.OnTransition = func(from, to split.State) {
		metrics.SessionTransitions.WithLabelValues(from.String(), to.String()).Inc()
	}

	result, err := s.submit(ctx, session, pin, amounts, key)
	metrics.SplitSubmissions.WithLabelValues(outcome(result, err)).Inc()

	serial := ""
	if v := session.Voucher(); v != nil {
		serial = v.SerialNumber
	}
	requestID := key
	if result != nil {
		requestID = result.IdempotencyKey
	}

	if result == nil {
		s.audit.LogSplit(requestID, uid, serial, amounts, "FAILED")
		if err != nil && !errs.Is(err, errs.ErrValidation) {
			s.audit.LogError(requestID, uid, "split", err)
		}
		return nil, err
	}

	metrics.SplitVouchersIssued.Add(float64(len(result.Vouchers)))
	s.audit.LogSplit(requestID, uid, serial, session.Allocation().PositiveSlots(), "SUCCESS")
	return result, err
}

func (s *SplitService) submit(ctx context.Context, session *split.Session, pin string, amounts []int64, key string) (*split.Result, error) {
	if len(amounts) > s.maxSlots {
		return nil, errs.Markf(errs.ErrValidation, "at most %d vouchers per split", s.maxSlots)
	}

	if _, err := session.Validate(ctx, s.vouchers, pin); err != nil {
		return nil, err
	}

	err := session.Edit(func(a allocation.Allocation) (allocation.Allocation, error) {
		return allocation.FromSlots(a.Original(), amounts)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SPLIT] Submitting %d amounts for %s", len(amounts), audit.MaskToken(pin))
	return session.SubmitWithKey(ctx, key)
}

// outcome labels a submission for metrics.
func outcome(result *split.Result, err error) string {
	switch {
	case result != nil:
		return "success"
	case errs.Is(err, errs.ErrRejected):
		return "rejected"
	case errs.Is(err, errs.ErrTimeout):
		return "timeout"
	case errs.Is(err, errs.ErrUnknownOutcome):
		return "unknown"
	case errs.Is(err, errs.ErrAuth):
		return "auth"
	case errs.Is(err, errs.ErrNetwork):
		return "network"
	case errs.Is(err, errs.ErrValidation), errs.Is(err, errs.ErrParse):
		return "invalid"
	case errs.Is(err, errs.ErrSubmissionActive), errs.Is(err, errs.ErrStatusUnknown):
		return "pending"
	}
	return "error"
}
