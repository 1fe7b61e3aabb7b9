package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/bluelabel"
	"github.com/vouchersplit/backend/internal/config"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/money"
	"github.com/vouchersplit/backend/internal/split"
	"github.com/vouchersplit/backend/internal/store"
)

// VoucherAPI is the split service seen from the application.
type VoucherAPI interface {
	ValidateVoucher(ctx context.Context, pin string) (*models.Voucher, error)
	CheckBalance(ctx context.Context, pin string) (*models.Balance, error)
}

// TradeAPI is the trade API seen from the application.
type TradeAPI interface {
	PurchaseVoucher(ctx context.Context, requestID string, amountCents int64) (*models.VoucherRecord, error)
	RedeemAirtime(ctx context.Context, in bluelabel.AirtimeRedemption) (*models.RedemptionResult, error)
	ConfirmElectricity(ctx context.Context, q bluelabel.ElectricityQuote) (*models.ElectricityConfirmation, error)
	VendElectricity(ctx context.Context, in bluelabel.ElectricityVend) (*models.RedemptionResult, error)
	RedeemVoucher(ctx context.Context, requestID, token string, amountCents int64) (*models.RedemptionResult, error)
}

// HistoryRepository is the history persistence the services need.
type HistoryRepository interface {
	Append(ctx context.Context, entries ...models.HistoryEntry) error
	List(ctx context.Context, userID int64, q store.HistoryQuery) (*store.HistoryPage, error)
	Get(ctx context.Context, userID, id int64) (*models.HistoryEntry, error)
	GetMany(ctx context.Context, userID int64, ids []int64) ([]models.HistoryEntry, error)
	UpdateStatus(ctx context.Context, userID, id int64, status string, version int) error
	PatchStatusBySerial(ctx context.Context, userID int64, serial, status string) (int64, error)
}

// BalanceResult is a balance check plus how many history entries it
// updated.
type BalanceResult struct {
	models.Balance
	HistoryUpdated int64 `json:"historyUpdated"`
}

type VoucherService struct {
	vouchers VoucherAPI
	trade    TradeAPI
	history  HistoryRepository
	guard    split.Guard
	cfg      *config.VoucherConfig
	audit    *audit.Logger
	newID    func() string
	now      func() time.Time
}

func NewVoucherService(vouchers VoucherAPI, trade TradeAPI, history HistoryRepository, guard split.Guard, cfg *config.VoucherConfig, auditLogger *audit.Logger) *VoucherService {
	return &VoucherService{
		vouchers: vouchers,
		trade:    trade,
		history:  history,
		guard:    guard,
		cfg:      cfg,
		audit:    auditLogger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Validate looks a voucher up without changing anything.
func (s *VoucherService) Validate(ctx context.Context, pin string) (*models.Voucher, error) {
	v, err := s.vouchers.ValidateVoucher(ctx, pin)
	if err != nil {
		log.Printf("[VOUCHER] Validation of %s failed: %v", audit.MaskToken(pin), err)
		return nil, err
	}
	return v, nil
}

// CheckBalance asks upstream for the voucher's current state, copies the
// status onto the user's history entries for that serial and clears any
// split guard left by an earlier submission, since the caller now knows
// the real outcome.
func (s *VoucherService) CheckBalance(ctx context.Context, userID int64, pin string) (*BalanceResult, error) {
	b, err := s.vouchers.CheckBalance(ctx, pin)
	if err != nil {
		log.Printf("[VOUCHER] Balance check of %s failed: %v", audit.MaskToken(pin), err)
		return nil, err
	}

	result := &BalanceResult{Balance: *b}
	if b.Status != "" {
		n, err := s.history.PatchStatusBySerial(ctx, userID, b.SerialNumber, b.Status)
		if err != nil {
			log.Printf("[VOUCHER] Failed to update history for %s: %v", b.SerialNumber, err)
		}
		result.HistoryUpdated = n
	}

	if err := s.guard.Release(ctx, b.SerialNumber); err != nil {
		log.Printf("[VOUCHER] Failed to clear split guard for %s: %v", b.SerialNumber, err)
	}

	log.Printf("[VOUCHER] Balance of %s: %s, status %s", b.SerialNumber, money.FormatRand(b.AmountCents), b.Status)
	return result, nil
}

// Purchase buys a voucher for the amount typed by the user. The voucher is
// returned even when recording it in history fails.
func (s *VoucherService) Purchase(ctx context.Context, userID int64, amount string) (*models.VoucherRecord, error) {
	cents, err := money.ParseToCents(amount)
	if err != nil {
		return nil, err
	}
	if cents < s.cfg.MinPurchaseCents || cents > s.cfg.MaxPurchaseCents {
		return nil, errs.Markf(errs.ErrValidation, "amount must be between %s and %s",
			money.FormatRand(s.cfg.MinPurchaseCents), money.FormatRand(s.cfg.MaxPurchaseCents))
	}

	requestID := s.newID()
	uid := strconv.FormatInt(userID, 10)

	v, err := s.trade.PurchaseVoucher(ctx, requestID, cents)
	if err != nil {
		s.audit.LogPurchase(requestID, uid, "", cents, "FAILED")
		return nil, err
	}
	s.audit.LogPurchase(requestID, uid, v.SerialNumber, v.Amount, "SUCCESS")

	entry := models.HistoryEntry{
		UserID:       userID,
		Type:         models.HistoryPurchase,
		SerialNumber: v.SerialNumber,
		Reference:    v.Reference,
		Token:        v.Token,
		AmountCents:  v.Amount,
		Status:       models.HistoryStatusSuccess,
		OccurredAt:   s.now(),
		Details: models.Metadata{
			"requestId":           requestID,
			"expiryDateTime":      v.ExpiryDateTime,
			"productName":         v.ProductName,
			"productInstructions": v.ProductInstructions,
		},
	}
	if err := s.history.Append(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("[VOUCHER] Purchase %s succeeded but history write failed: %v", requestID, err)
		return v, errs.Wrap(err, "record purchase history")
	}
	return v, nil
}

// Denominations lists the quick-pick purchase amounts within the configured
// bounds.
func (s *VoucherService) Denominations() []int64 {
	out := make([]int64, 0, len(models.Denominations))
	for _, d := range models.Denominations {
		if d >= s.cfg.MinPurchaseCents && d <= s.cfg.MaxPurchaseCents {
			out = append(out, d)
		}
	}
	return out
}
