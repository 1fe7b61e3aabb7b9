package services

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/config"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/split"
)

func testVoucherConfig() *config.VoucherConfig {
	return &config.VoucherConfig{
		MinPurchaseCents: 200,
		MaxPurchaseCents: 200000,
		MaxSplitCount:    10,
		SplitTimeout:     time.Second,
		PendingSplitTTL:  time.Minute,
		UnknownSplitTTL:  time.Hour,
		HistoryPageSize:  20,
	}
}

func testAudit() (*audit.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return audit.NewLoggerTo(log.New(&buf, "", 0)), &buf
}

type voucherFixture struct {
	service  *VoucherService
	vouchers *MockVoucherAPI
	trade    *MockTradeAPI
	history  *MockHistoryRepo
	guard    *split.MemoryGuard
	audit    *bytes.Buffer
}

func newVoucherFixture() *voucherFixture {
	f := &voucherFixture{
		vouchers: new(MockVoucherAPI),
		trade:    new(MockTradeAPI),
		history:  new(MockHistoryRepo),
		guard:    split.NewMemoryGuard(time.Minute, time.Hour),
	}
	auditLogger, buf := testAudit()
	f.audit = buf
	f.service = NewVoucherService(f.vouchers, f.trade, f.history, f.guard, testVoucherConfig(), auditLogger)
	f.service.newID = func() string { return "req-1" }
	f.service.now = func() time.Time { return fixedTime }
	return f
}

func TestVoucherService_Validate(t *testing.T) {
	f := newVoucherFixture()
	want := &models.Voucher{SerialNumber: "SN1", ValueCents: 10000, Status: models.VoucherStatusActive, CanBeSplit: true}
	f.vouchers.On("ValidateVoucher", mock.Anything, "1234567890123456").Return(want, nil)

	got, err := f.service.Validate(context.Background(), "1234567890123456")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	f.vouchers.On("ValidateVoucher", mock.Anything, "0000000000000000").Return(nil, errs.Rejected(404, "", "Voucher not found"))
	_, err = f.service.Validate(context.Background(), "0000000000000000")
	assert.True(t, errs.Is(err, errs.ErrRejected))
}

func TestVoucherService_CheckBalance(t *testing.T) {
	t.Run("patches history and releases an unknown guard", func(t *testing.T) {
		f := newVoucherFixture()
		ctx := context.Background()
		require.NoError(t, f.guard.MarkUnknown(ctx, "SN1"))

		f.vouchers.On("CheckBalance", mock.Anything, "1234567890123456").
			Return(&models.Balance{SerialNumber: "SN1", Status: models.VoucherStatusRedeemed, AmountCents: 0}, nil)
		f.history.On("PatchStatusBySerial", mock.Anything, int64(7), "SN1", models.VoucherStatusRedeemed).Return(int64(2), nil)

		res, err := f.service.CheckBalance(ctx, 7, "1234567890123456")
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.HistoryUpdated)
		assert.Equal(t, models.VoucherStatusRedeemed, res.Status)
		assert.NoError(t, f.guard.Acquire(ctx, "SN1"))
	})

	t.Run("history failure does not fail the check", func(t *testing.T) {
		f := newVoucherFixture()
		f.vouchers.On("CheckBalance", mock.Anything, mock.Anything).
			Return(&models.Balance{SerialNumber: "SN1", Status: models.VoucherStatusActive, AmountCents: 500}, nil)
		f.history.On("PatchStatusBySerial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(int64(0), errs.New("db down"))

		res, err := f.service.CheckBalance(context.Background(), 7, "1234567890123456")
		require.NoError(t, err)
		assert.Equal(t, int64(500), res.AmountCents)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newVoucherFixture()
		f.vouchers.On("CheckBalance", mock.Anything, mock.Anything).Return(nil, errs.Markf(errs.ErrNetwork, "down"))

		_, err := f.service.CheckBalance(context.Background(), 7, "1234567890123456")
		assert.True(t, errs.Is(err, errs.ErrNetwork))
		f.history.AssertNotCalled(t, "PatchStatusBySerial", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVoucherService_Purchase(t *testing.T) {
	voucher := &models.VoucherRecord{
		Reference: "REF1", Amount: 5000, Token: "1111222233334444", SerialNumber: "SN9",
		ExpiryDateTime: "2026-01-01", ProductInstructions: "Dial *120#",
	}

	t.Run("success records history", func(t *testing.T) {
		f := newVoucherFixture()
		f.trade.On("PurchaseVoucher", mock.Anything, "req-1", int64(5000)).Return(voucher, nil)
		f.history.On("Append", mock.Anything, mock.MatchedBy(func(entries []models.HistoryEntry) bool {
			return len(entries) == 1 && entries[0].Type == models.HistoryPurchase &&
				entries[0].AmountCents == 5000 && entries[0].OccurredAt.Equal(fixedTime) &&
				entries[0].Details["productInstructions"] == "Dial *120#"
		})).Return(nil)

		got, err := f.service.Purchase(context.Background(), 3, "50")
		require.NoError(t, err)
		assert.Equal(t, voucher, got)
		assert.Contains(t, f.audit.String(), `"status":"SUCCESS"`)
		f.history.AssertExpectations(t)
	})

	t.Run("history failure still returns the voucher", func(t *testing.T) {
		f := newVoucherFixture()
		f.trade.On("PurchaseVoucher", mock.Anything, "req-1", int64(5000)).Return(voucher, nil)
		f.history.On("Append", mock.Anything, mock.Anything).Return(errs.New("db down"))

		got, err := f.service.Purchase(context.Background(), 3, "50.00")
		assert.Error(t, err)
		assert.Equal(t, voucher, got)
	})

	tests := []struct {
		name   string
		amount string
		kind   error
	}{
		{"below minimum", "1.99", errs.ErrValidation},
		{"above maximum", "2000.01", errs.ErrValidation},
		{"not a number", "abc", errs.ErrParse},
		{"negative", "-5", errs.ErrParse},
		{"blank", "", errs.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVoucherFixture()
			_, err := f.service.Purchase(context.Background(), 3, tt.amount)
			assert.True(t, errs.Is(err, tt.kind), "got %v", err)
			f.trade.AssertNotCalled(t, "PurchaseVoucher", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("upstream rejection", func(t *testing.T) {
		f := newVoucherFixture()
		f.trade.On("PurchaseVoucher", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errs.Rejected(422, "E12", "Product unavailable"))

		_, err := f.service.Purchase(context.Background(), 3, "20")
		assert.Equal(t, "Product unavailable", errs.Reason(err))
		assert.Contains(t, f.audit.String(), `"status":"FAILED"`)
	})
}

func TestVoucherService_Denominations(t *testing.T) {
	f := newVoucherFixture()
	f.service.cfg.MaxPurchaseCents = 10000
	assert.Equal(t, []int64{1000, 2000, 5000, 10000}, f.service.Denominations())
}
