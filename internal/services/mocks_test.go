package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vouchersplit/backend/internal/bluelabel"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/split"
	"github.com/vouchersplit/backend/internal/store"
)

var fixedTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type MockVoucherAPI struct {
	mock.Mock
}

func (m *MockVoucherAPI) ValidateVoucher(ctx context.Context, pin string) (*models.Voucher, error) {
	args := m.Called(ctx, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}

func (m *MockVoucherAPI) CheckBalance(ctx context.Context, pin string) (*models.Balance, error) {
	args := m.Called(ctx, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

type MockSplitter struct {
	mock.Mock
}

func (m *MockSplitter) SplitVoucher(ctx context.Context, req split.Request) ([]models.VoucherRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VoucherRecord), args.Error(1)
}

type MockTradeAPI struct {
	mock.Mock
}

func (m *MockTradeAPI) PurchaseVoucher(ctx context.Context, requestID string, amountCents int64) (*models.VoucherRecord, error) {
	args := m.Called(ctx, requestID, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoucherRecord), args.Error(1)
}

func (m *MockTradeAPI) RedeemAirtime(ctx context.Context, in bluelabel.AirtimeRedemption) (*models.RedemptionResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionResult), args.Error(1)
}

func (m *MockTradeAPI) ConfirmElectricity(ctx context.Context, q bluelabel.ElectricityQuote) (*models.ElectricityConfirmation, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ElectricityConfirmation), args.Error(1)
}

func (m *MockTradeAPI) VendElectricity(ctx context.Context, in bluelabel.ElectricityVend) (*models.RedemptionResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionResult), args.Error(1)
}

func (m *MockTradeAPI) RedeemVoucher(ctx context.Context, requestID, token string, amountCents int64) (*models.RedemptionResult, error) {
	args := m.Called(ctx, requestID, token, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionResult), args.Error(1)
}

type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Append(ctx context.Context, entries ...models.HistoryEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockHistoryRepo) List(ctx context.Context, userID int64, q store.HistoryQuery) (*store.HistoryPage, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.HistoryPage), args.Error(1)
}

func (m *MockHistoryRepo) Get(ctx context.Context, userID, id int64) (*models.HistoryEntry, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepo) GetMany(ctx context.Context, userID int64, ids []int64) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, userID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepo) UpdateStatus(ctx context.Context, userID, id int64, status string, version int) error {
	args := m.Called(ctx, userID, id, status, version)
	return args.Error(0)
}

func (m *MockHistoryRepo) PatchStatusBySerial(ctx context.Context, userID int64, serial, status string) (int64, error) {
	args := m.Called(ctx, userID, serial, status)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, phone, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, phone, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) CreditWallet(ctx context.Context, userID, amountCents int64, version int) error {
	args := m.Called(ctx, userID, amountCents, version)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyReplacement(ctx context.Context, mobile string, v models.VoucherRecord) error {
	args := m.Called(ctx, mobile, v)
	return args.Error(0)
}
