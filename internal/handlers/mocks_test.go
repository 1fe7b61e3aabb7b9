package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/services"
	"github.com/vouchersplit/backend/internal/split"
	"github.com/vouchersplit/backend/internal/store"
)

type MockSplits struct {
	mock.Mock
}

func (m *MockSplits) Plan(req services.PlanRequest) (*services.PlanResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PlanResult), args.Error(1)
}

func (m *MockSplits) Submit(ctx context.Context, userID int64, pin string, amounts []int64, key string) (*split.Result, error) {
	args := m.Called(ctx, userID, pin, amounts, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*split.Result), args.Error(1)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportHistory(ctx context.Context, w io.Writer, userID int64, ids []int64) error {
	args := m.Called(ctx, w, userID, ids)
	if args.Error(0) == nil {
		io.WriteString(w, args.String(1))
	}
	return args.Error(0)
}

type MockVouchers struct {
	mock.Mock
}

func (m *MockVouchers) Validate(ctx context.Context, pin string) (*models.Voucher, error) {
	args := m.Called(ctx, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}

func (m *MockVouchers) CheckBalance(ctx context.Context, userID int64, pin string) (*services.BalanceResult, error) {
	args := m.Called(ctx, userID, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BalanceResult), args.Error(1)
}

func (m *MockVouchers) Purchase(ctx context.Context, userID int64, amount string) (*models.VoucherRecord, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoucherRecord), args.Error(1)
}

func (m *MockVouchers) Denominations() []int64 {
	return m.Called().Get(0).([]int64)
}

type MockRedeem struct {
	mock.Mock
}

func (m *MockRedeem) RedeemAirtime(ctx context.Context, userID int64, req services.AirtimeRequest) (*models.RedemptionResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionResult), args.Error(1)
}

func (m *MockRedeem) ConfirmElectricity(ctx context.Context, req services.ElectricityConfirmRequest) (*models.ElectricityConfirmation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ElectricityConfirmation), args.Error(1)
}

func (m *MockRedeem) VendElectricity(ctx context.Context, userID int64, req services.ElectricityVendRequest) (*models.RedemptionResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionResult), args.Error(1)
}

func (m *MockRedeem) RedeemBetway(ctx context.Context, userID int64, req services.VariableRedeemRequest) (*models.RedemptionResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionResult), args.Error(1)
}

func (m *MockRedeem) RedeemWallet(ctx context.Context, userID int64, req services.VariableRedeemRequest) (*services.WalletRedemption, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WalletRedemption), args.Error(1)
}

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) List(ctx context.Context, userID int64, req services.HistoryListRequest) (*store.HistoryPage, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.HistoryPage), args.Error(1)
}

func (m *MockHistory) Get(ctx context.Context, userID, id int64) (*models.HistoryEntry, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HistoryEntry), args.Error(1)
}

func (m *MockHistory) UpdateStatus(ctx context.Context, userID, id int64, req services.StatusUpdateRequest) (*models.HistoryEntry, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HistoryEntry), args.Error(1)
}
