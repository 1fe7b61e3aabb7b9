package split

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/vouchersplit/backend/internal/models"
)

type MockSplitter struct {
	mock.Mock
}

func (m *MockSplitter) SplitVoucher(ctx context.Context, req Request) ([]models.VoucherRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VoucherRecord), args.Error(1)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) ValidateVoucher(ctx context.Context, pin string) (*models.Voucher, error) {
	args := m.Called(ctx, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}

type memoryHistory struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	err     error
}

func (h *memoryHistory) Append(_ context.Context, entries ...models.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, entries...)
	return nil
}

func records(amounts ...int64) []models.VoucherRecord {
	out := make([]models.VoucherRecord, len(amounts))
	for i, a := range amounts {
		out[i] = models.VoucherRecord{
			RequestID:    "req",
			Reference:    "REF" + string(rune('A'+i)),
			Amount:       a,
			Token:        "TOKEN" + string(rune('A'+i)),
			SerialNumber: "SN" + string(rune('A'+i)),
		}
	}
	return out
}
