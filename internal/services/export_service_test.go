package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
)

func TestExportFilename(t *testing.T) {
	day := time.Date(2025, 7, 4, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "split-vouchers-2025-07-04.csv", ExportFilename(day))
}

func TestWriteVouchersCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteVouchersCSV(&buf, []models.VoucherRecord{
		{Token: "1111222233334444", Amount: 2550, SerialNumber: "SN1", Reference: "R1", ExpiryDateTime: "2026-01-01", ProductInstructions: "Dial *120#, then send"},
		{Token: "5555666677778888", Amount: 7450, SerialNumber: "SN2"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Token,Amount,Serial Number,Reference,Expiry,Instructions", lines[0])
	assert.Equal(t, `1111222233334444,R25.50,SN1,R1,2026-01-01,"Dial *120#, then send"`, lines[1])
	assert.Equal(t, "5555666677778888,R74.50,SN2,,,", lines[2])
}

func TestRecordsFromHistory(t *testing.T) {
	records := RecordsFromHistory([]models.HistoryEntry{
		{Type: models.HistorySplit, Token: "1111", AmountCents: 100, SerialNumber: "A", Details: models.Metadata{"expiryDateTime": "2026-02-02"}},
		{Type: models.HistorySplitOriginal, SerialNumber: "O", AmountCents: 100},
		{Type: models.HistoryRedeemAirtime, Token: "****1234"},
		{Type: models.HistoryPurchase, Token: "2222", AmountCents: 500, SerialNumber: "B"},
	})
	require.Len(t, records, 2)
	assert.Equal(t, "2026-02-02", records[0].ExpiryDateTime)
	assert.Equal(t, "B", records[1].SerialNumber)
}

func TestExportService_ExportHistory(t *testing.T) {
	t.Run("writes selected vouchers", func(t *testing.T) {
		repo := new(MockHistoryRepo)
		repo.On("GetMany", mock.Anything, int64(5), []int64{1, 2}).Return([]models.HistoryEntry{
			{Type: models.HistorySplit, Token: "1111", AmountCents: 100, SerialNumber: "A"},
		}, nil)

		var buf bytes.Buffer
		require.NoError(t, NewExportService(repo).ExportHistory(context.Background(), &buf, 5, []int64{1, 2}))
		assert.Contains(t, buf.String(), "1111,R1.00,A")
	})

	t.Run("nothing exportable", func(t *testing.T) {
		repo := new(MockHistoryRepo)
		repo.On("GetMany", mock.Anything, mock.Anything, mock.Anything).Return([]models.HistoryEntry{}, nil)

		err := NewExportService(repo).ExportHistory(context.Background(), &bytes.Buffer{}, 5, []int64{9})
		assert.True(t, errs.Is(err, errs.ErrNotFound))
	})

	t.Run("no ids", func(t *testing.T) {
		err := NewExportService(new(MockHistoryRepo)).ExportHistory(context.Background(), &bytes.Buffer{}, 5, nil)
		assert.True(t, errs.Is(err, errs.ErrValidation))
	})
}

func TestTokenQR(t *testing.T) {
	img, err := TokenQR("1111222233334444", 0)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(img)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), raw[:4])

	_, err = TokenQR("", 128)
	assert.True(t, errs.Is(err, errs.ErrValidation))
}
