package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/money"
)

var exportHeader = []string{"Token", "Amount", "Serial Number", "Reference", "Expiry", "Instructions"}

// ExportFilename names a download made on day.
func ExportFilename(day time.Time) string {
	return fmt.Sprintf("split-vouchers-%s.csv", day.Format("2006-01-02"))
}

// WriteVouchersCSV writes one row per voucher under a fixed header.
func WriteVouchersCSV(w io.Writer, vouchers []models.VoucherRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, v := range vouchers {
		amount := v.Amount
		if amount < 0 {
			amount = 0
		}
		row := []string{v.Token, money.FormatRand(amount), v.SerialNumber, v.Reference, v.ExpiryDateTime, v.ProductInstructions}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RecordsFromHistory rebuilds exportable vouchers from split and purchase
// history entries. Other entry types carry no usable token and are skipped.
func RecordsFromHistory(entries []models.HistoryEntry) []models.VoucherRecord {
	out := make([]models.VoucherRecord, 0, len(entries))
	for _, e := range entries {
		if e.Type != models.HistorySplit && e.Type != models.HistoryPurchase {
			continue
		}
		out = append(out, models.VoucherRecord{
			Token:               e.Token,
			Amount:              e.AmountCents,
			SerialNumber:        e.SerialNumber,
			Reference:           e.Reference,
			ExpiryDateTime:      detail(e.Details, "expiryDateTime"),
			ProductInstructions: detail(e.Details, "productInstructions"),
		})
	}
	return out
}

func detail(m models.Metadata, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

type ExportService struct {
	history HistoryRepository
}

func NewExportService(history HistoryRepository) *ExportService {
	return &ExportService{history: history}
}

// ExportHistory writes the vouchers behind the given history ids as CSV.
func (s *ExportService) ExportHistory(ctx context.Context, w io.Writer, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return errs.Markf(errs.ErrValidation, "no vouchers selected")
	}
	entries, err := s.history.GetMany(ctx, userID, ids)
	if err != nil {
		return err
	}
	records := RecordsFromHistory(entries)
	if len(records) == 0 {
		return errs.Mark(errs.New("no exportable vouchers"), errs.ErrNotFound)
	}
	return WriteVouchersCSV(w, records)
}
