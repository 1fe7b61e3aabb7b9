package services

import (
	"context"
	"log"

	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/money"
)

// Notifier tells a user about a replacement voucher issued after a partial
// redemption.
type Notifier interface {
	NotifyReplacement(ctx context.Context, mobile string, v models.VoucherRecord) error
}

// LogNotifier stands in for an SMS gateway. It only logs, with the token
// masked.
type LogNotifier struct{}

func (LogNotifier) NotifyReplacement(_ context.Context, mobile string, v models.VoucherRecord) error {
	log.Printf("[SMS] To %s: replacement voucher %s for %s, serial %s",
		audit.MaskToken(mobile), audit.MaskToken(v.Token), money.FormatRand(v.Amount), v.SerialNumber)
	return nil
}
