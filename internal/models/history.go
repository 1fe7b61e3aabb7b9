package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// History entry types.
const (
	HistoryPurchase          = "purchase"
	HistorySplit             = "split"
	HistorySplitOriginal     = "split-original"
	HistoryRedeemAirtime     = "redeem-airtime"
	HistoryRedeemElectricity = "redeem-electricity"
	HistoryRedeemBetway      = "redeem-betway"
	HistoryRedeemWallet      = "redeem-wallet"
)

// HistoryTypes lists every valid entry type.
var HistoryTypes = []string{
	HistoryPurchase, HistorySplit, HistorySplitOriginal,
	HistoryRedeemAirtime, HistoryRedeemElectricity, HistoryRedeemBetway, HistoryRedeemWallet,
}

// History entry statuses. Upstream voucher statuses ("Active", "Redeemed")
// are also stored verbatim after a balance check.
const (
	HistoryStatusSuccess  = "success"
	HistoryStatusConsumed = "consumed"
)

type HistoryEntry struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"userId" db:"user_id"`
	Type         string    `json:"type" db:"type"`
	SerialNumber string    `json:"serialNumber" db:"serial_number"`
	Reference    string    `json:"reference" db:"reference"`
	Token        string    `json:"token,omitempty" db:"token"`
	AmountCents  int64     `json:"amountCents" db:"amount_cents"`
	Status       string    `json:"status" db:"status"`
	Details      Metadata  `json:"details,omitempty" db:"details"`
	OccurredAt   time.Time `json:"occurredAt" db:"occurred_at"`
	Version      int       `json:"version" db:"version"` // for optimistic locking
}

// Metadata type for JSON columns
type Metadata map[string]any

// Value implements driver.Valuer for Metadata
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for Metadata. Postgres hands back []byte,
// sqlite a string.
func (m *Metadata) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("metadata: unsupported column type")
	}
}
