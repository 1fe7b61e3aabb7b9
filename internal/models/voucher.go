package models

// Voucher status values reported by the split service.
const (
	VoucherStatusActive   = "Active"
	VoucherStatusRedeemed = "Redeemed"
	VoucherStatusUnknown  = "Unknown"
)

// Voucher is the subset of an issued voucher the allocator needs.
type Voucher struct {
	SerialNumber string `json:"serialNumber" example:"9876543210"`
	ValueCents   int64  `json:"valueCents" example:"10000"` // in cents
	Status       string `json:"status" example:"Active"`
	CanBeSplit   bool   `json:"canBeSplit"`
}

// VoucherRecord is a voucher as returned by a vend or split call.
type VoucherRecord struct {
	RequestID           string `json:"requestId"`
	Reference           string `json:"reference"`
	Amount              int64  `json:"amount"` // in cents
	DateTime            string `json:"dateTime"`
	Token               string `json:"token"`
	SerialNumber        string `json:"serialNumber"`
	ExpiryDateTime      string `json:"expiryDateTime"`
	Barcode             string `json:"barcode,omitempty"`
	ProductName         string `json:"productName"`
	ProductInstructions string `json:"productInstructions"`
	ProductHelp         string `json:"productHelp"`
	CustomerMessage     string `json:"customerMessage"`
}

// Balance is the result of a voucher balance check.
type Balance struct {
	SerialNumber   string `json:"serialNumber"`
	Status         string `json:"status"`
	AmountCents    int64  `json:"amountCents"`
	ExpiryDateTime string `json:"expiryDateTime,omitempty"`
	CanBeSplit     bool   `json:"canBeSplit"`
}

// RedemptionResult is what the trade API returns for airtime, electricity
// and variable (wallet or Betway) redemptions.
type RedemptionResult struct {
	RequestID          string         `json:"requestId"`
	Reference          string         `json:"reference"`
	Amount             int64          `json:"amount"` // in cents
	DateTime           string         `json:"dateTime,omitempty"`
	CustomerMessage    string         `json:"customerMessage,omitempty"`
	ReplacementVoucher *VoucherRecord `json:"replacementVoucher,omitempty"`
}

// ElectricityConfirmation is the quote returned before an electricity vend.
type ElectricityConfirmation struct {
	RequestID       string               `json:"requestId,omitempty"`
	ConversationID  string               `json:"conversationId"`
	Reference       string               `json:"reference"`
	Utility         string               `json:"utility,omitempty"`
	Consumer        *ElectricityConsumer `json:"consumer,omitempty"`
	ConsumerMessage []string             `json:"consumerMessage,omitempty"`
	Amount          int64                `json:"amount,omitempty"` // in cents
}

type ElectricityConsumer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Denominations offered on the purchase screen, in cents.
var Denominations = []int64{1000, 2000, 5000, 10000, 20000, 50000, 100000, 200000}
