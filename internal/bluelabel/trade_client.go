package bluelabel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vouchersplit/backend/internal/config"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
)

// TradeClient calls the trade API: voucher sales and redemptions. Every
// request carries the apikey header.
type TradeClient struct {
	baseURL   string
	apiKey    string
	productID int
	http      *http.Client
}

func NewTradeClient(cfg *config.BlueLabelConfig, hc *http.Client) *TradeClient {
	return &TradeClient{
		baseURL:   strings.TrimRight(cfg.TradeBaseURL, "/"),
		apiKey:    cfg.TradeAPIKey,
		productID: cfg.ProductID,
		http:      hc,
	}
}

type saleRequest struct {
	RequestID string `json:"requestId"`
	ProductID int    `json:"productId"`
	Amount    int64  `json:"amount"`
}

// AirtimeRedemption converts a voucher into airtime on a mobile number.
type AirtimeRedemption struct {
	RequestID    string `json:"requestId"`
	MobileNumber string `json:"mobileNumber"`
	TokenNumber  string `json:"tokenNumber"`
	Amount       int64  `json:"amount"` // in cents
}

// ElectricityQuote asks the utility to confirm a meter before vending.
type ElectricityQuote struct {
	Amount       int64 // in cents
	MeterNumber  string
	MobileNumber string
	VoucherToken string
}

// ElectricityVend completes a confirmed electricity purchase.
type ElectricityVend struct {
	RequestID      string `json:"requestId"`
	ConversationID string `json:"conversationId"`
	Reference      string `json:"reference"`
}

type redemptionRequest struct {
	RequestID string `json:"requestId"`
	Token     string `json:"token"`
	Amount    int64  `json:"amount"`
}

// PurchaseVoucher buys a variable-value voucher.
func (c *TradeClient) PurchaseVoucher(ctx context.Context, requestID string, amountCents int64) (*models.VoucherRecord, error) {
	var out models.VoucherRecord
	body := saleRequest{RequestID: requestID, ProductID: c.productID, Amount: amountCents}
	if err := c.send(ctx, http.MethodPost, "/v2/trade/voucher/variable/sales", "purchase_voucher", body, nil, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errs.Markf(errs.ErrUnknownOutcome, "purchase_voucher: response has no token")
	}
	return &out, nil
}

func (c *TradeClient) RedeemAirtime(ctx context.Context, in AirtimeRedemption) (*models.RedemptionResult, error) {
	var out models.RedemptionResult
	if err := c.send(ctx, http.MethodPost, "/v2/trade/voucher/variable/vouchers/airtime/redemption", "redeem_airtime", in, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmElectricity looks up the consumer behind a meter number. Nothing
// is charged until VendElectricity.
func (c *TradeClient) ConfirmElectricity(ctx context.Context, q ElectricityQuote) (*models.ElectricityConfirmation, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(q.Amount, 10))
	params.Set("meter-number", q.MeterNumber)
	params.Set("mobile-number", q.MobileNumber)
	params.Set("voucher-token", q.VoucherToken)

	var out models.ElectricityConfirmation
	path := "/v2/trade/voucher/electricity/confirm?" + params.Encode()
	if err := c.send(ctx, http.MethodGet, path, "confirm_electricity", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.ConversationID == "" || out.Reference == "" {
		return nil, errs.Markf(errs.ErrNetwork, "confirm_electricity: incomplete response")
	}
	return &out, nil
}

func (c *TradeClient) VendElectricity(ctx context.Context, in ElectricityVend) (*models.RedemptionResult, error) {
	var out models.RedemptionResult
	if err := c.send(ctx, http.MethodPost, "/v2/trade/voucher/electricity/sales", "vend_electricity", in, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RedeemVoucher redeems part or all of a variable voucher, as used for
// wallet top-ups and Betway deposits. A partial redemption comes back with
// a replacement voucher for the remainder.
func (c *TradeClient) RedeemVoucher(ctx context.Context, requestID, token string, amountCents int64) (*models.RedemptionResult, error) {
	var out models.RedemptionResult
	body := redemptionRequest{RequestID: requestID, Token: token, Amount: amountCents}
	headers := map[string]string{"Trade-Vend-Channel": "API"}
	if err := c.send(ctx, http.MethodPost, "/v2/trade/voucher/variable/redemptions", "redeem_voucher", body, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *TradeClient) send(ctx context.Context, method, path, op string, in any, headers map[string]string, out any) error {
	var reader *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.Wrapf(err, "%s: encode request", op)
		}
		reader = bytes.NewReader(payload)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequest(method, c.baseURL+path, reader)
	} else {
		req, err = http.NewRequest(method, c.baseURL+path, nil)
	}
	if err != nil {
		return errs.Wrapf(err, "%s: build request", op)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return do(ctx, c.http, req, op, out)
}
