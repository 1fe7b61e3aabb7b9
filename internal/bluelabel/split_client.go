package bluelabel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/split"
)

// SplitClient calls the voucher split service. Its JSON uses PascalCase
// field names, which stay confined to the wire types below.
type SplitClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

func NewSplitClient(baseURL string, hc *http.Client, tokens TokenProvider) *SplitClient {
	return &SplitClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		tokens:  tokens,
	}
}

type pinRequest struct {
	Pin string `json:"pin"`
}

type validateResponse struct {
	SerialNumber      string `json:"SerialNumber"`
	VoucherStatus     string `json:"VoucherStatus"`
	ValueCents        *int64 `json:"ValueCents"`
	VoucherCanBeSplit bool   `json:"VoucherCanBeSplit"`
}

type desiredVoucher struct {
	ValueCents int64 `json:"ValueCents"`
}

type splitRequest struct {
	Pin           string           `json:"pin"`
	SplitVouchers []desiredVoucher `json:"splitVouchers"`
}

type splitResponse struct {
	SplitVouchers []models.VoucherRecord `json:"SplitVouchers"`
}

// ValidateVoucher looks a voucher up by PIN.
func (c *SplitClient) ValidateVoucher(ctx context.Context, pin string) (*models.Voucher, error) {
	var out validateResponse
	if err := c.post(ctx, "/validatevoucher", "validate_voucher", pinRequest{Pin: pin}, nil, &out); err != nil {
		return nil, err
	}

	if out.SerialNumber == "" || out.ValueCents == nil || *out.ValueCents < 0 {
		return nil, errs.Markf(errs.ErrNetwork, "validate_voucher: incomplete response")
	}

	status := out.VoucherStatus
	if status == "" {
		status = models.VoucherStatusUnknown
	}
	return &models.Voucher{
		SerialNumber: out.SerialNumber,
		ValueCents:   *out.ValueCents,
		Status:       status,
		CanBeSplit:   out.VoucherCanBeSplit,
	}, nil
}

// CheckBalance reports a voucher's status and remaining value. The split
// service answers balance questions through the same validate call.
func (c *SplitClient) CheckBalance(ctx context.Context, pin string) (*models.Balance, error) {
	v, err := c.ValidateVoucher(ctx, pin)
	if err != nil {
		return nil, err
	}
	return &models.Balance{
		SerialNumber: v.SerialNumber,
		Status:       v.Status,
		AmountCents:  v.ValueCents,
		CanBeSplit:   v.CanBeSplit,
	}, nil
}

// SplitVoucher sends one split request. A success body that cannot be read,
// or a server error without an error code, leaves the split state unknown:
// the upstream may already have issued the vouchers.
func (c *SplitClient) SplitVoucher(ctx context.Context, req split.Request) ([]models.VoucherRecord, error) {
	body := splitRequest{Pin: req.Token, SplitVouchers: make([]desiredVoucher, len(req.AmountsCents))}
	for i, a := range req.AmountsCents {
		body.SplitVouchers[i] = desiredVoucher{ValueCents: a}
	}

	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}

	var out splitResponse
	err := c.post(ctx, "/splitvoucher", "split_voucher", body, headers, &out)
	if err != nil {
		if errs.Is(err, errMalformed) {
			return nil, errs.Mark(err, errs.ErrUnknownOutcome)
		}
		var rej *errs.RejectedError
		if errs.As(err, &rej) && rej.Status >= http.StatusInternalServerError && rej.Code == "" {
			return nil, errs.Markf(errs.ErrUnknownOutcome, "split_voucher: upstream answered %d: %s", rej.Status, rej.Reason)
		}
		return nil, err
	}
	for i, v := range out.SplitVouchers {
		if v.Token == "" {
			return nil, errs.Markf(errs.ErrUnknownOutcome, "split_voucher: voucher %d has no token", i+1)
		}
	}
	return out.SplitVouchers, nil
}

func (c *SplitClient) post(ctx context.Context, path, op string, in any, headers map[string]string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return errs.Wrapf(err, "%s: encode request", op)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrapf(err, "%s: build request", op)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return do(ctx, c.http, req, op, out)
}
