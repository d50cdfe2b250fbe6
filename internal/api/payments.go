package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/neointegratech/portal-client/internal/domain/model"
)

// PaymentsAPI wraps the payments collaborator endpoints.
type PaymentsAPI struct {
	c *Client
}

type CreatePaymentRequest struct {
	OrderID        int64               `json:"order_id"`
	PaymentMethod  model.PaymentMethod `json:"payment_method"`
	PaymentChannel string              `json:"payment_channel,omitempty"`
	Amount         decimal.Decimal     `json:"amount"`
}

// Create requests a payment for an order from the gateway.
func (p *PaymentsAPI) Create(ctx context.Context, req CreatePaymentRequest) (*model.Payment, error) {
	var out model.Payment
	if err := p.c.do(ctx, http.MethodPost, "/payments/", nil, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ByID fetches a single payment record.
func (p *PaymentsAPI) ByID(ctx context.Context, paymentID int64) (*model.Payment, error) {
	var out model.Payment
	path := fmt.Sprintf("/payments/%d", paymentID)
	if err := p.c.do(ctx, http.MethodGet, path, nil, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ByOrder returns an order's payment attempts, most recent first. Index 0
// is the authoritative attempt.
func (p *PaymentsAPI) ByOrder(ctx context.Context, orderID int64) ([]model.Payment, error) {
	var out []model.Payment
	path := fmt.Sprintf("/payments/order/%d", orderID)
	if err := p.c.do(ctx, http.MethodGet, path, nil, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckStatus asks the backend to re-query the gateway and returns the
// refreshed payment record.
func (p *PaymentsAPI) CheckStatus(ctx context.Context, paymentID int64) (*model.Payment, error) {
	var out model.Payment
	path := fmt.Sprintf("/payments/check-status/%d", paymentID)
	if err := p.c.do(ctx, http.MethodPost, path, nil, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}
