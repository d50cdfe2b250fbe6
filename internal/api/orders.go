package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/neointegratech/portal-client/internal/domain/model"
)

// OrdersAPI wraps the orders collaborator endpoints.
type OrdersAPI struct {
	c *Client
}

type CreateOrderRequest struct {
	ServiceSlug string `json:"service_slug"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}

// Create places a new order. Pricing is resolved server-side from the slug.
func (o *OrdersAPI) Create(ctx context.Context, req CreateOrderRequest) (*model.Order, error) {
	var out model.Order
	if err := o.c.do(ctx, http.MethodPost, "/orders/", nil, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the caller's orders, newest first.
func (o *OrdersAPI) List(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	if err := o.c.do(ctx, http.MethodGet, "/orders/", nil, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// ByNumber looks an order up by its human-readable number.
func (o *OrdersAPI) ByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var out model.Order
	path := fmt.Sprintf("/orders/number/%s", orderNumber)
	if err := o.c.do(ctx, http.MethodGet, path, nil, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel cancels a pending order.
func (o *OrdersAPI) Cancel(ctx context.Context, orderNumber string) error {
	path := fmt.Sprintf("/orders/%s", orderNumber)
	return o.c.do(ctx, http.MethodDelete, path, nil, nil, nil, false)
}
