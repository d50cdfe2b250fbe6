package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/neointegratech/portal-client/internal/domain/model"
)

// SubscriptionsAPI wraps the subscription endpoints.
type SubscriptionsAPI struct {
	c *Client
}

// RenewResponse is returned by a renewal request: the order that will
// carry the renewal payment.
type RenewResponse struct {
	OrderID int64        `json:"order_id"`
	Order   *model.Order `json:"order,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Mine returns the caller's subscriptions.
func (s *SubscriptionsAPI) Mine(ctx context.Context) ([]model.Subscription, error) {
	var out []model.Subscription
	if err := s.c.do(ctx, http.MethodGet, "/subscriptions/my-subscriptions", nil, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpiringSoon returns subscriptions ending within the given number of days.
func (s *SubscriptionsAPI) ExpiringSoon(ctx context.Context, days int) ([]model.Subscription, error) {
	query := url.Values{}
	if days > 0 {
		query.Set("days", strconv.Itoa(days))
	}
	var out []model.Subscription
	if err := s.c.do(ctx, http.MethodGet, "/subscriptions/expiring-soon", query, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// Renew creates a renewal order for a subscription.
func (s *SubscriptionsAPI) Renew(ctx context.Context, subscriptionID int64) (*RenewResponse, error) {
	var out RenewResponse
	path := fmt.Sprintf("/subscriptions/renew/%d", subscriptionID)
	if err := s.c.do(ctx, http.MethodPost, path, nil, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}
