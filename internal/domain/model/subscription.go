package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a running service subscription eligible for renewal.
type Subscription struct {
	ID           int64              `json:"id"`
	UserID       int64              `json:"user_id"`
	PackageName  string             `json:"package_name"`
	PackageType  string             `json:"package_type"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
	Price        decimal.Decimal    `json:"price"`
	RenewalPrice *decimal.Decimal   `json:"renewal_price,omitempty"`
	AutoRenewal  bool               `json:"auto_renewal"`
	Status       SubscriptionStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
}

// RenewalAmount returns the price a renewal order should charge, falling
// back to the original price when no renewal price is set.
func (s *Subscription) RenewalAmount() decimal.Decimal {
	if s.RenewalPrice != nil && !s.RenewalPrice.IsZero() {
		return *s.RenewalPrice
	}
	return s.Price
}
