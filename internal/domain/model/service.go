package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a purchasable service package from the catalog.
type Service struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days,omitempty"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}
