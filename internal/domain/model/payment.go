package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod selects how a payment is settled.
type PaymentMethod string

const (
	PaymentMethodVA   PaymentMethod = "va"
	PaymentMethodQRIS PaymentMethod = "qris"
)

// PaymentStatus is the lifecycle state of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// Terminal reports whether no further automatic transition occurs.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusExpired:
		return true
	}
	return false
}

// Payment is one payment attempt against an order. Retries create new
// records; the most recent one is authoritative.
type Payment struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	PaymentChannel string          `json:"payment_channel,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Status         PaymentStatus   `json:"status"`
	PaymentURL     *string         `json:"payment_url,omitempty"`
	QRCodeURL      *string         `json:"qr_code_url,omitempty"`
	VANumber       *string         `json:"va_number,omitempty"`
	// PaymentNo is a gateway-side alias some channels return instead of
	// va_number.
	PaymentNo *string    `json:"payment_no,omitempty"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ArtifactCount returns how many payment artifacts are meaningfully set.
// A well-formed response populates at most one.
func (p *Payment) ArtifactCount() int {
	n := 0
	if strPresent(p.PaymentURL) {
		n++
	}
	if strPresent(p.VANumber) {
		n++
	}
	if strPresent(p.QRCodeURL) {
		n++
	}
	return n
}

func strPresent(s *string) bool {
	return s != nil && *s != ""
}

// Instruction is the actionable outcome of a payment creation, as a closed
// set of variants so the presentation layer can match exhaustively instead
// of probing optional fields.
type Instruction interface {
	isInstruction()
}

// Redirect means the user must be sent to an external payment page.
type Redirect struct {
	URL string
}

// VirtualAccount means the user transfers to a bank VA number.
type VirtualAccount struct {
	Number  string
	Channel string
}

// QRCode means the user scans a QRIS code image.
type QRCode struct {
	URL string
}

// Deferred means no artifact was returned; the order exists and payment can
// be initiated later from the order list.
type Deferred struct{}

func (Redirect) isInstruction()       {}
func (VirtualAccount) isInstruction() {}
func (QRCode) isInstruction()         {}
func (Deferred) isInstruction()       {}

// Instruction derives the payment's variant. Precedence when a response is
// malformed and carries several artifacts: redirect, then VA, then QR.
func (p *Payment) Instruction() Instruction {
	if strPresent(p.PaymentURL) {
		return Redirect{URL: *p.PaymentURL}
	}
	if number, ok := p.vaNumber(); ok {
		return VirtualAccount{Number: number, Channel: p.PaymentChannel}
	}
	if strPresent(p.QRCodeURL) {
		return QRCode{URL: *p.QRCodeURL}
	}
	return Deferred{}
}

func (p *Payment) vaNumber() (string, bool) {
	if strPresent(p.VANumber) {
		return *p.VANumber, true
	}
	if strPresent(p.PaymentNo) {
		return *p.PaymentNo, true
	}
	return "", false
}
