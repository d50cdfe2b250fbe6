package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neointegratech/portal-client/internal/domain/model"
)

func strPtr(s string) *string { return &s }

func TestPaymentInstruction(t *testing.T) {
	tests := []struct {
		name    string
		payment model.Payment
		want    model.Instruction
	}{
		{
			name:    "redirect when payment_url present",
			payment: model.Payment{PaymentURL: strPtr("https://pay.example.com/x")},
			want:    model.Redirect{URL: "https://pay.example.com/x"},
		},
		{
			name: "virtual account with channel",
			payment: model.Payment{
				VANumber:       strPtr("8808123456789"),
				PaymentChannel: "bca",
			},
			want: model.VirtualAccount{Number: "8808123456789", Channel: "bca"},
		},
		{
			name:    "payment_no used when va_number absent",
			payment: model.Payment{PaymentNo: strPtr("9912000011"), PaymentChannel: "bni"},
			want:    model.VirtualAccount{Number: "9912000011", Channel: "bni"},
		},
		{
			name:    "qr code",
			payment: model.Payment{QRCodeURL: strPtr("https://img.example.com/qr.png")},
			want:    model.QRCode{URL: "https://img.example.com/qr.png"},
		},
		{
			name:    "deferred when no artifact returned",
			payment: model.Payment{},
			want:    model.Deferred{},
		},
		{
			name:    "empty strings count as absent",
			payment: model.Payment{PaymentURL: strPtr(""), VANumber: strPtr(""), QRCodeURL: strPtr("")},
			want:    model.Deferred{},
		},
		{
			name: "redirect wins over other artifacts in a malformed response",
			payment: model.Payment{
				PaymentURL: strPtr("https://pay.example.com/x"),
				VANumber:   strPtr("8808123456789"),
			},
			want: model.Redirect{URL: "https://pay.example.com/x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payment.Instruction())
		})
	}
}

func TestPaymentArtifactCount(t *testing.T) {
	// Well-formed responses populate at most one artifact per method.
	wellFormed := []model.Payment{
		{PaymentURL: strPtr("https://pay.example.com/x")},
		{VANumber: strPtr("8808123456789"), PaymentChannel: "bca"},
		{QRCodeURL: strPtr("https://img.example.com/qr.png")},
		{},
	}
	for _, p := range wellFormed {
		assert.LessOrEqual(t, p.ArtifactCount(), 1)
	}

	malformed := model.Payment{
		PaymentURL: strPtr("https://pay.example.com/x"),
		VANumber:   strPtr("8808123456789"),
	}
	assert.Equal(t, 2, malformed.ArtifactCount())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, model.PaymentStatusPending.Terminal())
	assert.True(t, model.PaymentStatusSuccess.Terminal())
	assert.True(t, model.PaymentStatusFailed.Terminal())
	assert.True(t, model.PaymentStatusExpired.Terminal())

	assert.False(t, model.OrderStatusPending.Terminal())
	assert.False(t, model.OrderStatusPaid.Terminal())
	assert.True(t, model.OrderStatusCompleted.Terminal())
	assert.True(t, model.OrderStatusCancelled.Terminal())
	assert.True(t, model.OrderStatusFailed.Terminal())
}
