package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/neointegratech/portal-client/internal/domain/model"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{36000000, "Rp 36.000.000"},
		{81000000, "Rp 81.000.000"},
		{5000, "Rp 5.000"},
		{999, "Rp 999"},
		{0, "Rp 0"},
		{1000000000, "Rp 1.000.000.000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, model.FormatRupiah(decimal.NewFromInt(tt.amount)))
	}
}

func TestFormatRupiahTruncatesFractions(t *testing.T) {
	assert.Equal(t, "Rp 5.000", model.FormatRupiah(decimal.NewFromFloat(5000.75)))
}

func TestFormatRupiahNegative(t *testing.T) {
	assert.Equal(t, "-Rp 36.000.000", model.FormatRupiah(decimal.NewFromInt(-36000000)))
}
