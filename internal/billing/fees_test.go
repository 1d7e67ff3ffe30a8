package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateFee(t *testing.T) {
	tests := []struct {
		amount string
		method Method
		want   string
	}{
		{"100", MethodCredit, "2"},
		{"100", MethodDebit, "1"},
		{"100", MethodPayPal, "2.5"},
		{"100", MethodPix, "0"},
		{"100", MethodBalance, "0"},
		{"", MethodCredit, "0"},
		{"abc", MethodPayPal, "0"},
		{"0.1", MethodCredit, "0.002"},
		{"10,50", MethodDebit, "0.105"},
		{"100", Method("boleto"), "0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.method)+"_"+tt.amount, func(t *testing.T) {
			got := CalculateFee(tt.amount, tt.method)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCalculateTotal(t *testing.T) {
	assert.True(t, decimal.NewFromInt(102).Equal(CalculateTotal("100", MethodCredit)))
	assert.True(t, decimal.RequireFromString("102.5").Equal(CalculateTotal("100", MethodPayPal)))
	assert.True(t, decimal.NewFromInt(100).Equal(CalculateTotal("100", MethodPix)))
	assert.True(t, decimal.Zero.Equal(CalculateTotal("", MethodCredit)))

	// Exato, sem resíduo de ponto flutuante
	assert.Equal(t, "0.306", CalculateTotal("0.3", MethodCredit).String())
}

func TestEffectiveMethod(t *testing.T) {
	assert.Equal(t, MethodBalance, EffectiveMethod("balance", "credit"))
	assert.Equal(t, MethodCredit, EffectiveMethod("external", "credit"))
	assert.Equal(t, MethodPix, EffectiveMethod("external", "PIX"))
}

func TestNewSummary(t *testing.T) {
	s := NewSummary("1234.5", MethodCredit)

	assert.Equal(t, MethodCredit, s.Method)
	assert.True(t, decimal.RequireFromString("24.69").Equal(s.Fee))
	assert.True(t, decimal.RequireFromString("1259.19").Equal(s.Total))
	assert.Contains(t, s.Display.Total, "R$")
	assert.Contains(t, s.Display.Total, "1.259,19")
	assert.Contains(t, s.Display.Fee, "24,69")
}
