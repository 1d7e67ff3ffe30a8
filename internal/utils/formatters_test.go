package utils

import (
	"fmt"
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name   string
		format func(string) string
		in     string
		want   string
	}{
		{"cpf completo", FormatCPF, "52998224725", "529.982.247-25"},
		{"cpf parcial", FormatCPF, "5299", "529.9"},
		{"cpf corta excesso", FormatCPF, "529982247251234", "529.982.247-25"},
		{"cpf ignora letras", FormatCPF, "abc529x982", "529.982"},
		{"cnpj completo", FormatCNPJ, "11222333000181", "11.222.333/0001-81"},
		{"cnpj parcial", FormatCNPJ, "112223", "11.222.3"},
		{"telefone fixo", FormatPhone, "1133334444", "(11) 3333-4444"},
		{"telefone celular", FormatPhone, "11987654321", "(11) 98765-4321"},
		{"telefone corta em 11", FormatPhone, "119876543219999", "(11) 98765-4321"},
		{"telefone parcial", FormatPhone, "11", "(11"},
		{"cep", FormatCEP, "01310100", "01310-100"},
		{"cep parcial", FormatCEP, "01310", "01310"},
		{"cartao", FormatCardNumber, "4111111111111111", "4111 1111 1111 1111"},
		{"cartao corta", FormatCardNumber, "41111111111111119999", "4111 1111 1111 1111"},
		{"validade", FormatCardExpiry, "1229", "12/29"},
		{"validade parcial", FormatCardExpiry, "1", "1"},
		{"vazio", FormatCPF, "", ""},
		{"so simbolos", FormatCEP, "--..", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format(tt.in))
		})
	}
}

func TestFormatters_Idempotent(t *testing.T) {
	formatters := map[string]func(string) string{
		"cpf":    FormatCPF,
		"cnpj":   FormatCNPJ,
		"phone":  FormatPhone,
		"cep":    FormatCEP,
		"card":   FormatCardNumber,
		"expiry": FormatCardExpiry,
	}
	inputs := []string{"", "1", "12345", "1234567890", "12345678901", "123456789012345678901", "(11) 9"}

	for name, f := range formatters {
		for _, in := range inputs {
			once := f(in)
			assert.Equal(t, once, f(once), "%s(%q) não é idempotente", name, in)
		}
	}
}

func TestFormatCPF_AnyElevenDigitsMatchesMask(t *testing.T) {
	re := regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		digits := fmt.Sprintf("%011d", rng.Int63n(100_000_000_000))
		assert.Regexp(t, re, FormatCPF(digits))
	}
}

func TestFormatters_RoundTripDigits(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomDigits := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte('0' + rng.Intn(10))
		}
		return string(b)
	}

	cases := []struct {
		name   string
		format func(string) string
		max    int
	}{
		{"cpf", FormatCPF, CPFDigits},
		{"phone", FormatPhone, PhoneDigits},
		{"cep", FormatCEP, CEPDigits},
		{"card", FormatCardNumber, CardNumberDigits},
	}
	for _, c := range cases {
		for n := 0; n <= c.max+3; n++ {
			digits := randomDigits(n)
			want := digits
			if len(want) > c.max {
				want = want[:c.max]
			}
			assert.Equal(t, want, OnlyDigits(c.format(digits)), "%s com %d dígitos", c.name, n)
		}
	}
}
