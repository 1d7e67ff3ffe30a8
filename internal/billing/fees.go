// Package billing calcula taxas e totais por meio de pagamento.
//
// Toda a aritmética usa decimal.Decimal; valores monetários nunca passam por float64,
// exceto na formatação para exibição.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
)

// Method identifica o meio de pagamento efetivo para fins de taxa.
type Method string

const (
	MethodBalance Method = "balance"
	MethodCredit  Method = "credit"
	MethodDebit   Method = "debit"
	MethodPayPal  Method = "paypal"
	MethodPix     Method = "pix"
)

// rates é a tabela fixa de taxas, em fração do valor.
var rates = map[Method]decimal.Decimal{
	MethodCredit:  decimal.RequireFromString("0.02"),
	MethodDebit:   decimal.RequireFromString("0.01"),
	MethodPayPal:  decimal.RequireFromString("0.025"),
	MethodPix:     decimal.Zero,
	MethodBalance: decimal.Zero,
}

// EffectiveMethod resolve o par (paymentMethod, externalMethod) do formulário
// para o método que define a taxa.
func EffectiveMethod(paymentMethod, externalMethod string) Method {
	if paymentMethod != "external" {
		return MethodBalance
	}
	return Method(strings.ToLower(externalMethod))
}

// Rate devolve a taxa do método; métodos desconhecidos não pagam taxa.
func Rate(method Method) decimal.Decimal {
	if r, ok := rates[method]; ok {
		return r
	}
	return decimal.Zero
}

// parseAmount trata vazio ou não numérico como zero.
func parseAmount(amount string) decimal.Decimal {
	d, err := utils.ParseAmount(amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CalculateFee devolve a taxa cobrada sobre amount para o método.
func CalculateFee(amount string, method Method) decimal.Decimal {
	return parseAmount(amount).Mul(Rate(method))
}

// CalculateTotal devolve amount + taxa.
func CalculateTotal(amount string, method Method) decimal.Decimal {
	a := parseAmount(amount)
	return a.Add(a.Mul(Rate(method)))
}

// Summary é o resumo exibido no passo de revisão.
type Summary struct {
	Method  Method          `json:"method"`
	Rate    decimal.Decimal `json:"rate"`
	Amount  decimal.Decimal `json:"amount"`
	Fee     decimal.Decimal `json:"fee"`
	Total   decimal.Decimal `json:"total"`
	Display SummaryDisplay  `json:"display"`
}

// SummaryDisplay traz os valores já formatados em reais.
type SummaryDisplay struct {
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
	Total  string `json:"total"`
}

// NewSummary calcula valor, taxa e total de uma vez.
func NewSummary(amount string, method Method) Summary {
	a := parseAmount(amount)
	fee := a.Mul(Rate(method))
	total := a.Add(fee)
	return Summary{
		Method: method,
		Rate:   Rate(method),
		Amount: a,
		Fee:    fee,
		Total:  total,
		Display: SummaryDisplay{
			Amount: FormatBRL(a),
			Fee:    FormatBRL(fee),
			Total:  FormatBRL(total),
		},
	}
}

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL formata com duas casas decimais no padrão brasileiro (ex: "R$ 1.234,50").
// Arredondamento bancário só acontece aqui, na exibição.
func FormatBRL(d decimal.Decimal) string {
	rounded := d.RoundBank(2).InexactFloat64()
	return brPrinter.Sprintf("%v %v",
		currency.Symbol(currency.BRL),
		number.Decimal(rounded, number.MinFractionDigits(2), number.MaxFractionDigits(2)),
	)
}
