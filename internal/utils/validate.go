package utils

import (
	"github.com/go-playground/validator/v10"
)

// Tags customizadas registradas no validador compartilhado.
const (
	TagFilled     = "filled"      // não vazio após trim
	TagEmailShape = "email_shape" // local@dominio.tld
	TagCPF        = "cpf"         // dígitos verificadores do CPF
	TagCNPJ       = "cnpj"        // máscara do CNPJ (e checksum se estrito)
	TagBRPhone    = "br_phone"    // 10 ou 11 dígitos
	TagCEP        = "cep"         // 8 dígitos
	TagAccepted   = "accepted"    // booleano verdadeiro
	TagAbsURL     = "abs_url"     // URL absoluta
	TagMoney      = "money"       // número finito > 0
)

// ValidatorOptions controla as decisões de produto que mudam o comportamento dos validadores.
type ValidatorOptions struct {
	// CNPJStrictChecksum exige os dígitos verificadores além da máscara.
	CNPJStrictChecksum bool
}

// NewValidator cria um *validator.Validate com as tags do domínio registradas.
func NewValidator(opts ValidatorOptions) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	register := func(tag string, fn func(string) bool) {
		// RegisterValidation só falha para tags vazias ou reservadas.
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}

	register(TagFilled, IsFilled)
	register(TagEmailShape, IsValidEmail)
	register(TagCPF, IsValidCPF)
	register(TagBRPhone, IsValidPhone)
	register(TagCEP, IsValidCEP)
	register(TagAbsURL, IsAbsoluteURL)
	register(TagMoney, IsPositiveAmount)
	register(TagCNPJ, func(s string) bool {
		if !IsValidCNPJFormat(s) {
			return false
		}
		return !opts.CNPJStrictChecksum || IsValidCNPJChecksum(s)
	})

	if err := v.RegisterValidation(TagAccepted, func(fl validator.FieldLevel) bool {
		return fl.Field().Bool()
	}); err != nil {
		panic(err)
	}
	return v
}
