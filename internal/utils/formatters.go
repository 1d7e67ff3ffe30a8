package utils

import "strings"

// Limites de dígitos de cada máscara.
const (
	CPFDigits        = 11
	CNPJDigits       = 14
	PhoneDigits      = 11
	CEPDigits        = 8
	CardNumberDigits = 16
	CardExpiryDigits = 4
)

const (
	maskCPF        = "###.###.###-##"
	maskCNPJ       = "##.###.###/####-##"
	maskPhone      = "(##) ####-####"
	maskMobile     = "(##) #####-####"
	maskCEP        = "#####-###"
	maskCardNumber = "#### #### #### ####"
	maskCardExpiry = "##/##"
)

// OnlyDigits remove todos os caracteres não numéricos (ASCII) de s.
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// applyMask encaixa os dígitos no padrão, onde '#' recebe um dígito.
// Separadores só são escritos antes de um dígito, então entradas parciais
// ficam sem separador pendurado no final ("123" -> "123", "1234" -> "123.4").
func applyMask(digits, mask string, maxDigits int) string {
	if len(digits) > maxDigits {
		digits = digits[:maxDigits]
	}
	if digits == "" {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(mask))
	i := 0
	for _, m := range mask {
		if i >= len(digits) {
			break
		}
		if m == '#' {
			sb.WriteByte(digits[i])
			i++
			continue
		}
		sb.WriteRune(m)
	}
	return sb.String()
}

// FormatCPF formata como ###.###.###-##.
func FormatCPF(raw string) string {
	return applyMask(OnlyDigits(raw), maskCPF, CPFDigits)
}

// FormatCNPJ formata como ##.###.###/####-##.
func FormatCNPJ(raw string) string {
	return applyMask(OnlyDigits(raw), maskCNPJ, CNPJDigits)
}

// FormatPhone formata telefone fixo (##) ####-#### ou celular (##) #####-####,
// decidido pela quantidade de dígitos.
func FormatPhone(raw string) string {
	digits := OnlyDigits(raw)
	if len(digits) >= PhoneDigits {
		return applyMask(digits, maskMobile, PhoneDigits)
	}
	return applyMask(digits, maskPhone, PhoneDigits-1)
}

// FormatCEP formata como #####-###.
func FormatCEP(raw string) string {
	return applyMask(OnlyDigits(raw), maskCEP, CEPDigits)
}

// FormatCardNumber agrupa em blocos de 4 separados por espaço (máx. 19 caracteres).
func FormatCardNumber(raw string) string {
	return applyMask(OnlyDigits(raw), maskCardNumber, CardNumberDigits)
}

// FormatCardExpiry insere '/' após o mês (MM/AA).
func FormatCardExpiry(raw string) string {
	return applyMask(OnlyDigits(raw), maskCardExpiry, CardExpiryDigits)
}
