package utils

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8" // Para contagem de runas (caracteres) em vez de bytes

	"github.com/shopspring/decimal"
)

// --- Validador de CPF ---

// IsValidCPF valida o CPF (formatado ou não) pelos dígitos verificadores mod-11.
func IsValidCPF(cpf string) bool {
	cpf = OnlyDigits(cpf)
	if len(cpf) != CPFDigits {
		return false
	}
	// Sequências como "11111111111" passam no cálculo mas não são CPFs válidos
	if allDigitsEqual(cpf) {
		return false
	}
	return cpfCheckDigit(cpf[:9], 10) == int(cpf[9]-'0') &&
		cpfCheckDigit(cpf[:10], 11) == int(cpf[10]-'0')
}

// cpfCheckDigit calcula um dígito verificador com pesos decrescentes a partir de firstWeight.
func cpfCheckDigit(digits string, firstWeight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (firstWeight - i)
	}
	remainder := (sum * 10) % 11
	if remainder >= 10 {
		return 0
	}
	return remainder
}

// --- Validadores de CNPJ ---

var cnpjFormatRegex = regexp.MustCompile(`^\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}$`)

// IsValidCNPJFormat verifica apenas a máscara XX.XXX.XXX/XXXX-XX, sem dígitos verificadores.
func IsValidCNPJFormat(cnpj string) bool {
	return cnpjFormatRegex.MatchString(cnpj)
}

// IsValidCNPJChecksum verifica os dígitos verificadores de um CNPJ (formatado ou não).
func IsValidCNPJChecksum(cnpj string) bool {
	cnpj = OnlyDigits(cnpj)
	if len(cnpj) != CNPJDigits {
		return false
	}
	if allDigitsEqual(cnpj) {
		return false
	}

	// Cálculo do primeiro dígito verificador
	sum := 0
	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	for i := 0; i < 12; i++ {
		sum += int(cnpj[i]-'0') * weights1[i]
	}
	remainder := sum % 11
	digit1 := 0
	if remainder >= 2 {
		digit1 = 11 - remainder
	}
	if digit1 != int(cnpj[12]-'0') {
		return false
	}

	// Cálculo do segundo dígito verificador
	sum = 0
	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	for i := 0; i < 13; i++ {
		sum += int(cnpj[i]-'0') * weights2[i]
	}
	remainder = sum % 11
	digit2 := 0
	if remainder >= 2 {
		digit2 = 11 - remainder
	}
	return digit2 == int(cnpj[13]-'0')
}

// allDigitsEqual verifica se todos os caracteres em uma string são iguais.
func allDigitsEqual(s string) bool {
	if len(s) < 2 {
		return true
	}
	first := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != first {
			return false
		}
	}
	return true
}

// --- Validadores simples ---

var emailRegexSimple = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsFilled indica se a string não é vazia após trim.
func IsFilled(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidEmail verifica o formato local@dominio.tld.
func IsValidEmail(email string) bool {
	return emailRegexSimple.MatchString(strings.TrimSpace(email))
}

// IsValidPhone aceita 10 (fixo) ou 11 (celular) dígitos.
func IsValidPhone(phone string) bool {
	n := len(OnlyDigits(phone))
	return n == PhoneDigits-1 || n == PhoneDigits
}

// IsValidCEP exige exatamente 8 dígitos.
func IsValidCEP(cep string) bool {
	return len(OnlyDigits(cep)) == CEPDigits
}

// IsValidPassword verifica apenas o comprimento mínimo, em caracteres.
func IsValidPassword(password string, minLength int) bool {
	return utf8.RuneCountInString(password) >= minLength
}

// IsAbsoluteURL verifica se o link do produto é uma URL absoluta (esquema + host).
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}

// IsPositiveAmount verifica se o valor é um número finito estritamente maior que zero.
// Aceita vírgula como separador decimal ("10,50").
func IsPositiveAmount(raw string) bool {
	d, err := ParseAmount(raw)
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// ParseAmount converte o texto digitado em decimal. Aceita "1.000,50" e "1,000.50":
// com os dois separadores presentes, o último é o decimal e o outro é de milhar.
// Com só vírgula, ela é o decimal; pontos repetidos ("1.000.000") são de milhar.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return decimal.NewFromString(s)
}

// --- Sanitização ---

// SanitizeInput remove caracteres de controle e colapsa espaços repetidos.
func SanitizeInput(inputStr string) string {
	if inputStr == "" {
		return ""
	}
	var sb strings.Builder
	lastWasSpace := false
	for _, r := range inputStr {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				sb.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			sb.WriteRune(r)
			lastWasSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
