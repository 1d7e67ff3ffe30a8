package wizard

import (
	"fmt"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
)

const defaultInvalidMessage = "Valor inválido."

var defaultMessages = map[string]string{
	utils.TagFilled:     "Campo obrigatório.",
	utils.TagEmailShape: "E-mail inválido.",
	utils.TagCPF:        "CPF inválido.",
	utils.TagCNPJ:       "CNPJ inválido. Use o formato XX.XXX.XXX/XXXX-XX.",
	utils.TagBRPhone:    "Telefone inválido.",
	utils.TagCEP:        "CEP inválido.",
	utils.TagAccepted:   "Você precisa aceitar os termos de uso.",
	utils.TagAbsURL:     "Informe um link válido (ex: https://...).",
	utils.TagMoney:      "Informe um valor maior que zero.",
	"oneof":             "Opção inválida.",
}

func messageFor(rule FieldRule, tag, param string) string {
	if msg, ok := rule.Messages[tag]; ok {
		return msg
	}
	if tag == "min" {
		return fmt.Sprintf("Deve ter pelo menos %s caracteres.", param)
	}
	if msg, ok := defaultMessages[tag]; ok {
		return msg
	}
	return defaultInvalidMessage
}
