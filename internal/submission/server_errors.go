package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/wizard"
)

// Tabelas de tradução: path do servidor -> dot-path do FormState.
// Paths ausentes da tabela são aceitos quando já são um campo conhecido do formulário.
var serverFieldPaths = map[wizard.SubmissionKind]map[string]string{
	wizard.SubmitUserRegistration: {
		"fullname":   "fullName",
		"email":      "email",
		"password":   "password",
		"cpf":        "cpf",
		"phone":      "phone",
		"occupation": "occupation",
		"role":       "role",

		"addresses[0].street":     "address.street",
		"addresses[0].number":     "address.number",
		"addresses[0].complement": "address.complement",
		"addresses[0].city":       "address.city",
		"addresses[0].state":      "address.state",
		"addresses[0].zipcode":    "address.zipCode",
		"addresses[0].country":    "address.country",
	},
	wizard.SubmitEnterpriseRegistration: {
		"country": "address.country",
		"state":   "address.state",
		"city":    "address.city",
		"street":  "address.street",
		"number":  "address.number",
	},
	wizard.SubmitImportCreation: {},
}

var knownFields = lo.SliceToMap(wizard.FieldPaths(), func(p string) (string, bool) { return p, true })

// LocalFieldPath traduz o path de um erro do servidor para o campo do formulário.
// O segundo retorno é false quando o campo não existe no formulário.
func LocalFieldPath(kind wizard.SubmissionKind, serverPath string) (string, bool) {
	serverPath = strings.TrimSpace(serverPath)
	if local, ok := serverFieldPaths[kind][serverPath]; ok {
		return local, true
	}
	if knownFields[serverPath] {
		return serverPath, true
	}
	return "", false
}

// MapServerErrors distribui os erros por campo no FieldErrorMap e devolve a mensagem geral.
// Erros de campos que o formulário não conhece entram na mensagem geral.
// Sem nenhuma informação utilizável, a mensagem geral é FallbackServerMessage.
func MapServerErrors(kind wizard.SubmissionKind, fieldErrs []appErrors.FieldError, message string) (wizard.FieldErrorMap, string) {
	out := wizard.FieldErrorMap{}
	var unmapped []string

	for _, fe := range fieldErrs {
		msg := strings.TrimSpace(fe.Message)
		if msg == "" {
			msg = "Valor inválido."
		}
		if local, ok := LocalFieldPath(kind, fe.Field); ok {
			// O primeiro erro de cada campo prevalece.
			if out.Get(local) == "" {
				out.Set(local, msg)
			}
			continue
		}
		unmapped = append(unmapped, fmt.Sprintf("%s: %s", fe.Field, msg))
	}

	general := strings.TrimSpace(message)
	if len(unmapped) > 0 {
		general = strings.TrimSpace(strings.Join(append(lo.Compact([]string{general}), unmapped...), " "))
	}
	if general == "" && !out.HasErrors() {
		general = appErrors.FallbackServerMessage
	}
	return out, general
}

// MapError aplica MapServerErrors a qualquer erro devolvido pelo cliente do backend.
func MapError(kind wizard.SubmissionKind, err error) (wizard.FieldErrorMap, string) {
	var se *appErrors.SubmissionError
	if errors.As(err, &se) {
		return MapServerErrors(kind, se.FieldErrors, se.Message)
	}
	return wizard.FieldErrorMap{}, appErrors.FallbackServerMessage
}
