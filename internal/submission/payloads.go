// Package submission transforma o FormState em corpos de requisição do backend,
// executa a submissão e devolve os erros do servidor para o FieldErrorMap do wizard.
package submission

import (
	"strings"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/wizard"
)

func text(s string) string {
	return utils.SanitizeInput(s)
}

// BuildUserRegistration monta o corpo do cadastro individual.
// Nome e sobrenome viram `fullname`; CPF, telefone e CEP vão somente com dígitos;
// o endereço vira o primeiro item de `addresses`.
func BuildUserRegistration(f wizard.FormState) models.UserRegistrationCreate {
	role := text(f.Role)
	if role == "" {
		role = models.DefaultUserRole
	}
	return models.UserRegistrationCreate{
		FullName:   strings.TrimSpace(text(f.FullName) + " " + text(f.LastName)),
		Email:      strings.TrimSpace(f.Email),
		Password:   f.Password,
		CPF:        utils.OnlyDigits(f.CPF),
		Phone:      utils.OnlyDigits(f.Phone),
		Occupation: text(f.Occupation),
		Role:       role,
		Addresses: []models.AddressCreate{{
			Street:     text(f.Address.Street),
			Number:     text(f.Address.Number),
			Complement: text(f.Address.Complement),
			City:       text(f.Address.City),
			State:      text(f.Address.State),
			ZipCode:    utils.OnlyDigits(f.Address.ZipCode),
			Country:    text(f.Address.Country),
		}},
	}
}

// BuildEnterpriseRegistration monta o corpo do cadastro de empresa com os campos do formulário
// sem renomear. O CNPJ segue com a máscara, como digitado.
func BuildEnterpriseRegistration(f wizard.FormState) models.EnterpriseRegistrationCreate {
	return models.EnterpriseRegistrationCreate{
		CompanyName:        text(f.CompanyName),
		CNPJ:               f.CNPJ,
		CorporateEmail:     strings.TrimSpace(f.CorporateEmail),
		AdminFirstName:     text(f.AdminFirstName),
		AdminLastName:      text(f.AdminLastName),
		Industry:           text(f.Industry),
		Country:            text(f.Address.Country),
		State:              text(f.Address.State),
		City:               text(f.Address.City),
		Street:             text(f.Address.Street),
		Number:             text(f.Address.Number),
		AdminPhone:         f.AdminPhone,
		CompanyPhone:       f.CompanyPhone,
		Password:           f.Password,
		AgreeTerms:         f.AgreeTerms,
		HasPurchaseManager: f.HasPurchaseManager,
	}
}

// BuildImportCreation monta o corpo da criação de importação. Toda importação nasce pendente e sem progresso.
func BuildImportCreation(f wizard.FormState) models.ImportCreate {
	return models.ImportCreate{
		Title:       text(f.Title),
		Origin:      text(f.Origin),
		Destination: text(f.Destination),
		Status:      models.ImportStatusPending,
		Progress:    0,
	}
}
