package wizard

import (
	"fmt"
	"strings"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
)

// FlowName identifica um dos fluxos de wizard.
type FlowName string

const (
	FlowRegisterUser       FlowName = "register-user"
	FlowRegisterEnterprise FlowName = "register-enterprise"
	FlowImport             FlowName = "import"
	FlowImportModal        FlowName = "import-modal"
)

// SubmissionKind define qual endpoint do backend recebe a submissão do fluxo.
type SubmissionKind string

const (
	SubmitUserRegistration       SubmissionKind = "user-registration"
	SubmitEnterpriseRegistration SubmissionKind = "enterprise-registration"
	SubmitImportCreation         SubmissionKind = "import-creation"
)

// StepConfirmation é o nome do passo terminal de todos os fluxos.
const StepConfirmation = "confirmation"

// FieldRule declara as restrições de um campo pertencente a um passo.
type FieldRule struct {
	// Path é o dot-path do campo no FormState.
	Path string
	// Tags são as tags do go-playground/validator (ex: "filled,cpf").
	Tags string
	// When torna a regra condicional; nil significa sempre ativa.
	When func(f *FormState) bool
	// Messages sobrescreve a mensagem padrão por tag.
	Messages map[string]string
}

// Active indica se a regra se aplica ao estado atual.
func (r FieldRule) Active(f *FormState) bool {
	return r.When == nil || r.When(f)
}

// Required indica se o campo conta no cálculo de progresso.
func (r FieldRule) Required() bool {
	for _, tag := range strings.Split(r.Tags, ",") {
		if tag == utils.TagFilled {
			return true
		}
	}
	return false
}

// Step é um passo nomeado do wizard.
type Step struct {
	Name   string
	Fields []FieldRule
}

// Flow é a sequência ordenada de passos; o último é sempre a confirmação.
type Flow struct {
	Name  FlowName
	Kind  SubmissionKind
	Steps []Step
}

// StepNames lista os nomes dos passos em ordem.
func (fl Flow) StepNames() []string {
	names := make([]string, len(fl.Steps))
	for i, s := range fl.Steps {
		names[i] = s.Name
	}
	return names
}

// SubmitStepIndex é o índice do passo imediatamente anterior à confirmação.
func (fl Flow) SubmitStepIndex() int {
	return len(fl.Steps) - 2
}

// FlowOptions parametriza as regras que dependem de configuração.
type FlowOptions struct {
	PasswordMinLength int
}

func (o FlowOptions) passwordTags() string {
	n := o.PasswordMinLength
	if n <= 0 {
		n = 8
	}
	return fmt.Sprintf("%s,min=%d", utils.TagFilled, n)
}

var (
	requiredText = utils.TagFilled
	termsRule    = FieldRule{Path: "agreeTerms", Tags: utils.TagAccepted}
)

func required(paths ...string) []FieldRule {
	rules := make([]FieldRule, len(paths))
	for i, p := range paths {
		rules[i] = FieldRule{Path: p, Tags: requiredText}
	}
	return rules
}

func addressRules() []FieldRule {
	rules := required("address.street", "address.number", "address.city", "address.state")
	rules = append(rules,
		FieldRule{Path: "address.zipCode", Tags: requiredText + "," + utils.TagCEP},
		FieldRule{Path: "address.country", Tags: requiredText},
	)
	return rules
}

func paymentRules() []FieldRule {
	return []FieldRule{
		{Path: "paymentMethod", Tags: "oneof=balance external"},
		{Path: "externalMethod", Tags: "oneof=credit debit paypal pix", When: (*FormState).IsExternalPayment},
		{Path: "creditCard.number", Tags: requiredText, When: (*FormState).UsesCard},
		{Path: "creditCard.expiry", Tags: requiredText, When: (*FormState).UsesCard},
		{Path: "creditCard.cvc", Tags: requiredText, When: (*FormState).UsesCard},
		{Path: "creditCard.name", Tags: requiredText, When: (*FormState).UsesCard},
		{Path: "paypalEmail", Tags: requiredText + "," + utils.TagEmailShape, When: (*FormState).UsesPayPal,
			Messages: map[string]string{utils.TagEmailShape: "E-mail do PayPal inválido."}},
	}
}

// UserRegistrationFlow: dados pessoais → endereço → plano → confirmação.
// A escolha do plano dispara o cadastro.
func UserRegistrationFlow(opts FlowOptions) Flow {
	details := append(required("fullName", "lastName"),
		FieldRule{Path: "email", Tags: requiredText + "," + utils.TagEmailShape},
		FieldRule{Path: "cpf", Tags: requiredText + "," + utils.TagCPF},
		FieldRule{Path: "birthDate", Tags: requiredText},
		FieldRule{Path: "occupation", Tags: requiredText},
		FieldRule{Path: "password", Tags: opts.passwordTags()},
	)
	address := append(addressRules(),
		FieldRule{Path: "phone", Tags: requiredText + "," + utils.TagBRPhone},
		termsRule,
	)
	return Flow{
		Name: FlowRegisterUser,
		Kind: SubmitUserRegistration,
		Steps: []Step{
			{Name: "details", Fields: details},
			{Name: "address", Fields: address},
			{Name: "plan", Fields: required("plan")},
			{Name: StepConfirmation},
		},
	}
}

// EnterpriseRegistrationFlow: empresa → administrador → confirmação.
func EnterpriseRegistrationFlow(opts FlowOptions) Flow {
	company := append(required("companyName"),
		FieldRule{Path: "cnpj", Tags: requiredText + "," + utils.TagCNPJ},
		FieldRule{Path: "corporateEmail", Tags: requiredText + "," + utils.TagEmailShape},
		FieldRule{Path: "industry", Tags: requiredText},
		FieldRule{Path: "companyPhone", Tags: requiredText + "," + utils.TagBRPhone},
	)
	company = append(company, required("address.country", "address.state", "address.city", "address.street", "address.number")...)

	admin := append(required("adminFirstName", "adminLastName"),
		FieldRule{Path: "adminPhone", Tags: requiredText + "," + utils.TagBRPhone},
		FieldRule{Path: "password", Tags: opts.passwordTags()},
		termsRule,
	)
	return Flow{
		Name: FlowRegisterEnterprise,
		Kind: SubmitEnterpriseRegistration,
		Steps: []Step{
			{Name: "company", Fields: company},
			{Name: "admin", Fields: admin},
			{Name: StepConfirmation},
		},
	}
}

func importDetailsRules() []FieldRule {
	return required("title", "origin", "destination")
}

func productRules() []FieldRule {
	return []FieldRule{
		{Path: "product.link", Tags: requiredText + "," + utils.TagAbsURL},
		{Path: "product.value", Tags: requiredText + "," + utils.TagMoney},
		{Path: "product.category", Tags: requiredText},
		{Path: "product.originCountry", Tags: requiredText},
	}
}

// ImportFlow é o wizard completo da página de nova importação.
func ImportFlow(FlowOptions) Flow {
	return Flow{
		Name: FlowImport,
		Kind: SubmitImportCreation,
		Steps: []Step{
			{Name: "details", Fields: importDetailsRules()},
			{Name: "address", Fields: addressRules()},
			{Name: "product", Fields: productRules()},
			{Name: "payment", Fields: paymentRules()},
			{Name: "review", Fields: []FieldRule{termsRule}},
			{Name: StepConfirmation},
		},
	}
}

// ImportModalFlow é a variante curta usada no modal de nova importação.
func ImportModalFlow(FlowOptions) Flow {
	details := append(importDetailsRules(),
		FieldRule{Path: "product.link", Tags: requiredText + "," + utils.TagAbsURL},
		FieldRule{Path: "product.value", Tags: requiredText + "," + utils.TagMoney},
	)
	return Flow{
		Name: FlowImportModal,
		Kind: SubmitImportCreation,
		Steps: []Step{
			{Name: "details", Fields: details},
			{Name: "payment", Fields: append(paymentRules(), termsRule)},
			{Name: StepConfirmation},
		},
	}
}

// Flows monta o catálogo de fluxos conhecidos.
func Flows(opts FlowOptions) map[FlowName]Flow {
	return map[FlowName]Flow{
		FlowRegisterUser:       UserRegistrationFlow(opts),
		FlowRegisterEnterprise: EnterpriseRegistrationFlow(opts),
		FlowImport:             ImportFlow(opts),
		FlowImportModal:        ImportModalFlow(opts),
	}
}
