package wizard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
)

var testFlows = Flows(FlowOptions{PasswordMinLength: 8})

func newTestWizard(name FlowName) *Wizard {
	return New(testFlows[name], utils.NewValidator(utils.ValidatorOptions{}))
}

func fill(t *testing.T, w *Wizard, values map[string]interface{}) {
	t.Helper()
	for path, v := range values {
		_, err := w.Set(path, v)
		require.NoError(t, err, "campo %s", path)
	}
}

var (
	userDetails = map[string]interface{}{
		"fullName":   "Ana",
		"lastName":   "Souza",
		"email":      "ana@example.com",
		"cpf":        "52998224725",
		"birthDate":  "1990-04-12",
		"occupation": "Engenheira",
		"password":   "segredo123",
	}
	userAddress = map[string]interface{}{
		"address.street":  "Rua das Flores",
		"address.number":  "100",
		"address.city":    "Porto Alegre",
		"address.state":   "RS",
		"address.zipCode": "90010000",
		"address.country": "Brasil",
		"phone":           "51987654321",
		"agreeTerms":      true,
	}
)

func TestAdvance_EmptyStepIsRejected(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)

	err := w.Advance()
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	var ve *appErrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Campo obrigatório.", ve.Fields["fullName"])
	assert.Equal(t, "Campo obrigatório.", ve.Fields["cpf"])
	assert.Equal(t, "details", w.StepName())
	assert.Equal(t, "Campo obrigatório.", w.Errors().Get("email"))
}

func TestAdvance_FieldSpecificMessages(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)
	fill(t, w, userDetails)
	fill(t, w, map[string]interface{}{"cpf": "11111111111", "password": "curta", "email": "ana@"})

	err := w.Advance()
	require.Error(t, err)

	errs := w.Errors()
	assert.Equal(t, "CPF inválido.", errs.Get("cpf"))
	assert.Equal(t, "Deve ter pelo menos 8 caracteres.", errs.Get("password"))
	assert.Equal(t, "E-mail inválido.", errs.Get("email"))
	assert.Empty(t, errs.Get("fullName"))
}

func TestSet_FormatsAndClearsFieldError(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)
	require.Error(t, w.Advance())
	require.NotEmpty(t, w.Errors().Get("cpf"))

	stored, err := w.Set("cpf", "52998224725")
	require.NoError(t, err)
	assert.Equal(t, "529.982.247-25", stored)
	assert.Empty(t, w.Errors().Get("cpf"))
	assert.NotEmpty(t, w.Errors().Get("fullName"), "outros erros permanecem")
}

func TestSet_UnknownFieldAndWrongType(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)

	_, err := w.Set("naoExiste", "x")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInput))

	_, err = w.Set("agreeTerms", 42)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInput))

	_, err = w.Set("fullName", true)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInput))

	v, err := w.Set("agreeTerms", "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestSetMany_AllOrNothing(t *testing.T) {
	w := newTestWizard(FlowImportModal)
	require.Error(t, w.Advance())
	require.NotEmpty(t, w.Errors().Get("title"))

	_, err := w.SetMany(map[string]interface{}{"title": "X", "shoeSize": "1", "agreeTerms": 3})
	var rejected *RejectedFieldsError
	require.ErrorAs(t, err, &rejected)
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
	assert.Contains(t, rejected.Fields, "shoeSize")
	assert.Contains(t, rejected.Fields, "agreeTerms")
	assert.NotContains(t, rejected.Fields, "title")

	assert.Empty(t, w.Form().Title, "lote recusado não grava nada")
	assert.NotEmpty(t, w.Errors().Get("title"), "erro do campo continua até uma gravação válida")

	stored, err := w.SetMany(map[string]interface{}{"title": "X", "agreeTerms": "true"})
	require.NoError(t, err)
	assert.Equal(t, "X", stored["title"])
	assert.Equal(t, true, stored["agreeTerms"])
	assert.Equal(t, "X", w.Form().Title)
	assert.Empty(t, w.Errors().Get("title"))
}

func TestRegress(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)
	assert.False(t, w.Regress(), "primeiro passo não volta")

	fill(t, w, userDetails)
	require.NoError(t, w.Advance())
	assert.Equal(t, "address", w.StepName())

	// Voltar não exige validação do passo atual.
	assert.True(t, w.Regress())
	assert.Equal(t, "details", w.StepName())
}

func TestProgress(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)
	assert.Equal(t, 0, w.Progress())

	fill(t, w, map[string]interface{}{"agreeTerms": true})
	assert.Equal(t, 10, w.Progress(), "termos valem 10%")

	fill(t, w, userDetails)
	fill(t, w, userAddress)
	fill(t, w, map[string]interface{}{"plan": "premium"})
	assert.Equal(t, 100, w.Progress())

	// Campos fora do passo atual também contam.
	_, err := w.Set("plan", "")
	require.NoError(t, err)
	assert.Less(t, w.Progress(), 100)
	assert.Greater(t, w.Progress(), 10)
}

func TestProgress_ConditionalPaymentFields(t *testing.T) {
	w := newTestWizard(FlowImportModal)
	fill(t, w, map[string]interface{}{
		"title":         "Notebook",
		"origin":        "EUA",
		"destination":   "Brasil",
		"product.link":  "https://loja.example.com/item/1",
		"product.value": "1234,50",
		"agreeTerms":    true,
	})
	assert.Equal(t, 100, w.Progress(), "pagamento com saldo não exige cartão")

	fill(t, w, map[string]interface{}{"paymentMethod": PaymentExternal})
	assert.Less(t, w.Progress(), 100, "cartão passa a ser obrigatório")
}

func TestRegisterUser_EndToEnd(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)

	fill(t, w, userDetails)
	require.NoError(t, w.Advance())

	fill(t, w, userAddress)
	require.NoError(t, w.Advance())
	assert.Equal(t, "plan", w.StepName())

	// Sem plano, o passo de submissão não valida.
	_, err := w.BeginSubmit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	fill(t, w, map[string]interface{}{"plan": "premium"})
	assert.ErrorIs(t, w.Advance(), ErrSubmissionRequired)
	assert.Equal(t, "plan", w.StepName())

	ticket, err := w.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, "529.982.247-25", ticket.Form.CPF)
	assert.True(t, w.Snapshot().Submitting)

	_, err = w.BeginSubmit()
	assert.ErrorIs(t, err, appErrors.ErrSubmissionInFlight)

	require.True(t, w.CompleteSubmit(ticket, ""))
	snap := w.Snapshot()
	assert.Equal(t, StepConfirmation, snap.Step)
	assert.True(t, snap.Completed)
	assert.False(t, snap.Submitting)
	assert.Equal(t, "********", snap.Form.Password)
	assert.Nil(t, snap.Fee)

	assert.False(t, w.Regress(), "confirmação é terminal")
	_, err = w.Set("fullName", "Outra")
	assert.ErrorIs(t, err, appErrors.ErrWizardCompleted)
	assert.ErrorIs(t, w.Advance(), appErrors.ErrWizardCompleted)
}

func TestBeginSubmit_OnlyAtSubmissionStep(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)
	_, err := w.BeginSubmit()
	assert.ErrorIs(t, err, appErrors.ErrNotSubmissionStep)
}

func TestFailSubmit_KeepsStepAndMapsErrors(t *testing.T) {
	w := newTestWizard(FlowRegisterEnterprise)
	fill(t, w, map[string]interface{}{
		"companyName":     "Importadora Sul",
		"cnpj":            "11222333000181",
		"corporateEmail":  "contato@sul.com.br",
		"industry":        "Varejo",
		"companyPhone":    "5133334444",
		"address.country": "Brasil",
		"address.state":   "RS",
		"address.city":    "Porto Alegre",
		"address.street":  "Av. Ipiranga",
		"address.number":  "2000",
	})
	require.NoError(t, w.Advance())
	fill(t, w, map[string]interface{}{
		"adminFirstName": "Carlos",
		"adminLastName":  "Lima",
		"adminPhone":     "51999998888",
		"password":       "segredo123",
		"agreeTerms":     true,
	})

	ticket, err := w.BeginSubmit()
	require.NoError(t, err)
	require.True(t, w.FailSubmit(ticket, FieldErrorMap{"cnpj": "CNPJ já cadastrado."}, ""))

	snap := w.Snapshot()
	assert.Equal(t, "admin", snap.Step)
	assert.False(t, snap.Submitting)
	assert.Equal(t, "CNPJ já cadastrado.", snap.Errors["cnpj"])

	// Nova tentativa é permitida após a falha.
	_, err = w.BeginSubmit()
	assert.NoError(t, err)
}

func TestReset_DiscardsInFlightResult(t *testing.T) {
	w := newTestWizard(FlowImportModal)
	fill(t, w, map[string]interface{}{
		"title":         "Notebook",
		"origin":        "EUA",
		"destination":   "Brasil",
		"product.link":  "https://loja.example.com/item/1",
		"product.value": "100",
	})
	require.NoError(t, w.Advance())
	fill(t, w, map[string]interface{}{"agreeTerms": true})

	ticket, err := w.BeginSubmit()
	require.NoError(t, err)

	w.Reset()
	assert.False(t, w.CompleteSubmit(ticket, "imp-1"))

	snap := w.Snapshot()
	assert.Equal(t, 0, snap.StepIndex)
	assert.Empty(t, snap.ResourceID)
	assert.Empty(t, snap.Form.Title)
	assert.Equal(t, PaymentBalance, snap.Form.Payment.Method)
	assert.Equal(t, 0, snap.Progress)
}

func TestImportModal_ExternalCardRequiresCardFields(t *testing.T) {
	w := newTestWizard(FlowImportModal)
	fill(t, w, map[string]interface{}{
		"title":         "Notebook",
		"origin":        "EUA",
		"destination":   "Brasil",
		"product.link":  "https://loja.example.com/item/1",
		"product.value": "1234.5",
	})
	require.NoError(t, w.Advance())

	fill(t, w, map[string]interface{}{"paymentMethod": PaymentExternal, "externalMethod": ExternalCredit, "agreeTerms": true})
	require.Error(t, w.Advance())
	errs := w.Errors()
	assert.Equal(t, "Campo obrigatório.", errs.Get("creditCard.number"))
	assert.Equal(t, "Campo obrigatório.", errs.Get("creditCard.cvc"))

	snap := w.Snapshot()
	require.NotNil(t, snap.Fee)
	assert.Equal(t, "24.69", snap.Fee.Fee.StringFixed(2))
	assert.Equal(t, "1259.19", snap.Fee.Total.StringFixed(2))

	// Trocar para PayPal troca os campos exigidos.
	fill(t, w, map[string]interface{}{"externalMethod": ExternalPayPal, "paypalEmail": "x@"})
	require.Error(t, w.Advance())
	errs = w.Errors()
	assert.Empty(t, errs.Get("creditCard.number"))
	assert.Equal(t, "E-mail do PayPal inválido.", errs.Get("paypalEmail"))
}

func TestImportFlow_ProductValidation(t *testing.T) {
	w := newTestWizard(FlowImport)
	fill(t, w, map[string]interface{}{"title": "Câmera", "origin": "Japão", "destination": "Brasil"})
	require.NoError(t, w.Advance())
	fill(t, w, userAddress)
	require.NoError(t, w.Advance())
	assert.Equal(t, "product", w.StepName())

	fill(t, w, map[string]interface{}{
		"product.link":          "loja.example.com",
		"product.value":         "0",
		"product.category":      "Eletrônicos",
		"product.originCountry": "Japão",
	})
	require.Error(t, w.Advance())
	errs := w.Errors()
	assert.Equal(t, "Informe um link válido (ex: https://...).", errs.Get("product.link"))
	assert.Equal(t, "Informe um valor maior que zero.", errs.Get("product.value"))
}

func TestFormatters_AppliedOnSet(t *testing.T) {
	w := newTestWizard(FlowImportModal)
	cases := map[string]string{
		"creditCard.number": "4111111111111111",
		"creditCard.expiry": "1229",
		"creditCard.cvc":    "12345",
		"address.zipCode":   "01001000",
	}
	want := map[string]string{
		"creditCard.number": "4111 1111 1111 1111",
		"creditCard.expiry": "12/29",
		"creditCard.cvc":    "1234",
		"address.zipCode":   "01001-000",
	}
	for path, raw := range cases {
		got, err := w.Set(path, raw)
		require.NoError(t, err)
		assert.Equal(t, want[path], got, path)
	}
}

func TestRegress_ConfirmationIsTerminal(t *testing.T) {
	w := newTestWizard(FlowRegisterUser)
	fill(t, w, userDetails)
	require.NoError(t, w.Advance())
	fill(t, w, userAddress)
	require.NoError(t, w.Advance())
	fill(t, w, map[string]interface{}{"plan": "premium"})

	ticket, err := w.BeginSubmit()
	require.NoError(t, err)
	require.True(t, w.CompleteSubmit(ticket, "u-1"))

	before := w.Snapshot()
	require.Equal(t, StepConfirmation, before.Step)

	// A confirmação não volta: o cadastro já existe no backend.
	assert.False(t, w.Regress())
	after := w.Snapshot()
	assert.Equal(t, StepConfirmation, after.Step)
	assert.Equal(t, before.StepIndex, after.StepIndex)
	assert.True(t, after.Completed)
	assert.Equal(t, "u-1", after.ResourceID)
}
