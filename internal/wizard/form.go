package wizard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
)

// Valores de paymentMethod e externalMethod.
const (
	PaymentBalance  = "balance"
	PaymentExternal = "external"

	ExternalCredit = "credit"
	ExternalDebit  = "debit"
	ExternalPayPal = "paypal"
	ExternalPix    = "pix"
)

// Address é o sub-registro de endereço.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Country      string `json:"country"`
}

// CreditCard é o sub-registro do cartão (crédito ou débito).
type CreditCard struct {
	Number   string `json:"number"`
	Expiry   string `json:"expiry"`
	CVC      string `json:"cvc"`
	Name     string `json:"name"`
	SaveCard bool   `json:"saveCard"`
}

// Payment é o sub-registro de pagamento.
type Payment struct {
	Method         string     `json:"paymentMethod"`
	ExternalMethod string     `json:"externalMethod"`
	CreditCard     CreditCard `json:"creditCard"`
	PayPalEmail    string     `json:"paypalEmail"`
}

// Product é o sub-registro do produto a importar.
type Product struct {
	Link          string `json:"link"`
	Value         string `json:"value"`
	Category      string `json:"category"`
	OriginCountry string `json:"originCountry"`
}

// FormState é o registro mutável de todos os campos de uma instância de wizard.
type FormState struct {
	// Identidade (pessoa física)
	FullName   string `json:"fullName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	CPF        string `json:"cpf"`
	Phone      string `json:"phone"`
	BirthDate  string `json:"birthDate"`
	Occupation string `json:"occupation"`
	Role       string `json:"role"`
	Plan       string `json:"plan"`

	// Identidade (empresa)
	CompanyName        string `json:"companyName"`
	CNPJ               string `json:"cnpj"`
	CorporateEmail     string `json:"corporateEmail"`
	AdminFirstName     string `json:"adminFirstName"`
	AdminLastName      string `json:"adminLastName"`
	Industry           string `json:"industry"`
	AdminPhone         string `json:"adminPhone"`
	CompanyPhone       string `json:"companyPhone"`
	HasPurchaseManager bool   `json:"hasPurchaseManager"`

	// Importação
	Title       string `json:"title"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	Address Address `json:"address"`
	Payment Payment `json:"payment"`
	Product Product `json:"product"`

	AgreeTerms bool `json:"agreeTerms"`
}

// NewFormState devolve o estado inicial de um wizard recém-montado.
func NewFormState() FormState {
	return FormState{
		Payment: Payment{
			Method:         PaymentBalance,
			ExternalMethod: ExternalCredit,
		},
	}
}

// UsesCard indica se os campos do cartão são obrigatórios.
func (f *FormState) UsesCard() bool {
	return f.Payment.Method == PaymentExternal &&
		(f.Payment.ExternalMethod == ExternalCredit || f.Payment.ExternalMethod == ExternalDebit)
}

// UsesPayPal indica se o e-mail do PayPal é obrigatório.
func (f *FormState) UsesPayPal() bool {
	return f.Payment.Method == PaymentExternal && f.Payment.ExternalMethod == ExternalPayPal
}

// IsExternalPayment indica pagamento fora do saldo.
func (f *FormState) IsExternalPayment() bool {
	return f.Payment.Method == PaymentExternal
}

// Redacted devolve uma cópia sem senha e CVC, para snapshots e logs.
func (f FormState) Redacted() FormState {
	if f.Password != "" {
		f.Password = "********"
	}
	if f.Payment.CreditCard.CVC != "" {
		f.Payment.CreditCard.CVC = "***"
	}
	return f
}

// fieldAccessor liga um dot-path ao campo do FormState.
// Exatamente um de str ou flag é preenchido.
type fieldAccessor struct {
	str    func(f *FormState) *string
	flag   func(f *FormState) *bool
	format func(string) string
}

var fieldAccessors = map[string]fieldAccessor{
	"fullName":   {str: func(f *FormState) *string { return &f.FullName }},
	"lastName":   {str: func(f *FormState) *string { return &f.LastName }},
	"email":      {str: func(f *FormState) *string { return &f.Email }},
	"password":   {str: func(f *FormState) *string { return &f.Password }},
	"cpf":        {str: func(f *FormState) *string { return &f.CPF }, format: utils.FormatCPF},
	"phone":      {str: func(f *FormState) *string { return &f.Phone }, format: utils.FormatPhone},
	"birthDate":  {str: func(f *FormState) *string { return &f.BirthDate }},
	"occupation": {str: func(f *FormState) *string { return &f.Occupation }},
	"role":       {str: func(f *FormState) *string { return &f.Role }},
	"plan":       {str: func(f *FormState) *string { return &f.Plan }},

	"companyName":        {str: func(f *FormState) *string { return &f.CompanyName }},
	"cnpj":               {str: func(f *FormState) *string { return &f.CNPJ }, format: utils.FormatCNPJ},
	"corporateEmail":     {str: func(f *FormState) *string { return &f.CorporateEmail }},
	"adminFirstName":     {str: func(f *FormState) *string { return &f.AdminFirstName }},
	"adminLastName":      {str: func(f *FormState) *string { return &f.AdminLastName }},
	"industry":           {str: func(f *FormState) *string { return &f.Industry }},
	"adminPhone":         {str: func(f *FormState) *string { return &f.AdminPhone }, format: utils.FormatPhone},
	"companyPhone":       {str: func(f *FormState) *string { return &f.CompanyPhone }, format: utils.FormatPhone},
	"hasPurchaseManager": {flag: func(f *FormState) *bool { return &f.HasPurchaseManager }},

	"title":       {str: func(f *FormState) *string { return &f.Title }},
	"origin":      {str: func(f *FormState) *string { return &f.Origin }},
	"destination": {str: func(f *FormState) *string { return &f.Destination }},

	"address.street":       {str: func(f *FormState) *string { return &f.Address.Street }},
	"address.number":       {str: func(f *FormState) *string { return &f.Address.Number }},
	"address.complement":   {str: func(f *FormState) *string { return &f.Address.Complement }},
	"address.neighborhood": {str: func(f *FormState) *string { return &f.Address.Neighborhood }},
	"address.city":         {str: func(f *FormState) *string { return &f.Address.City }},
	"address.state":        {str: func(f *FormState) *string { return &f.Address.State }},
	"address.zipCode":      {str: func(f *FormState) *string { return &f.Address.ZipCode }, format: utils.FormatCEP},
	"address.country":      {str: func(f *FormState) *string { return &f.Address.Country }},

	"paymentMethod":       {str: func(f *FormState) *string { return &f.Payment.Method }},
	"externalMethod":      {str: func(f *FormState) *string { return &f.Payment.ExternalMethod }},
	"creditCard.number":   {str: func(f *FormState) *string { return &f.Payment.CreditCard.Number }, format: utils.FormatCardNumber},
	"creditCard.expiry":   {str: func(f *FormState) *string { return &f.Payment.CreditCard.Expiry }, format: utils.FormatCardExpiry},
	"creditCard.cvc":      {str: func(f *FormState) *string { return &f.Payment.CreditCard.CVC }, format: formatCVC},
	"creditCard.name":     {str: func(f *FormState) *string { return &f.Payment.CreditCard.Name }},
	"creditCard.saveCard": {flag: func(f *FormState) *bool { return &f.Payment.CreditCard.SaveCard }},
	"paypalEmail":         {str: func(f *FormState) *string { return &f.Payment.PayPalEmail }},

	"product.link":          {str: func(f *FormState) *string { return &f.Product.Link }},
	"product.value":         {str: func(f *FormState) *string { return &f.Product.Value }},
	"product.category":      {str: func(f *FormState) *string { return &f.Product.Category }},
	"product.originCountry": {str: func(f *FormState) *string { return &f.Product.OriginCountry }},

	"agreeTerms": {flag: func(f *FormState) *bool { return &f.AgreeTerms }},
}

// formatCVC mantém apenas até 4 dígitos.
func formatCVC(raw string) string {
	d := utils.OnlyDigits(raw)
	if len(d) > 4 {
		return d[:4]
	}
	return d
}

// FieldPaths lista todos os dot-paths conhecidos, em ordem alfabética.
func FieldPaths() []string {
	paths := make([]string, 0, len(fieldAccessors))
	for p := range fieldAccessors {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Value devolve o valor atual do campo (string ou bool).
func (f *FormState) Value(path string) (interface{}, error) {
	acc, ok := fieldAccessors[path]
	if !ok {
		return nil, fmt.Errorf("%w: campo desconhecido '%s'", appErrors.ErrInvalidInput, path)
	}
	if acc.flag != nil {
		return *acc.flag(f), nil
	}
	return *acc.str(f), nil
}

// set aplica o formatador do campo e grava o valor. Devolve o valor gravado.
func (f *FormState) set(path string, value interface{}) (interface{}, error) {
	acc, ok := fieldAccessors[path]
	if !ok {
		return nil, fmt.Errorf("%w: campo desconhecido '%s'", appErrors.ErrInvalidInput, path)
	}

	if acc.flag != nil {
		b, err := toBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: campo '%s' espera booleano: %v", appErrors.ErrInvalidInput, path, err)
		}
		*acc.flag(f) = b
		return b, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: campo '%s' espera texto, recebido %T", appErrors.ErrInvalidInput, path, value)
	}
	if acc.format != nil {
		s = acc.format(s)
	}
	*acc.str(f) = s
	return s, nil
}

func toBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("tipo %T", value)
	}
}

// isFilled é o critério de "preenchido" usado pelo progresso.
func isFilled(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return utils.IsFilled(t)
	case bool:
		return t
	default:
		return false
	}
}
