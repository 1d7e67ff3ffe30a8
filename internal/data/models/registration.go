package models

// --- Corpos de requisição dos endpoints de cadastro do backend ---

// DefaultUserRole é o papel enviado quando o formulário não escolhe um.
const DefaultUserRole = "user"

// LoginRedirect é para onde o cliente vai após um cadastro aceito.
const LoginRedirect = "/login?registered=true"

// AddressCreate é um item de `addresses` no cadastro individual.
type AddressCreate struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zipcode"` // somente dígitos
	Country    string `json:"country"`
}

// UserRegistrationCreate é o corpo do POST de cadastro individual.
type UserRegistrationCreate struct {
	FullName   string          `json:"fullname"`
	Email      string          `json:"email"`
	Password   string          `json:"password"`
	CPF        string          `json:"cpf"`   // somente dígitos
	Phone      string          `json:"phone"` // somente dígitos
	Occupation string          `json:"occupation"`
	Role       string          `json:"role"`
	Addresses  []AddressCreate `json:"addresses"`
}

// EnterpriseRegistrationCreate é o corpo do POST de cadastro de empresa.
// Os campos espelham o formulário, sem renomear.
type EnterpriseRegistrationCreate struct {
	CompanyName        string `json:"companyName"`
	CNPJ               string `json:"cnpj"`
	CorporateEmail     string `json:"corporateEmail"`
	AdminFirstName     string `json:"adminFirstName"`
	AdminLastName      string `json:"adminLastName"`
	Industry           string `json:"industry"`
	Country            string `json:"country"`
	State              string `json:"state"`
	City               string `json:"city"`
	Street             string `json:"street"`
	Number             string `json:"number"`
	AdminPhone         string `json:"adminPhone"`
	CompanyPhone       string `json:"companyPhone"`
	Password           string `json:"password"`
	AgreeTerms         bool   `json:"agreeTerms"`
	HasPurchaseManager bool   `json:"hasPurchaseManager"`
}

// RegistrationResult é o resultado de um cadastro aceito.
type RegistrationResult struct {
	RedirectTo string `json:"redirectTo"`
}
