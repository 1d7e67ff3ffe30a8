package auth

import (
	"fmt"
	"net/http"
	"strings"

	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
)

// PrincipalType distingue conta de empresa e conta individual.
type PrincipalType string

const (
	PrincipalCompany PrincipalType = "company"
	PrincipalUser    PrincipalType = "user"
)

// Cabeçalhos de identidade aceitos pelo backend.
const (
	HeaderCompanyID = "company-id"
	HeaderUserID    = "user-id"
)

// Principal é a identidade autenticada em nome de quem as chamadas são feitas.
// A autenticação em si é externa: aqui só circulam o id e o tipo.
type Principal struct {
	ID   string        `json:"id"`
	Type PrincipalType `json:"type"`
}

// IsZero indica ausência de principal (ex: cadastro anônimo).
func (p Principal) IsZero() bool {
	return p.ID == ""
}

// HeaderName devolve o cabeçalho de identidade correspondente ao tipo da conta.
func (p Principal) HeaderName() string {
	if p.Type == PrincipalCompany {
		return HeaderCompanyID
	}
	return HeaderUserID
}

// Apply grava o cabeçalho de identidade na requisição. Principal vazio não grava nada.
func (p Principal) Apply(h http.Header) {
	if p.IsZero() {
		return
	}
	h.Set(p.HeaderName(), p.ID)
}

// String é usado em logs.
func (p Principal) String() string {
	if p.IsZero() {
		return "anônimo"
	}
	return fmt.Sprintf("%s:%s", p.Type, p.ID)
}

// PrincipalFromHeaders lê o principal dos cabeçalhos company-id ou user-id.
// Com os dois presentes, company-id prevalece.
func PrincipalFromHeaders(h http.Header) (Principal, error) {
	if id := strings.TrimSpace(h.Get(HeaderCompanyID)); id != "" {
		return Principal{ID: id, Type: PrincipalCompany}, nil
	}
	if id := strings.TrimSpace(h.Get(HeaderUserID)); id != "" {
		return Principal{ID: id, Type: PrincipalUser}, nil
	}
	return Principal{}, fmt.Errorf("%w: informe o cabeçalho %s ou %s", appErrors.ErrUnauthorized, HeaderCompanyID, HeaderUserID)
}
