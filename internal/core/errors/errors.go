package errors

import (
	goerrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Erros sentinela pré-definidos para tipos comuns de falha na aplicação.
// Estes podem ser verificados usando errors.Is(err, ErrNotFound).
var (
	// --- Erros Gerais ---
	ErrInternal      = goerrors.New("erro interno da aplicação")
	ErrConfiguration = goerrors.New("erro de configuração da aplicação")

	// --- Erros de Autenticação ---
	ErrUnauthorized = goerrors.New("não autenticado") // Falta de principal (company-id / user-id)

	// --- Erros de Banco de Dados / Repositório ---
	ErrDatabase = goerrors.New("erro na operação com o banco de dados")
	ErrNotFound = goerrors.New("registro não encontrado")

	// --- Erros de Validação e Entrada ---
	ErrValidation   = goerrors.New("erro de validação nos dados fornecidos")
	ErrInvalidInput = goerrors.New("entrada de dados inválida ou mal formatada")

	// --- Erros do Wizard ---
	ErrWizardCompleted    = goerrors.New("wizard concluído: edições não são mais aceitas")
	ErrNotSubmissionStep  = goerrors.New("submissão só é permitida no passo anterior à confirmação")
	ErrSubmissionInFlight = goerrors.New("submissão já em andamento")

	// --- Erros de Integração ---
	ErrSubmission = goerrors.New("falha na submissão ao servidor")
	ErrExport     = goerrors.New("falha ao exportar dados")
)

// FallbackServerMessage é a mensagem geral usada quando a falha não traz uma mensagem utilizável.
const FallbackServerMessage = "Erro no servidor, tente novamente."

// ValidationError é um tipo de erro que contém detalhes sobre os campos que falharam na validação.
type ValidationError struct {
	// Message é uma mensagem geral sobre a falha de validação.
	Message string
	// Fields mapeia nomes de campos (dot-path) para suas respectivas mensagens de erro.
	Fields map[string]string
	// Underlying é o erro original que pode ter causado a falha de validação (opcional).
	Underlying error
}

// NewValidationError cria uma nova instância de ValidationError.
func NewValidationError(message string, fields map[string]string) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  fields,
	}
}

// Error implementa a interface error.
func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Message != "" {
		sb.WriteString(ve.Message)
	} else {
		sb.WriteString("Erro de validação")
	}

	if len(ve.Fields) > 0 {
		keys := make([]string, 0, len(ve.Fields))
		for field := range ve.Fields {
			keys = append(keys, field)
		}
		sort.Strings(keys) // Ordem estável para logs e testes
		fieldErrors := make([]string, 0, len(keys))
		for _, field := range keys {
			fieldErrors = append(fieldErrors, fmt.Sprintf("%s: %s", field, ve.Fields[field]))
		}
		sb.WriteString(" (Detalhes: ")
		sb.WriteString(strings.Join(fieldErrors, ", "))
		sb.WriteString(")")
	}
	if ve.Underlying != nil {
		sb.WriteString(fmt.Sprintf(" | Erro original: %v", ve.Underlying))
	}
	return sb.String()
}

// Unwrap retorna o erro encapsulado.
func (ve *ValidationError) Unwrap() error {
	return ve.Underlying
}

// Is permite que `errors.Is(err, ErrValidation)` funcione mesmo sem Underlying.
func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldError é um par {field, message} como devolvido pelo backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SubmissionError descreve uma submissão recusada pelo backend ou que não chegou até ele.
type SubmissionError struct {
	// StatusCode é o status HTTP recebido; 0 quando a falha foi de transporte.
	StatusCode int
	// Message é a mensagem geral (do servidor ou FallbackServerMessage).
	Message string
	// FieldErrors contém os erros por campo, com o path do servidor (ex: "addresses[0].zipcode").
	FieldErrors []FieldError
	Err         error
}

// Error implementa a interface error.
func (se *SubmissionError) Error() string {
	msg := se.Message
	if msg == "" {
		msg = FallbackServerMessage
	}
	if se.StatusCode > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, se.StatusCode)
	}
	if len(se.FieldErrors) > 0 {
		msg += fmt.Sprintf(" [%d erro(s) de campo]", len(se.FieldErrors))
	}
	if se.Err != nil {
		msg += fmt.Sprintf(": %v", se.Err)
	}
	return msg
}

// Unwrap retorna o erro de transporte original, se houver.
func (se *SubmissionError) Unwrap() error {
	return se.Err
}

// Is faz com que um *SubmissionError seja sempre considerado um ErrSubmission.
func (se *SubmissionError) Is(target error) bool {
	return target == ErrSubmission
}

// HasFieldErrors indica se o backend devolveu erros por campo.
func (se *SubmissionError) HasFieldErrors() bool {
	return len(se.FieldErrors) > 0
}

// DatabaseErrorDetail carrega mais informações sobre um erro de banco de dados.
type DatabaseErrorDetail struct {
	// Operation descreve a operação que estava sendo realizada (ex: "gravando submissão").
	Operation string
	Err       error
}

// NewDatabaseErrorDetail cria um novo DatabaseErrorDetail.
func NewDatabaseErrorDetail(operation string, originalErr error) *DatabaseErrorDetail {
	if originalErr == nil {
		originalErr = ErrDatabase
	}
	return &DatabaseErrorDetail{Operation: operation, Err: originalErr}
}

// Error implementa a interface error.
func (de *DatabaseErrorDetail) Error() string {
	return fmt.Sprintf("erro de banco de dados durante %s: %v", de.Operation, de.Err)
}

// Unwrap retorna o erro original do banco de dados.
func (de *DatabaseErrorDetail) Unwrap() error {
	return de.Err
}

// Is considera um DatabaseErrorDetail sempre um ErrDatabase.
func (de *DatabaseErrorDetail) Is(target error) bool {
	if target == ErrDatabase {
		return true
	}
	return goerrors.Is(de.Err, target)
}

// WrapErrorf cria um novo erro que envolve um erro existente com uma mensagem formatada,
// preservando o erro original para verificação com `errors.Is` e `errors.As`.
func WrapErrorf(originalErr error, format string, args ...interface{}) error {
	if originalErr == nil {
		return fmt.Errorf(format, args...)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), originalErr)
}
