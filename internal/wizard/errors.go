package wizard

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrorMap mapeia o dot-path de um campo para a mensagem de erro.
// Ausência de entrada (ou string vazia) significa campo sem erro.
type FieldErrorMap map[string]string

// Set grava a mensagem do campo; mensagem vazia remove a entrada.
func (m FieldErrorMap) Set(field, message string) {
	if message == "" {
		delete(m, field)
		return
	}
	m[field] = message
}

// Clear remove o erro do campo.
func (m FieldErrorMap) Clear(field string) {
	delete(m, field)
}

// Get devolve a mensagem do campo, ou "".
func (m FieldErrorMap) Get(field string) string {
	return m[field]
}

// HasErrors indica se alguma entrada não vazia bloqueia o avanço.
func (m FieldErrorMap) HasErrors() bool {
	for _, msg := range m {
		if msg != "" {
			return true
		}
	}
	return false
}

// Clone devolve uma cópia independente (nunca nil).
func (m FieldErrorMap) Clone() FieldErrorMap {
	out := make(FieldErrorMap, len(m))
	for k, v := range m {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// RejectedFieldsError lista os campos recusados por SetMany (desconhecidos ou com tipo
// inválido). Nenhum campo da chamada foi gravado.
type RejectedFieldsError struct {
	Fields FieldErrorMap
	first  error
}

func (e *RejectedFieldsError) add(path string, err error) {
	e.Fields.Set(path, err.Error())
	if e.first == nil {
		e.first = err
	}
}

func (e *RejectedFieldsError) Error() string {
	paths := make([]string, 0, len(e.Fields))
	for p := range e.Fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return fmt.Sprintf("campos recusados: %s", strings.Join(paths, ", "))
}

// Unwrap devolve o primeiro erro, que envolve errors.ErrInvalidInput.
func (e *RejectedFieldsError) Unwrap() error {
	return e.first
}
