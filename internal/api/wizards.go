package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/samber/lo"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/submission"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/wizard"
)

// maxBodyBytes limita o corpo JSON aceito pelos handlers de wizard.
const maxBodyBytes = 64 << 10

// FlowInfo descreve um fluxo disponível.
type FlowInfo struct {
	Name  wizard.FlowName `json:"name"`
	Steps []string        `json:"steps"`
}

// WizardResponse é a resposta padrão das rotas de wizard.
type WizardResponse struct {
	ID         string             `json:"id"`
	Wizard     wizard.Snapshot    `json:"wizard"`
	Values     map[string]any     `json:"values,omitempty"`
	Submission *submission.Result `json:"submission,omitempty"`
}

// SubmissionFailure é o corpo devolvido quando o backend recusa a submissão.
type SubmissionFailure struct {
	ErrorResponse
	Wizard     wizard.Snapshot    `json:"wizard"`
	Submission *submission.Result `json:"submission,omitempty"`
}

type createWizardRequest struct {
	Flow wizard.FlowName `json:"flow"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: corpo JSON inválido: %v", appErrors.ErrInvalidInput, err)
	}
	return nil
}

func (s *Server) listFlows(w http.ResponseWriter, _ *http.Request) {
	names := lo.Keys(s.deps.Flows)
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	respondJSON(w, http.StatusOK, lo.Map(names, func(n wizard.FlowName, _ int) FlowInfo {
		return FlowInfo{Name: n, Steps: s.deps.Flows[n].StepNames()}
	}))
}

func (s *Server) createWizard(w http.ResponseWriter, r *http.Request) {
	var req createWizardRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	flow, ok := s.deps.Flows[req.Flow]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("fluxo desconhecido: %q", req.Flow))
		return
	}

	owner := principalOf(r)
	if flow.Kind == wizard.SubmitImportCreation && owner.IsZero() {
		writeDomainError(w, r, appErrors.ErrUnauthorized)
		return
	}

	session := s.deps.Sessions.CreateSession(owner, wizard.New(flow, s.deps.Validate))
	respondJSON(w, http.StatusCreated, WizardResponse{ID: session.ID, Wizard: session.Wizard.Snapshot()})
}

// session busca o wizard do principal da requisição. Em caso de erro a resposta já foi escrita.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*auth.SessionData, bool) {
	session, err := s.deps.Sessions.GetSession(r.PathValue("id"), principalOf(r))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return session, true
}

func (s *Server) getWizard(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, WizardResponse{ID: session.ID, Wizard: session.Wizard.Snapshot()})
}

// fieldValue normaliza o valor vindo do JSON para o que o FormState aceita (texto ou booleano).
func fieldValue(v any) any {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return v
}

func (s *Server) setFields(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if err := decodeBody(w, r, &fields); err != nil {
		writeDomainError(w, r, err)
		return
	}

	values, err := session.Wizard.SetMany(lo.MapValues(fields, func(v any, _ string) any { return fieldValue(v) }))
	var rejected *wizard.RejectedFieldsError
	switch {
	case errors.As(err, &rejected):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "Campos desconhecidos ou com tipo inválido; nenhum campo foi gravado.",
			Code:   http.StatusBadRequest,
			Fields: rejected.Fields,
		})
		return
	case err != nil:
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, WizardResponse{ID: session.ID, Wizard: session.Wizard.Snapshot(), Values: values})
}

func (s *Server) advanceWizard(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	err := session.Wizard.Advance()
	if err == nil {
		respondJSON(w, http.StatusOK, WizardResponse{ID: session.ID, Wizard: session.Wizard.Snapshot()})
		return
	}
	if !errors.Is(err, wizard.ErrSubmissionRequired) {
		s.writeWizardError(w, r, session, err)
		return
	}

	res, err := s.deps.Orchestrator.Submit(r.Context(), session.Wizard, session.Owner)
	if err != nil && res == nil {
		s.writeWizardError(w, r, session, err)
		return
	}
	if err != nil {
		status := statusFor(err)
		if res.FieldErrors.HasErrors() {
			status = http.StatusUnprocessableEntity
		}
		respondJSON(w, status, SubmissionFailure{
			ErrorResponse: ErrorResponse{Error: res.GeneralError, Code: status, Fields: res.FieldErrors},
			Wizard:        session.Wizard.Snapshot(),
			Submission:    res,
		})
		return
	}
	respondJSON(w, http.StatusOK, WizardResponse{ID: session.ID, Wizard: session.Wizard.Snapshot(), Submission: res})
}

// writeWizardError responde erros de validação junto com o snapshot, para a UI manter o passo.
func (s *Server) writeWizardError(w http.ResponseWriter, r *http.Request, session *auth.SessionData, err error) {
	var ve *appErrors.ValidationError
	if !errors.As(err, &ve) {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusUnprocessableEntity, SubmissionFailure{
		ErrorResponse: ErrorResponse{Error: ve.Message, Code: http.StatusUnprocessableEntity, Fields: wizard.FieldErrorMap(ve.Fields)},
		Wizard:        session.Wizard.Snapshot(),
	})
}

func (s *Server) regressWizard(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	// Voltar no primeiro passo ou na confirmação não faz nada.
	session.Wizard.Regress()
	respondJSON(w, http.StatusOK, WizardResponse{ID: session.ID, Wizard: session.Wizard.Snapshot()})
}

func (s *Server) dismissWizard(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.DeleteSession(r.PathValue("id"), principalOf(r)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
