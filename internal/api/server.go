// Package api expõe os wizards, a lista de importações e o log de submissões como JSON sobre HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/services"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/submission"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/wizard"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Dependencies reúne o que os handlers usam. Imports e Submissions são opcionais:
// sem eles as rotas correspondentes não são registradas.
type Dependencies struct {
	Sessions     *auth.SessionManager
	Orchestrator *submission.Orchestrator
	Flows        map[wizard.FlowName]wizard.Flow
	Validate     *validator.Validate
	Imports      services.ImportService
	Submissions  services.SubmissionLogService
	// Health, quando presente, é consultado pelo /healthz (ex: ping do banco).
	Health func(ctx context.Context) error

	AllowedOrigins []string
}

// Server guarda as dependências dos handlers HTTP.
type Server struct {
	deps Dependencies
}

// New cria o Server. Sessions, Orchestrator, Flows e Validate são obrigatórios.
func New(deps Dependencies) (*Server, error) {
	if deps.Sessions == nil || deps.Orchestrator == nil || deps.Validate == nil || len(deps.Flows) == 0 {
		return nil, errors.New("api: sessions, orchestrator, flows e validate são obrigatórios")
	}
	return &Server{deps: deps}, nil
}

// Handler monta as rotas com log de requisições e, se houver origens configuradas, CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	handler := requestLogger(mux)
	if len(s.deps.AllowedOrigins) > 0 {
		handler = corsMiddleware(s.deps.AllowedOrigins)(handler)
	}
	return handler
}

// RegisterRoutes registra todas as rotas no mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /flows", s.listFlows)

	mux.HandleFunc("POST /wizards", s.createWizard)
	mux.HandleFunc("GET /wizards/{id}", s.getWizard)
	mux.HandleFunc("PATCH /wizards/{id}/fields", s.setFields)
	mux.HandleFunc("POST /wizards/{id}/advance", s.advanceWizard)
	mux.HandleFunc("POST /wizards/{id}/back", s.regressWizard)
	mux.HandleFunc("DELETE /wizards/{id}", s.dismissWizard)

	if s.deps.Imports != nil {
		mux.HandleFunc("GET /imports", s.listImports)
		mux.HandleFunc("GET /imports/{id}", s.getImport)
	}
	if s.deps.Submissions != nil {
		mux.HandleFunc("GET /submissions", s.listSubmissions)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	payload := map[string]any{
		"status":  "ok",
		"wizards": s.deps.Sessions.Count(),
	}
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			appLogger.Errorf("Verificação de saúde falhou: %v", err)
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
		}
	}
	respondJSON(w, status, payload)
}

// ErrorResponse é o corpo de qualquer resposta de erro.
type ErrorResponse struct {
	Error  string               `json:"error"`
	Code   int                  `json:"code"`
	Fields wizard.FieldErrorMap `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		appLogger.Errorf("Falha ao escrever resposta JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg, Code: status})
}

// statusFor traduz os erros do domínio para o status HTTP.
func statusFor(err error) int {
	var ve *appErrors.ValidationError
	var se *appErrors.SubmissionError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &se):
		switch {
		case se.HasFieldErrors():
			return http.StatusUnprocessableEntity
		case se.StatusCode == http.StatusNotFound:
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, appErrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, appErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, appErrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, appErrors.ErrSubmissionInFlight),
		errors.Is(err, appErrors.ErrWizardCompleted),
		errors.Is(err, appErrors.ErrNotSubmissionStep):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError responde com o status de statusFor. Erros 5xx não vazam detalhes internos.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: status}

	var ve *appErrors.ValidationError
	if errors.As(err, &ve) {
		resp.Error = ve.Message
		resp.Fields = wizard.FieldErrorMap(ve.Fields)
	}
	if status >= http.StatusInternalServerError {
		appLogger.WithFields(logrus.Fields{"path": r.URL.Path, "method": r.Method}).Errorf("Erro ao atender requisição: %v", err)
		if status == http.StatusInternalServerError {
			resp.Error = "Erro interno."
		}
	}
	respondJSON(w, status, resp)
}

// principalOf lê o principal dos cabeçalhos; sem cabeçalho devolve o principal vazio (anônimo).
func principalOf(r *http.Request) auth.Principal {
	p, err := auth.PrincipalFromHeaders(r.Header)
	if err != nil {
		return auth.Principal{}
	}
	return p
}

// requirePrincipal escreve 401 e devolve false quando a requisição não identifica um principal.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, err := auth.PrincipalFromHeaders(r.Header)
	if err != nil {
		writeDomainError(w, r, err)
		return auth.Principal{}, false
	}
	return p, true
}

func parseIntParam(r *http.Request, name string, defaultVal, maxVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLogger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Requisição concluída.")
	})
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := lo.SliceToMap(
		lo.Compact(lo.Map(allowedOrigins, func(o string, _ int) string { return strings.TrimSpace(o) })),
		func(o string) (string, bool) { return o, true },
	)
	allowHeaders := strings.Join([]string{"Content-Type", auth.HeaderCompanyID, auth.HeaderUserID, services.HeaderIdempotencyKey}, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!allowed[origin] && !allowed["*"]) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
