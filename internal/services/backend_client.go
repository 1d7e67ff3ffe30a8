package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
)

// HeaderIdempotencyKey é enviado quando a submissão carrega uma chave de idempotência.
const HeaderIdempotencyKey = "Idempotency-Key"

// maxErrorBodyBytes limita a leitura do corpo de respostas de erro.
const maxErrorBodyBytes = 64 << 10

// RequestOptions são opções por chamada de escrita.
type RequestOptions struct {
	IdempotencyKey string
}

// BackendClient é o cliente dos endpoints externos de cadastro e importação.
// Respostas não-2xx viram *errors.SubmissionError; falhas de transporte também,
// com StatusCode 0 e a mensagem geral padrão.
type BackendClient interface {
	RegisterUser(ctx context.Context, payload models.UserRegistrationCreate, opts RequestOptions) (*models.RegistrationResult, error)
	RegisterEnterprise(ctx context.Context, payload models.EnterpriseRegistrationCreate, opts RequestOptions) (*models.RegistrationResult, error)
	CreateImport(ctx context.Context, p auth.Principal, payload models.ImportCreate, opts RequestOptions) (*models.ImportPublic, error)
	ListImports(ctx context.Context, p auth.Principal) ([]models.ImportPublic, error)
	GetImport(ctx context.Context, p auth.Principal, id string) (*models.ImportPublic, error)
}

type httpBackendClient struct {
	baseURL                string
	userRegisterPath       string
	enterpriseRegisterPath string
	importsPath            string
	http                   *http.Client
}

// NewHTTPBackendClient cria o cliente a partir da configuração.
// httpClient nil usa um cliente com o timeout de APP_BACKEND_TIMEOUT.
func NewHTTPBackendClient(cfg *config.Config, httpClient *http.Client) BackendClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.BackendTimeout}
	}
	return &httpBackendClient{
		baseURL:                strings.TrimRight(cfg.BackendBaseURL, "/"),
		userRegisterPath:       cfg.UserRegisterPath,
		enterpriseRegisterPath: cfg.EnterpriseRegisterPath,
		importsPath:            cfg.ImportsPath,
		http:                   httpClient,
	}
}

// errorBody cobre os três formatos de erro do backend:
// {errors: [{field, message}]}, {message} e {error}.
type errorBody struct {
	Errors  []appErrors.FieldError `json:"errors"`
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
}

func (c *httpBackendClient) RegisterUser(ctx context.Context, payload models.UserRegistrationCreate, opts RequestOptions) (*models.RegistrationResult, error) {
	if err := c.do(ctx, http.MethodPost, c.userRegisterPath, auth.Principal{}, payload, opts, nil); err != nil {
		return nil, err
	}
	return &models.RegistrationResult{RedirectTo: models.LoginRedirect}, nil
}

func (c *httpBackendClient) RegisterEnterprise(ctx context.Context, payload models.EnterpriseRegistrationCreate, opts RequestOptions) (*models.RegistrationResult, error) {
	if err := c.do(ctx, http.MethodPost, c.enterpriseRegisterPath, auth.Principal{}, payload, opts, nil); err != nil {
		return nil, err
	}
	return &models.RegistrationResult{RedirectTo: models.LoginRedirect}, nil
}

func (c *httpBackendClient) CreateImport(ctx context.Context, p auth.Principal, payload models.ImportCreate, opts RequestOptions) (*models.ImportPublic, error) {
	if p.IsZero() {
		return nil, appErrors.ErrUnauthorized
	}
	var created models.ImportPublic
	if err := c.do(ctx, http.MethodPost, c.importsPath, p, payload, opts, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, &appErrors.SubmissionError{
			StatusCode: http.StatusOK,
			Message:    appErrors.FallbackServerMessage,
			Err:        fmt.Errorf("resposta de criação sem id"),
		}
	}
	return &created, nil
}

func (c *httpBackendClient) ListImports(ctx context.Context, p auth.Principal) ([]models.ImportPublic, error) {
	if p.IsZero() {
		return nil, appErrors.ErrUnauthorized
	}
	var list []models.ImportPublic
	if err := c.do(ctx, http.MethodGet, c.importsPath, p, nil, RequestOptions{}, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.ImportPublic{}
	}
	return list, nil
}

func (c *httpBackendClient) GetImport(ctx context.Context, p auth.Principal, id string) (*models.ImportPublic, error) {
	if p.IsZero() {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id da importação não pode ser vazio", appErrors.ErrInvalidInput)
	}
	var imp models.ImportPublic
	path := strings.TrimRight(c.importsPath, "/") + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, p, nil, RequestOptions{}, &imp); err != nil {
		return nil, err
	}
	return &imp, nil
}

// do executa uma única requisição, sem novas tentativas.
func (c *httpBackendClient) do(ctx context.Context, method, path string, p auth.Principal, body interface{}, opts RequestOptions, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao serializar corpo da requisição: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.WrapErrorf(appErrors.ErrConfiguration, "requisição inválida para %s: %v", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.IdempotencyKey != "" {
		req.Header.Set(HeaderIdempotencyKey, opts.IdempotencyKey)
	}
	p.Apply(req.Header)

	entry := appLogger.WithPrincipal(p, logrus.Fields{"method": method, "path": path})
	resp, err := c.http.Do(req)
	if err != nil {
		entry.Warnf("Falha de transporte ao chamar o backend: %v", err)
		return &appErrors.SubmissionError{Message: appErrors.FallbackServerMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := decodeErrorResponse(resp)
		entry.WithField("status", resp.StatusCode).Warnf("Backend recusou a requisição: %s", se.Message)
		return se
	}

	entry.WithField("status", resp.StatusCode).Debug("Backend respondeu com sucesso.")
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &appErrors.SubmissionError{
			StatusCode: resp.StatusCode,
			Message:    appErrors.FallbackServerMessage,
			Err:        fmt.Errorf("resposta do backend ilegível: %w", err),
		}
	}
	return nil
}

func decodeErrorResponse(resp *http.Response) *appErrors.SubmissionError {
	se := &appErrors.SubmissionError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var body errorBody
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			se.Err = fmt.Errorf("corpo de erro não é JSON: %w", err)
		}
	}

	se.FieldErrors = body.Errors
	switch {
	case strings.TrimSpace(body.Message) != "":
		se.Message = body.Message
	case strings.TrimSpace(body.Error) != "":
		se.Message = body.Error
	case len(body.Errors) == 0:
		se.Message = appErrors.FallbackServerMessage
	}
	return se
}
