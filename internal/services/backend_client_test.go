package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		BackendBaseURL:         baseURL,
		BackendTimeout:         2 * time.Second,
		UserRegisterPath:       "/users/register",
		EnterpriseRegisterPath: "/companies/register",
		ImportsPath:            "/imports",
	}
}

func TestBackendClient_CreateImport(t *testing.T) {
	var gotHeader, gotIdem string
	var gotBody models.ImportCreate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/imports", r.URL.Path)
		gotHeader = r.Header.Get("company-id")
		gotIdem = r.Header.Get(HeaderIdempotencyKey)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 77, "title": "Notebook", "status": "pending", "progress": 0}`))
	}))
	defer srv.Close()

	client := NewHTTPBackendClient(testConfig(srv.URL), srv.Client())
	p := auth.Principal{ID: "c-1", Type: auth.PrincipalCompany}
	created, err := client.CreateImport(context.Background(), p, models.ImportCreate{
		Title: "Notebook", Origin: "EUA", Destination: "Brasil", Status: models.ImportStatusPending,
	}, RequestOptions{IdempotencyKey: "k-1"})
	require.NoError(t, err)

	assert.Equal(t, models.ResourceID("77"), created.ID)
	assert.Equal(t, "c-1", gotHeader)
	assert.Equal(t, "k-1", gotIdem)
	assert.Equal(t, "pending", gotBody.Status)
}

func TestBackendClient_FieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(HeaderIdempotencyKey))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"field":"cpf","message":"Invalid"},{"field":"addresses[0].zipcode","message":"CEP inválido"}]}`))
	}))
	defer srv.Close()

	client := NewHTTPBackendClient(testConfig(srv.URL), srv.Client())
	_, err := client.RegisterUser(context.Background(), models.UserRegistrationCreate{}, RequestOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSubmission))

	var se *appErrors.SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	require.Len(t, se.FieldErrors, 2)
	assert.Equal(t, appErrors.FieldError{Field: "cpf", Message: "Invalid"}, se.FieldErrors[0])
	assert.Empty(t, se.Message)
}

func TestBackendClient_GeneralErrorShapes(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"message":    {http.StatusConflict, `{"message":"E-mail já cadastrado"}`, "E-mail já cadastrado"},
		"error":      {http.StatusBadRequest, `{"error":"CNPJ já cadastrado"}`, "CNPJ já cadastrado"},
		"sem corpo":  {http.StatusInternalServerError, ``, appErrors.FallbackServerMessage},
		"não é json": {http.StatusBadGateway, `<html>bad gateway</html>`, appErrors.FallbackServerMessage},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewHTTPBackendClient(testConfig(srv.URL), srv.Client())
			_, err := client.RegisterEnterprise(context.Background(), models.EnterpriseRegistrationCreate{}, RequestOptions{})
			var se *appErrors.SubmissionError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tc.status, se.StatusCode)
			assert.Equal(t, tc.want, se.Message)
		})
	}
}

func TestBackendClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewHTTPBackendClient(testConfig(url), nil)
	_, err := client.ListImports(context.Background(), auth.Principal{ID: "u-1", Type: auth.PrincipalUser})
	var se *appErrors.SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 0, se.StatusCode)
	assert.Equal(t, appErrors.FallbackServerMessage, se.Message)
	assert.NotNil(t, se.Unwrap())
}

func TestBackendClient_ReadEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u-1", r.Header.Get("user-id"))
		assert.Empty(t, r.Header.Get("company-id"))
		switch r.URL.Path {
		case "/imports":
			_, _ = w.Write([]byte(`[{"id":"a1","title":"Câmera","status":"in_transit","progress":40}]`))
		case "/imports/a1":
			_, _ = w.Write([]byte(`{"id":"a1","title":"Câmera","status":"in_transit","progress":40,"timeline":[{"status":"pending"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewHTTPBackendClient(testConfig(srv.URL), srv.Client())
	p := auth.Principal{ID: "u-1", Type: auth.PrincipalUser}

	list, err := client.ListImports(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 40, list[0].Progress)

	imp, err := client.GetImport(context.Background(), p, "a1")
	require.NoError(t, err)
	assert.Len(t, imp.Timeline, 1)

	_, err = client.GetImport(context.Background(), p, "zz")
	assert.True(t, errors.Is(err, appErrors.ErrSubmission))

	_, err = client.ListImports(context.Background(), auth.Principal{})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
