package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/wizard"
)

func newWizard() *wizard.Wizard {
	flows := wizard.Flows(wizard.FlowOptions{PasswordMinLength: 8})
	return wizard.New(flows[wizard.FlowImportModal], utils.NewValidator(utils.ValidatorOptions{}))
}

func TestPrincipalFromHeaders(t *testing.T) {
	h := http.Header{}
	_, err := PrincipalFromHeaders(h)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	h.Set(HeaderUserID, " u-1 ")
	p, err := PrincipalFromHeaders(h)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: "u-1", Type: PrincipalUser}, p)

	h.Set(HeaderCompanyID, "c-9")
	p, err = PrincipalFromHeaders(h)
	require.NoError(t, err)
	assert.Equal(t, PrincipalCompany, p.Type)
	assert.Equal(t, HeaderCompanyID, p.HeaderName())
}

func TestPrincipalApply(t *testing.T) {
	h := http.Header{}
	Principal{}.Apply(h)
	assert.Empty(t, h)

	Principal{ID: "42", Type: PrincipalCompany}.Apply(h)
	assert.Equal(t, "42", h.Get("company-id"))
	assert.Empty(t, h.Get("user-id"))
}

func TestSessionManager_OwnerIsolation(t *testing.T) {
	sm := NewSessionManager(&config.Config{WizardIdleLimit: time.Hour})
	alice := Principal{ID: "a", Type: PrincipalUser}
	bob := Principal{ID: "b", Type: PrincipalUser}

	s := sm.CreateSession(alice, newWizard())
	require.NotEmpty(t, s.ID)

	got, err := sm.GetSession(s.ID, alice)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = sm.GetSession(s.ID, bob)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	assert.Error(t, sm.DeleteSession(s.ID, bob))
	require.NoError(t, sm.DeleteSession(s.ID, alice))
	require.NoError(t, sm.DeleteSession(s.ID, alice), "remover de novo não é erro")
	assert.Equal(t, 0, sm.Count())
}

func TestSessionManager_IdleExpiry(t *testing.T) {
	sm := NewSessionManager(&config.Config{WizardIdleLimit: time.Minute})
	owner := Principal{ID: "a", Type: PrincipalCompany}
	s := sm.CreateSession(owner, newWizard())
	s.LastActivity = time.Now().UTC().Add(-2 * time.Minute)

	sm.cleanupExpiredSessions()
	assert.Equal(t, 0, sm.Count())

	_, err := sm.GetSession(s.ID, owner)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSessionManager_Shutdown(t *testing.T) {
	sm := NewSessionManager(&config.Config{WizardIdleLimit: time.Minute})
	sm.StartCleanupGoroutine()
	sm.CreateSession(Principal{ID: "a"}, newWizard())

	sm.Shutdown()
	sm.Shutdown()
	assert.Equal(t, 0, sm.Count())
}
