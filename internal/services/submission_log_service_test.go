package services

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := data.InitializeDB(&config.Config{
		DBEngine: "sqlite",
		DBName:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.CloseDB(db) })
	return db
}

func TestSubmissionLogService_RecordAndList(t *testing.T) {
	svc := NewSubmissionLogService(repositories.NewGormSubmissionLogRepository(newTestDB(t)))
	company := auth.Principal{ID: "c-1", Type: auth.PrincipalCompany}

	require.NoError(t, svc.Record(models.SubmissionLogCreate{
		Flow:          "import",
		Kind:          "import-creation",
		PrincipalType: string(company.Type),
		PrincipalID:   company.ID,
		Outcome:       models.OutcomeFailed,
		StatusCode:    400,
		ErrorSummary:  "CNPJ 11.222.333/0001-81 já possui importação aberta",
		Duration:      150 * time.Millisecond,
	}))
	require.NoError(t, svc.Record(models.SubmissionLogCreate{
		Flow:          "import",
		Kind:          "import-creation",
		PrincipalType: string(company.Type),
		PrincipalID:   company.ID,
		Outcome:       models.OutcomeSuccess,
		ResourceID:    "77",
	}))
	require.NoError(t, svc.Record(models.SubmissionLogCreate{
		Flow:          "import",
		PrincipalType: "user",
		PrincipalID:   "u-1",
		Outcome:       models.OutcomeSuccess,
	}))

	logs, total, err := svc.ListForPrincipal(company, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)

	var failed *models.SubmissionLogPublic
	for _, l := range logs {
		if l.Outcome == models.OutcomeFailed {
			failed = l
		}
	}
	require.NotNil(t, failed)
	assert.NotContains(t, failed.ErrorSummary, "11.222.333")
	assert.EqualValues(t, 150, failed.DurationMillis)
}

func TestSubmissionLogService_RejectsInvalidEntries(t *testing.T) {
	svc := NewSubmissionLogService(repositories.NewGormSubmissionLogRepository(newTestDB(t)))

	err := svc.Record(models.SubmissionLogCreate{Flow: "import", Outcome: "talvez"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInput))

	err = svc.Record(models.SubmissionLogCreate{Outcome: models.OutcomeSuccess})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInput))

	_, _, err = svc.ListForPrincipal(auth.Principal{}, 10, 0)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestSubmissionLogService_AnonymousRegistration(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubmissionLogService(repositories.NewGormSubmissionLogRepository(db))

	require.NoError(t, svc.Record(models.SubmissionLogCreate{
		Flow:    "register-user",
		Kind:    "user-registration",
		Outcome: models.OutcomeSuccess,
	}))

	var row models.DBSubmissionLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "anonymous", row.PrincipalType)
	assert.Nil(t, row.ResourceID)
	assert.Nil(t, row.IdempotencyKey)
}

func TestSubmissionLogService_LongSummaryStaysValidUTF8(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubmissionLogService(repositories.NewGormSubmissionLogRepository(db))

	require.NoError(t, svc.Record(models.SubmissionLogCreate{
		Flow:         "import",
		Kind:         "import-creation",
		Outcome:      models.OutcomeFailed,
		StatusCode:   500,
		ErrorSummary: strings.Repeat("ç", 1500),
	}))

	var row models.DBSubmissionLog
	require.NoError(t, db.First(&row).Error)
	require.NotNil(t, row.ErrorSummary)
	assert.True(t, utf8.ValidString(*row.ErrorSummary))
	assert.LessOrEqual(t, len(*row.ErrorSummary), maxErrorSummaryLength)
	assert.True(t, strings.HasSuffix(*row.ErrorSummary, "..."))
}
