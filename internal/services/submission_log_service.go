package services

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/repositories"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
)

const maxErrorSummaryLength = 2000

// SubmissionLogService registra e consulta as tentativas de submissão.
type SubmissionLogService interface {
	// Record grava uma tentativa. Falhas de gravação não devem interromper a submissão:
	// o chamador apenas loga o erro devolvido.
	Record(entry models.SubmissionLogCreate) error

	// ListForPrincipal devolve as tentativas de um principal, mais recentes primeiro.
	ListForPrincipal(p auth.Principal, limit, offset int) ([]*models.SubmissionLogPublic, int64, error)
}

type submissionLogServiceImpl struct {
	repo     repositories.SubmissionLogRepository
	validate *validator.Validate
}

// NewSubmissionLogService cria uma nova instância de SubmissionLogService.
func NewSubmissionLogService(repo repositories.SubmissionLogRepository) SubmissionLogService {
	if repo == nil {
		appLogger.Fatalf("SubmissionLogRepository não pode ser nil para NewSubmissionLogService")
	}
	return &submissionLogServiceImpl{repo: repo, validate: validator.New()}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *submissionLogServiceImpl) Record(entry models.SubmissionLogCreate) error {
	if err := s.validate.Struct(entry); err != nil {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "entrada de log de submissão inválida: %v", err)
	}
	if strings.TrimSpace(entry.Flow) == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "fluxo do log de submissão não pode ser vazio")
	}

	principalType, principalID := entry.PrincipalType, entry.PrincipalID
	if principalID == "" {
		principalType, principalID = "anonymous", "-"
	}

	// Mensagens do servidor podem ecoar dados do formulário.
	summary := utils.TruncateText(utils.MaskSensitive(entry.ErrorSummary), maxErrorSummaryLength)

	row := models.DBSubmissionLog{
		Timestamp:       time.Now().UTC(),
		Flow:            entry.Flow,
		Kind:            entry.Kind,
		PrincipalType:   principalType,
		PrincipalID:     principalID,
		Outcome:         entry.Outcome,
		StatusCode:      entry.StatusCode,
		ResourceID:      optional(entry.ResourceID),
		ErrorSummary:    optional(summary),
		FieldErrorCount: entry.FieldErrorCount,
		IdempotencyKey:  optional(entry.IdempotencyKey),
		DurationMillis:  entry.Duration.Milliseconds(),
	}
	if _, err := s.repo.Create(row); err != nil {
		return appErrors.WrapErrorf(err, "falha ao persistir log de submissão (fluxo: %s)", entry.Flow)
	}
	return nil
}

func (s *submissionLogServiceImpl) ListForPrincipal(p auth.Principal, limit, offset int) ([]*models.SubmissionLogPublic, int64, error) {
	if p.IsZero() {
		return nil, 0, appErrors.ErrUnauthorized
	}
	rows, total, err := s.repo.ListByPrincipal(string(p.Type), p.ID, limit, offset)
	if err != nil {
		return nil, 0, appErrors.WrapErrorf(err, "falha ao buscar logs de submissão do repositório")
	}
	out := make([]*models.SubmissionLogPublic, len(rows))
	for i := range rows {
		out[i] = models.ToSubmissionLogPublic(&rows[i])
	}
	return out, total, nil
}
