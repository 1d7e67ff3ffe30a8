package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
)

// SubmissionLogRepository define a interface para o log de submissões.
type SubmissionLogRepository interface {
	// Create insere uma nova entrada.
	Create(entry models.DBSubmissionLog) (*models.DBSubmissionLog, error)

	// ListByPrincipal busca as entradas de um principal, mais recentes primeiro.
	// Retorna as entradas, a contagem total e um erro.
	ListByPrincipal(principalType, principalID string, limit, offset int) ([]models.DBSubmissionLog, int64, error)
}

// gormSubmissionLogRepository é a implementação GORM de SubmissionLogRepository.
type gormSubmissionLogRepository struct {
	db *gorm.DB
}

// NewGormSubmissionLogRepository cria uma nova instância de gormSubmissionLogRepository.
func NewGormSubmissionLogRepository(db *gorm.DB) SubmissionLogRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormSubmissionLogRepository")
	}
	return &gormSubmissionLogRepository{db: db}
}

func (r *gormSubmissionLogRepository) Create(entry models.DBSubmissionLog) (*models.DBSubmissionLog, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := r.db.Create(&entry).Error; err != nil {
		appLogger.Errorf("Erro ao gravar log de submissão (fluxo: %s, resultado: %s): %v", entry.Flow, entry.Outcome, err)
		return nil, appErrors.NewDatabaseErrorDetail("gravação do log de submissão", err)
	}
	return &entry, nil
}

func (r *gormSubmissionLogRepository) ListByPrincipal(principalType, principalID string, limit, offset int) ([]models.DBSubmissionLog, int64, error) {
	var entries []models.DBSubmissionLog
	var total int64

	query := r.db.Model(&models.DBSubmissionLog{}).
		Where("principal_type = ? AND principal_id = ?", principalType, principalID)

	if err := query.Count(&total).Error; err != nil {
		appLogger.Errorf("Erro ao contar logs de submissão de %s:%s: %v", principalType, principalID, err)
		return nil, 0, appErrors.NewDatabaseErrorDetail("contagem do log de submissão", err)
	}
	if total == 0 {
		return []models.DBSubmissionLog{}, 0, nil
	}

	if limit <= 0 {
		limit = 100
	} else if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}

	if err := query.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		appLogger.Errorf("Erro ao buscar logs de submissão de %s:%s: %v", principalType, principalID, err)
		return nil, 0, appErrors.NewDatabaseErrorDetail("leitura do log de submissão", err)
	}
	return entries, total, nil
}
