package models

import (
	"time"

	"github.com/google/uuid"
)

// Resultados possíveis de uma tentativa de submissão.
const (
	OutcomeSuccess     = "success"      // backend aceitou; wizard foi para a confirmação
	OutcomeFieldErrors = "field_errors" // backend recusou com erros por campo
	OutcomeFailed      = "failed"       // erro geral ou falha de transporte
	OutcomeDiscarded   = "discarded"    // resposta chegou depois de o wizard ser reiniciado
)

// ValidOutcomes define os resultados aceitos no log.
var ValidOutcomes = map[string]bool{
	OutcomeSuccess:     true,
	OutcomeFieldErrors: true,
	OutcomeFailed:      true,
	OutcomeDiscarded:   true,
}

// DBSubmissionLog é uma tentativa de submissão registrada para suporte.
// Nunca guarda senha, CVC ou número de cartão: só metadados da tentativa.
type DBSubmissionLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Timestamp     time.Time `gorm:"not null;index"`
	Flow          string    `gorm:"type:varchar(40);not null;index"`
	Kind          string    `gorm:"type:varchar(40);not null"`
	PrincipalType string    `gorm:"type:varchar(20);not null;index:idx_submission_principal"`
	PrincipalID   string    `gorm:"type:varchar(100);not null;index:idx_submission_principal"`
	Outcome       string    `gorm:"type:varchar(20);not null;index"`
	StatusCode    int       `gorm:"not null;default:0"`

	ResourceID      *string `gorm:"type:varchar(100)"`
	ErrorSummary    *string `gorm:"type:text"`
	FieldErrorCount int     `gorm:"not null;default:0"`
	IdempotencyKey  *string `gorm:"type:varchar(64);index"`
	DurationMillis  int64   `gorm:"not null;default:0"`
}

// TableName especifica o nome da tabela para GORM.
func (DBSubmissionLog) TableName() string {
	return "submission_logs"
}

// SubmissionLogCreate são os dados que o orquestrador entrega para registro.
type SubmissionLogCreate struct {
	Flow            string
	Kind            string
	PrincipalType   string
	PrincipalID     string
	Outcome         string `validate:"oneof=success field_errors failed discarded"`
	StatusCode      int
	ResourceID      string
	ErrorSummary    string
	FieldErrorCount int
	IdempotencyKey  string
	Duration        time.Duration
}

// SubmissionLogPublic é a forma exposta para ferramentas de suporte.
type SubmissionLogPublic struct {
	ID              uuid.UUID `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Flow            string    `json:"flow"`
	Outcome         string    `json:"outcome"`
	StatusCode      int       `json:"statusCode,omitempty"`
	ResourceID      string    `json:"resourceId,omitempty"`
	ErrorSummary    string    `json:"errorSummary,omitempty"`
	FieldErrorCount int       `json:"fieldErrorCount,omitempty"`
	IdempotencyKey  string    `json:"idempotencyKey,omitempty"`
	DurationMillis  int64     `json:"durationMillis"`
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToSubmissionLogPublic converte o registro do banco para a forma pública.
func ToSubmissionLogPublic(e *DBSubmissionLog) *SubmissionLogPublic {
	if e == nil {
		return nil
	}
	return &SubmissionLogPublic{
		ID:              e.ID,
		Timestamp:       e.Timestamp,
		Flow:            e.Flow,
		Outcome:         e.Outcome,
		StatusCode:      e.StatusCode,
		ResourceID:      derefString(e.ResourceID),
		ErrorSummary:    derefString(e.ErrorSummary),
		FieldErrorCount: e.FieldErrorCount,
		IdempotencyKey:  derefString(e.IdempotencyKey),
		DurationMillis:  e.DurationMillis,
	}
}
