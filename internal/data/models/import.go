package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ImportStatusPending é o status de toda importação recém-criada.
const ImportStatusPending = "pending"

// ImportCreate é o corpo do POST de criação de importação.
type ImportCreate struct {
	Title       string `json:"title"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
}

// ResourceID aceita ids numéricos ou texto vindos do backend.
type ResourceID string

// UnmarshalJSON implementa json.Unmarshaler.
func (id *ResourceID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ResourceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id de recurso inválido: %s", string(b))
	}
	*id = ResourceID(n.String())
	return nil
}

// ImportTimelineEvent é um marco da linha do tempo de uma importação.
type ImportTimelineEvent struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// ImportPublic é a importação como devolvida por GET /imports e GET /imports/{id}.
type ImportPublic struct {
	ID          ResourceID            `json:"id"`
	Title       string                `json:"title"`
	Origin      string                `json:"origin"`
	Destination string                `json:"destination"`
	Status      string                `json:"status"`
	Progress    int                   `json:"progress"`
	Timeline    []ImportTimelineEvent `json:"timeline,omitempty"`
	CreatedAt   *time.Time            `json:"createdAt,omitempty"`
}

// ImportExportRow é a linha usada na exportação da lista de importações.
type ImportExportRow struct {
	ID          string `export:"ID"`
	Title       string `export:"Título"`
	Origin      string `export:"Origem"`
	Destination string `export:"Destino"`
	Status      string `export:"Status"`
	Progress    int    `export:"Progresso (%)"`
	CreatedAt   string `export:"Criado em"`
}

// ToImportExportRows converte a lista para o formato de exportação.
func ToImportExportRows(imports []ImportPublic) []ImportExportRow {
	rows := make([]ImportExportRow, 0, len(imports))
	for _, imp := range imports {
		created := ""
		if imp.CreatedAt != nil {
			created = imp.CreatedAt.UTC().Format("02/01/2006 15:04")
		}
		rows = append(rows, ImportExportRow{
			ID:          string(imp.ID),
			Title:       imp.Title,
			Origin:      imp.Origin,
			Destination: imp.Destination,
			Status:      imp.Status,
			Progress:    imp.Progress,
			CreatedAt:   created,
		})
	}
	return rows
}
