package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
)

// ExportFormat é o formato de arquivo da exportação de importações.
type ExportFormat string

const (
	ExportXLSX ExportFormat = "xlsx"
	ExportCSV  ExportFormat = "csv"
)

// ImportService expõe a leitura das importações de um principal (somente leitura)
// e a exportação da lista.
type ImportService interface {
	// ListImports devolve a lista do cache do poller; sem cache, busca na hora.
	ListImports(ctx context.Context, p auth.Principal) (ImportListSnapshot, error)
	GetImport(ctx context.Context, p auth.Principal, id string) (*models.ImportPublic, error)
	// ExportImports busca a lista atual e grava em XLSX ou CSV. Devolve o caminho gravado.
	ExportImports(ctx context.Context, p auth.Principal, format ExportFormat, outputPath string) (string, error)
}

type importServiceImpl struct {
	cfg    *config.Config
	client BackendClient
	poller *ImportPoller
}

// NewImportService cria uma nova instância de ImportService.
func NewImportService(cfg *config.Config, client BackendClient, poller *ImportPoller) ImportService {
	if cfg == nil || client == nil || poller == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewImportService")
	}
	return &importServiceImpl{cfg: cfg, client: client, poller: poller}
}

func (s *importServiceImpl) ListImports(ctx context.Context, p auth.Principal) (ImportListSnapshot, error) {
	if p.IsZero() {
		return ImportListSnapshot{}, appErrors.ErrUnauthorized
	}
	s.poller.Watch(p)
	if snap, ok := s.poller.Snapshot(p); ok {
		return snap, nil
	}
	snap, err := s.poller.Refresh(ctx, p)
	if err != nil {
		// Sem lista anterior: a resposta é vazia e marcada como desatualizada.
		appLogger.Warnf("Primeira busca de importações para %s falhou: %v", p, err)
	}
	return snap, nil
}

func (s *importServiceImpl) GetImport(ctx context.Context, p auth.Principal, id string) (*models.ImportPublic, error) {
	return s.client.GetImport(ctx, p, id)
}

func (s *importServiceImpl) ExportImports(ctx context.Context, p auth.Principal, format ExportFormat, outputPath string) (string, error) {
	list, err := s.client.ListImports(ctx, p)
	if err != nil {
		return "", appErrors.WrapErrorf(err, "falha ao buscar importações para exportação")
	}

	table, err := utils.TableFromStructs(models.ToImportExportRows(list), "Importações")
	if err != nil {
		return "", err
	}
	opts := &utils.ExportOptions{
		CreateBackup:    true,
		SanitizeColumns: []string{"Título"},
		ColumnWidths:    map[string]float64{"Título": 40, "Origem": 20, "Destino": 20, "Criado em": 18},
	}
	if strings.TrimSpace(outputPath) == "" {
		outputPath = "importacoes_" + strings.ReplaceAll(p.ID, "/", "_")
	}

	switch format {
	case ExportXLSX, "":
		return utils.ExportToXLSX([]*utils.Table{table}, outputPath, s.cfg.ExportDir, opts)
	case ExportCSV:
		opts.Windows1252 = true
		return utils.ExportToCSV(table, outputPath, s.cfg.ExportDir, opts)
	default:
		return "", fmt.Errorf("%w: formato de exportação desconhecido '%s'", appErrors.ErrInvalidInput, format)
	}
}
