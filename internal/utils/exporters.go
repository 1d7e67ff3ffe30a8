package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
)

// Table é uma planilha pronta para exportação: cabeçalhos, linhas e quais colunas são numéricas.
type Table struct {
	SheetName string
	Headers   []string
	Rows      [][]string
	numeric   map[int]bool
}

// TableFromStructs monta uma Table a partir de um slice de structs (ou ponteiros para structs).
// O cabeçalho vem da tag `export`; campos com `export:"-"` são ignorados e, sem tag, vale o nome do campo.
func TableFromStructs(slice interface{}, sheetName string) (*Table, error) {
	sliceVal := reflect.ValueOf(slice)
	if sliceVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: exportação espera um slice, recebido %T", appErrors.ErrInvalidInput, slice)
	}
	elemType := sliceVal.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: elementos do slice devem ser structs, recebido %s", appErrors.ErrInvalidInput, elemType)
	}
	if sheetName == "" {
		sheetName = "Dados"
	}

	t := &Table{SheetName: sheetName, numeric: map[int]bool{}}
	var fieldIdx []int
	for i := 0; i < elemType.NumField(); i++ {
		field := elemType.Field(i)
		if !field.IsExported() {
			continue
		}
		header := field.Tag.Get("export")
		if header == "-" {
			continue
		}
		if header == "" {
			header = field.Name
		}
		switch field.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			t.numeric[len(t.Headers)] = true
		}
		t.Headers = append(t.Headers, header)
		fieldIdx = append(fieldIdx, i)
	}

	t.Rows = make([][]string, 0, sliceVal.Len())
	for i := 0; i < sliceVal.Len(); i++ {
		elem := sliceVal.Index(i)
		if elem.Kind() == reflect.Ptr {
			if elem.IsNil() {
				continue
			}
			elem = elem.Elem()
		}
		row := make([]string, len(fieldIdx))
		for j, idx := range fieldIdx {
			row[j] = fmt.Sprint(elem.Field(idx).Interface())
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// --- Sanitização ---
var (
	cpfRegex   = regexp.MustCompile(`\b(\d{3}[.-]?\d{3}[.-]?\d{3}-?\d{2})\b`)
	cnpjRegex  = regexp.MustCompile(`\b(\d{2}[.-]?\d{3}[.-]?\d{3}/?\d{4}-?\d{2})\b`)
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// MaskSensitive oculta CNPJ, CPF e e-mails dentro de um texto livre.
func MaskSensitive(s string) string {
	s = cnpjRegex.ReplaceAllString(s, "**.***.***/****-**")
	s = cpfRegex.ReplaceAllString(s, "***.***.***-**")
	return emailRegex.ReplaceAllString(s, "****@****.***")
}

// TruncateText corta s em no máximo maxBytes bytes, terminando em "...", sem partir
// um caractere UTF-8 ao meio.
func TruncateText(s string, maxBytes int) string {
	const ellipsis = "..."
	if len(s) <= maxBytes {
		return s
	}
	if maxBytes <= len(ellipsis) {
		return ellipsis[:max(maxBytes, 0)]
	}
	cut := maxBytes - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}

func sanitizeRows(headers []string, rows [][]string, columns []string) [][]string {
	if len(columns) == 0 || len(rows) == 0 {
		return rows
	}
	targets := make(map[int]bool)
	for _, colName := range columns {
		found := false
		for i, h := range headers {
			if strings.EqualFold(h, colName) {
				targets[i] = true
				found = true
				break
			}
		}
		if !found {
			appLogger.Warnf("Coluna de sanitização '%s' não encontrada nos cabeçalhos. Ignorando.", colName)
		}
	}
	if len(targets) == 0 {
		return rows
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		newRow := make([]string, len(row))
		copy(newRow, row)
		for colIdx := range targets {
			if colIdx < len(newRow) {
				newRow[colIdx] = MaskSensitive(newRow[colIdx])
			}
		}
		out[i] = newRow
	}
	return out
}

// ExportOptions contém opções para a exportação.
type ExportOptions struct {
	CreateBackup    bool
	SanitizeColumns []string           // colunas com texto livre a mascarar
	ColumnWidths    map[string]float64 // cabeçalho -> largura (somente XLSX)
	// Windows1252 grava o CSV em Windows-1252, que o Excel em português abre sem quebrar acentos.
	// Caracteres sem representação viram '?'.
	Windows1252 bool
}

// ExportToCSV grava a tabela em CSV separado por ponto e vírgula e devolve o caminho final.
func ExportToCSV(table *Table, outputPath, exportDir string, opts *ExportOptions) (string, error) {
	if opts == nil {
		opts = &ExportOptions{}
	}
	finalPath := resolveOutputPath(outputPath, exportDir, ".csv")
	if opts.CreateBackup && fileExists(finalPath) {
		if err := createBackup(finalPath); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar backup do CSV: %v", err)
		}
	}

	file, err := os.Create(finalPath)
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar arquivo CSV '%s': %v", finalPath, err)
	}
	defer file.Close()

	var out io.Writer = file
	if opts.Windows1252 {
		tw := transform.NewWriter(file, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
		defer tw.Close()
		out = tw
	}
	writer := csv.NewWriter(out)
	writer.Comma = ';'

	if err := writer.Write(table.Headers); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever cabeçalhos CSV: %v", err)
	}
	for _, row := range sanitizeRows(table.Headers, table.Rows, opts.SanitizeColumns) {
		if err := writer.Write(row); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever linha CSV: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao dar flush no writer CSV: %v", err)
	}
	appLogger.Infof("Dados exportados para CSV: %s (%d linha(s))", finalPath, len(table.Rows))
	return finalPath, nil
}

// ExportToXLSX grava uma aba por tabela e devolve o caminho final.
func ExportToXLSX(tables []*Table, outputPath, exportDir string, opts *ExportOptions) (string, error) {
	if opts == nil {
		opts = &ExportOptions{}
	}
	finalPath := resolveOutputPath(outputPath, exportDir, ".xlsx")
	if opts.CreateBackup && fileExists(finalPath) {
		if err := createBackup(finalPath); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar backup do XLSX: %v", err)
		}
	}

	xlsx := excelize.NewFile()
	defer func() {
		if err := xlsx.Close(); err != nil {
			appLogger.Errorf("Erro ao fechar arquivo XLSX: %v", err)
		}
	}()

	headerStyle, err := xlsx.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1A659E"}, Pattern: 1},
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar estilo do cabeçalho: %v", err)
	}

	const defaultSheet = "Sheet1"
	if len(tables) == 0 {
		_ = xlsx.SetCellValue(defaultSheet, "A1", "Nenhum dado para exportar.")
	}

	for i, table := range tables {
		sheet := table.SheetName
		if sheet == "" {
			sheet = fmt.Sprintf("Planilha%d", i+1)
		}
		if i == 0 {
			if err := xlsx.SetSheetName(defaultSheet, sheet); err != nil {
				return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao renomear planilha: %v", err)
			}
		} else if _, err := xlsx.NewSheet(sheet); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar planilha '%s': %v", sheet, err)
		}

		for colIdx, header := range table.Headers {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
			_ = xlsx.SetCellValue(sheet, cell, header)
			_ = xlsx.SetCellStyle(sheet, cell, cell, headerStyle)
		}

		rows := sanitizeRows(table.Headers, table.Rows, opts.SanitizeColumns)
		for rowIdx, row := range rows {
			for colIdx, value := range row {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				if table.numeric[colIdx] {
					if num, errConv := strconv.ParseFloat(value, 64); errConv == nil {
						_ = xlsx.SetCellValue(sheet, cell, num)
						continue
					}
				}
				_ = xlsx.SetCellValue(sheet, cell, value)
			}
		}

		for colIdx, header := range table.Headers {
			width, ok := opts.ColumnWidths[header]
			if !ok {
				continue
			}
			col, _ := excelize.ColumnNumberToName(colIdx + 1)
			if err := xlsx.SetColWidth(sheet, col, col, width); err != nil {
				appLogger.Warnf("Não foi possível ajustar a largura da coluna '%s': %v", header, err)
			}
		}
	}

	if err := xlsx.SaveAs(finalPath); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao salvar arquivo XLSX '%s': %v", finalPath, err)
	}
	appLogger.Infof("Dados exportados para XLSX: %s", finalPath)
	return finalPath, nil
}

// --- Funções Utilitárias Internas ---
func resolveOutputPath(path, defaultDir, defaultExt string) string {
	p := filepath.Clean(path)
	if !filepath.IsAbs(p) && defaultDir != "" {
		absDefaultDir, _ := filepath.Abs(defaultDir)
		p = filepath.Join(absDefaultDir, p)
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		appLogger.Warnf("Não foi possível criar diretório de exportação '%s': %v. Usando diretório atual.", dir, err)
		p = filepath.Base(p)
	}

	if filepath.Ext(p) == "" {
		p += defaultExt
	}
	return p
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func createBackup(path string) error {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	backupPath := fmt.Sprintf("%s_backup_%s%s", base, time.Now().Format("20060102_150405"), ext)

	if err := os.Rename(path, backupPath); err != nil {
		return err
	}
	appLogger.Infof("Backup criado: %s", backupPath)
	return nil
}
