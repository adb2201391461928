package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
)

const maxImportRows = 1000

// Import runs one saga per CSV row. Header names may be canonical,
// upstream or alias spellings; a failed row does not stop the import.
func (s *taxonomyService) Import(ctx context.Context, kind model.EntityKind, r io.Reader) (*taxonomy.ImportResult, error) {
	if _, err := model.Lookup(kind); err != nil {
		return nil, err
	}

	rows, err := parseCSV(r)
	if err != nil {
		return nil, model.NewValidationError(err.Error(), nil)
	}

	result := &taxonomy.ImportResult{Rows: make([]taxonomy.ImportRowResult, 0, len(rows))}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rowNum := i + 2 // header is row 1

		rowResult := taxonomy.ImportRowResult{Row: rowNum}
		created, err := s.Create(ctx, kind, row)
		if err != nil {
			rowResult.Error = errMessage(err)
			result.Failed++
		} else {
			rowResult.Success = true
			rowResult.Name = created.Record.DisplayName
			rowResult.LinkingKey = created.Record.LinkingKey
			result.Succeeded++
		}
		if rowResult.Name == "" {
			rowResult.Name = firstValue(row)
		}
		result.Rows = append(result.Rows, rowResult)
		result.Total++
	}

	log.Info().
		Str("kind", string(kind)).
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("csv import finished")
	return result, nil
}

// parseCSV returns one raw field map per data row.
func parseCSV(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("No se pudo leer el CSV: %v", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("El CSV no contiene filas de datos")
	}
	if len(records)-1 > maxImportRows {
		return nil, fmt.Errorf("El CSV supera el máximo de %d filas", maxImportRows)
	}

	header := buildColumnIndexMap(records[0])
	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(header))
		for name, idx := range header {
			if idx < len(record) {
				if v := strings.TrimSpace(record[idx]); v != "" {
					row[name] = v
				}
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func buildColumnIndexMap(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, colName := range header {
		colMap[strings.TrimPrefix(strings.TrimSpace(colName), "\ufeff")] = i
	}
	return colMap
}

func firstValue(row map[string]any) string {
	for _, key := range []string{"name", "nombre", "code", "codigo"} {
		if v, ok := row[key].(string); ok {
			return v
		}
	}
	return ""
}

// Export writes all records of a kind to an xlsx workbook.
func (s *taxonomyService) Export(ctx context.Context, kind model.EntityKind, w io.Writer) error {
	desc, err := model.Lookup(kind)
	if err != nil {
		return err
	}
	records, err := s.records.List(ctx, desc)
	if err != nil {
		return err
	}

	f, err := buildExportFile(desc, records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func buildExportFile(desc *model.EntityKindDescriptor, records []*model.TaxonomyRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName := desc.Collection
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	// Row 1: header
	headers := []string{"id", "documentId"}
	for _, spec := range desc.Fields {
		headers = append(headers, spec.Upstream)
	}
	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheetName, "A1", last, headerStyle)
	}

	for i, rec := range records {
		rowNum := i + 2
		cell := func(col int) string {
			name, _ := excelize.CoordinatesToCellName(col, rowNum)
			return name
		}

		f.SetCellValue(sheetName, cell(1), rec.InternalID)
		f.SetCellValue(sheetName, cell(2), rec.LinkingKey)
		for j, spec := range desc.Fields {
			f.SetCellValue(sheetName, cell(j+3), exportValue(rec.Fields[spec.Name]))
		}
	}
	return f, nil
}

func exportValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, float64, int64, int, bool:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				parts = append(parts, model.ItemString(model.FlattenItem(m), "documentId"))
				continue
			}
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return model.ItemString(model.FlattenItem(t), "documentId")
	}
	return fmt.Sprint(v)
}
