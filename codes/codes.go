// Package codes loads the IRIS status code reference table from the
// spreadsheet Deutsche Bahn publishes, or from a CSV export of it.
package codes

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"
	"github.com/xuri/excelize/v2"

	"github.com/damattl/db-iris-wrapper/model"
)

// Column headers as published. The long text column was renamed when
// DB revised the wording, hence the odd header.
const (
	headerCode     = "Code"
	headerType     = "Typ"
	headerLongText = "Langtext (neu)"
)

// Load reads a status code table from the source named by src:
//
//	EXCEL:<path> the published XLSX, headers on row 2, data from row 3
//	CSV:<path>   a CSV export with the same column headers
//
// Rows that cannot be parsed are logged and skipped.
func Load(src string, logger *slog.Logger) ([]model.StatusCode, error) {
	switch {
	case strings.HasPrefix(src, "EXCEL:"):
		return loadExcel(strings.TrimPrefix(src, "EXCEL:"), logger)
	case strings.HasPrefix(src, "CSV:"):
		return loadCSV(strings.TrimPrefix(src, "CSV:"), logger)
	default:
		return nil, fmt.Errorf("unknown status codes source %q", src)
	}
}

func loadExcel(path string, logger *slog.Logger) ([]model.StatusCode, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	// Row 1 is a title banner; the real headers sit on row 2.
	cols, err := headerColumns(rows[1])
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	statusCodes := []model.StatusCode{}
	for i, row := range rows[2:] {
		sc, err := parseRow(cell(row, cols.code), cell(row, cols.cType), cell(row, cols.longText), logger)
		if err != nil {
			logger.Warn("skipping status code row", "row", i+3, "err", err)
			continue
		}
		statusCodes = append(statusCodes, sc)
	}

	return statusCodes, nil
}

type columns struct {
	code, cType, longText int
}

func headerColumns(header []string) (columns, error) {
	cols := columns{code: -1, cType: -1, longText: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case headerCode:
			cols.code = i
		case headerType:
			cols.cType = i
		case headerLongText:
			cols.longText = i
		}
	}
	if cols.code < 0 || cols.cType < 0 || cols.longText < 0 {
		return columns{}, fmt.Errorf("missing expected headers %q, %q, %q", headerCode, headerType, headerLongText)
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

type csvRow struct {
	Code     string `csv:"Code"`
	Type     string `csv:"Typ"`
	LongText string `csv:"Langtext (neu)"`
}

func loadCSV(path string, logger *slog.Logger) ([]model.StatusCode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	rows := []csvRow{}
	if err := gocsv.Unmarshal(bom.NewReader(f), &rows); err != nil {
		return nil, fmt.Errorf("decoding csv: %w", err)
	}

	statusCodes := []model.StatusCode{}
	for i, row := range rows {
		sc, err := parseRow(strings.TrimSpace(row.Code), strings.TrimSpace(row.Type), strings.TrimSpace(row.LongText), logger)
		if err != nil {
			logger.Warn("skipping status code row", "row", i+2, "err", err)
			continue
		}
		statusCodes = append(statusCodes, sc)
	}

	return statusCodes, nil
}

func parseRow(code, cType, longText string, logger *slog.Logger) (model.StatusCode, error) {
	if code == "" {
		return model.StatusCode{}, fmt.Errorf("empty code")
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return model.StatusCode{}, fmt.Errorf("parsing code %q: %w", code, err)
	}

	t, known := model.ParseStatusCodeType(cType)
	if !known {
		logger.Warn("unknown status code type", "code", n, "type", cType)
	}

	return model.StatusCode{Code: n, Type: t, LongText: longText}, nil
}
