package codes

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/damattl/db-iris-wrapper/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	// Mirror the published layout: a title banner on row 1, headers
	// on row 2, data below.
	require.NoError(t, f.SetCellValue(sheet, "A1", "Statuscodes der Fahrplan-APIs"))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Code", "Typ", "Langtext (neu)"}))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "codes.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadExcel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{1, "R", "Störung"},
		{2, "Q", "Qualitätsmangel"},
		{80, "R", "Abweichende Wagenreihung"},
	})

	codes, err := Load("EXCEL:"+path, testLogger())
	require.NoError(t, err)
	require.Len(t, codes, 3)

	assert.Equal(t, model.StatusCode{Code: 1, Type: model.StatusCodeTravelInfo, LongText: "Störung"}, codes[0])
	assert.Equal(t, model.StatusCode{Code: 2, Type: model.StatusCodeQuality, LongText: "Qualitätsmangel"}, codes[1])
	assert.Equal(t, 80, codes[2].Code)
}

func TestLoadExcelSkipsBadRows(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{1, "R", "Störung"},
		{"not-a-code", "R", "Kaputt"},
		{"", "", ""},
		{3, "w", "Unbekannter Typ"},
	})

	codes, err := Load("EXCEL:"+path, testLogger())
	require.NoError(t, err)

	// The unparsable and empty rows vanish; the unknown type letter
	// is kept but downgraded.
	require.Len(t, codes, 2)
	assert.Equal(t, 1, codes[0].Code)
	assert.Equal(t, 3, codes[1].Code)
	assert.Equal(t, model.StatusCodeUnknown, codes[1].Type)
}

func TestLoadExcelMissingHeaders(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Titel"))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Nummer", "Art"}))

	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Load("EXCEL:"+path, testLogger())
	require.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	csv := "Code,Typ,Langtext (neu)\n1,R,Störung\n2,Q,Qualitätsmangel\nx,R,Kaputt\n"
	path := filepath.Join(t.TempDir(), "codes.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	codes, err := Load("CSV:"+path, testLogger())
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, model.StatusCodeQuality, codes[1].Type)
}

func TestLoadCSVWithBOM(t *testing.T) {
	csv := "\xef\xbb\xbfCode,Typ,Langtext (neu)\n7,R,Hinweis\n"
	path := filepath.Join(t.TempDir(), "codes.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	codes, err := Load("CSV:"+path, testLogger())
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, 7, codes[0].Code)
}

func TestLoadUnknownSource(t *testing.T) {
	_, err := Load("PDF:/tmp/codes.pdf", testLogger())
	require.Error(t, err)
}
