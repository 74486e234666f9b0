package dataset

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCasesXLSX(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Actuación", "Duración", "Fecha Límite", "Juzgado"},
		{"Demanda", 12, "2024-03-15", "Civil 1"},
		{nil, nil, nil, nil},
		// 45352 is the serial number of 2024-03-01.
		{"Recurso", 3.5, 45352, nil},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(dir, "casos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXReader_FirstSheet(t *testing.T) {
	path := writeCasesXLSX(t, t.TempDir())
	tbl, err := xlsxReader{}.Read(path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{ColAction, ColDuration, ColDeadline, "Juzgado"}, tbl.Names())
	require.Equal(t, 2, tbl.Len(), "blank rows are skipped")

	dl, _ := tbl.Column(ColDeadline)
	require.Equal(t, KindTime, dl.Kind)
	require.True(t, dl.Cells[0].Valid)
	require.True(t, dl.Cells[1].Valid)
	// Serial date sorts before the text date.
	assert.Equal(t, time.March, dl.Cells[0].Time.Month())
	assert.Equal(t, 1, dl.Cells[0].Time.Day())
	assert.Equal(t, 15, dl.Cells[1].Time.Day())

	act, _ := tbl.Column(ColAction)
	assert.Equal(t, []string{"Recurso", "Demanda"}, act.Labels(""))

	dur, _ := tbl.Column(ColDuration)
	assert.Equal(t, []float64{3.5, 12}, dur.Numbers())

	court, _ := tbl.Column("Juzgado")
	assert.Equal(t, []string{DefaultMissingLabel, "Civil 1"}, court.Labels(""))
}

func TestXLSXReader_EmptySheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := xlsxReader{}.Read(path, DefaultOptions())
	require.ErrorIs(t, err, ErrMalformed)
}
