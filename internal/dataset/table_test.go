package dataset

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T, cols ...*Column) *Table {
	t.Helper()
	n := 0
	if len(cols) > 0 {
		n = len(cols[0].Cells)
	}
	tbl := NewTable(n)
	for _, c := range cols {
		require.NoError(t, tbl.AddColumn(c))
	}
	return tbl
}

func day(d int) Cell { return TimeCell(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)) }

func TestTable_SortByTimeStableMissingLast(t *testing.T) {
	tbl := buildTable(t,
		&Column{Name: "id", Kind: KindText, Cells: []Cell{TextCell("a"), TextCell("b"), TextCell("c"), TextCell("d"), TextCell("e")}},
		&Column{Name: ColDeadline, Kind: KindTime, Cells: []Cell{day(5), Missing(), day(2), day(5), day(1)}},
	)
	require.NoError(t, tbl.SortByTime(ColDeadline))
	id, _ := tbl.Column("id")
	assert.Equal(t, []string{"e", "c", "a", "d", "b"}, id.Labels(""))

	require.Error(t, tbl.SortByTime("id"))
	require.Error(t, tbl.SortByTime("nope"))
}

func TestTable_AddColumnLengthMismatch(t *testing.T) {
	tbl := NewTable(2)
	err := tbl.AddColumn(&Column{Name: "x", Kind: KindText, Cells: []Cell{TextCell("only")}})
	require.Error(t, err)
}

func TestTable_ColumnLookupNormalizesNames(t *testing.T) {
	tbl := buildTable(t, &Column{Name: "Actuacio\u0301n", Kind: KindText, Cells: []Cell{TextCell("x")}})
	col, ok := tbl.Column(" " + ColAction + " ")
	require.True(t, ok)
	assert.Equal(t, "x", col.Cells[0].Str)

	var nilTable *Table
	_, ok = nilTable.Column(ColAction)
	assert.False(t, ok)
	assert.Equal(t, 0, nilTable.Len())
}

func TestTable_MarshalJSONKeepsColumnOrder(t *testing.T) {
	tbl := buildTable(t,
		&Column{Name: "z", Kind: KindNumber, Cells: []Cell{NumberCell(1.5), Missing()}},
		&Column{Name: "a", Kind: KindText, Cells: []Cell{TextCell("x"), TextCell("y")}},
	)
	b, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.Equal(t, `[{"z":1.5,"a":"x"},{"z":null,"a":"y"}]`, string(b))

	b, err = json.Marshal(Empty())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestTable_CoerceTime(t *testing.T) {
	tbl := buildTable(t,
		&Column{Name: ColDeadline, Kind: KindText, Cells: []Cell{TextCell("01/02/2024"), TextCell("soon"), Missing()}},
		&Column{Name: "n", Kind: KindNumber, Cells: []Cell{NumberCell(1), NumberCell(2), NumberCell(3)}},
	)
	require.True(t, tbl.CoerceTime(ColDeadline, DefaultDateLayouts))
	dl, _ := tbl.Column(ColDeadline)
	assert.Equal(t, KindTime, dl.Kind)
	assert.True(t, dl.Cells[0].Valid)
	assert.Equal(t, time.February, dl.Cells[0].Time.Month())
	assert.False(t, dl.Cells[1].Valid)
	assert.False(t, dl.Cells[2].Valid)

	assert.True(t, tbl.CoerceTime(ColDeadline, DefaultDateLayouts), "already time")
	assert.False(t, tbl.CoerceTime("n", DefaultDateLayouts))
	assert.False(t, tbl.CoerceTime("missing", DefaultDateLayouts))
}

func TestColumn_LabelsAndNumbers(t *testing.T) {
	num := &Column{Name: "n", Kind: KindNumber, Cells: []Cell{NumberCell(2), Missing(), NumberCell(0.5)}}
	assert.Equal(t, []string{"2", "0.5"}, num.Labels(""))
	assert.Equal(t, []string{"2", "-", "0.5"}, num.Labels("-"))
	assert.Equal(t, []float64{2, 0.5}, num.Numbers())

	txt := &Column{Name: "t", Kind: KindText, Cells: []Cell{TextCell("a")}}
	assert.Nil(t, txt.Numbers())
}
