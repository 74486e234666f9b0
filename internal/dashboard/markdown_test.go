package dashboard

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/casedash/internal/analysis"
	"github.com/KaramelBytes/casedash/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_Sections(t *testing.T) {
	clock := &stubClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)}
	loader := &stubLoader{load: func() dataset.Result {
		return dataset.Result{Table: casesTable(t), Source: dataset.Source{Kind: dataset.SourceCSV, Path: "data/casos.csv"}}
	}}
	snap, err := newTestService(t, loader, clock).Snapshot(context.Background())
	require.NoError(t, err)

	md := snap.Markdown()
	for _, want := range []string{
		"# Dashboard de Casos",
		"Source: csv (data/casos.csv)",
		"Rows: 3",
		"Columns: 4",
		"## Métricas Clave",
		"Total de Casos",
		"±7.1 días",
		"## Evolución Temporal",
		"From 2024-01-05 to 2024-01-20",
		"## Análisis Detallado",
		"### Conteo de Actuación",
		"### Top 5 - Juzgado",
		dataset.DefaultMissingLabel,
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "## Notes")
}

func TestMarkdown_ListsDiagnostics(t *testing.T) {
	snap := &Snapshot{
		Source: dataset.Source{Kind: dataset.SourceNone},
		KPIs:   analysis.KPIs(dataset.Empty(), analysis.DefaultOptions()),
		Diagnostics: []Diagnostic{
			{Stage: StageLoad, Severity: SeverityError, Message: "load csv file x.csv: malformed data file"},
		},
	}
	md := snap.Markdown()
	assert.Contains(t, md, "## Notes")
	assert.Contains(t, md, "- [error] load: load csv file x.csv")
	assert.NotContains(t, md, "## Análisis Detallado")
}

func TestWriteCounts_Percentages(t *testing.T) {
	var buf bytes.Buffer
	WriteCounts(&buf, "Estado", []analysis.CategoryCount{{Label: "abierto", Count: 3}, {Label: "a|b", Count: 1}})
	out := buf.String()
	assert.Contains(t, out, "Estado")
	assert.Contains(t, out, "75.0")
	assert.Contains(t, out, "25.0")
	assert.Contains(t, out, "a/b", "pipes are escaped out of cells")
	assert.Equal(t, 4, strings.Count(out, "\n"), "header, separator and two rows")
}
