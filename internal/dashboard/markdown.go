package dashboard

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/casedash/internal/analysis"
	"github.com/olekukonko/tablewriter"
)

// Markdown renders the snapshot as a terminal report with pipe tables.
func (s *Snapshot) Markdown() string {
	var b strings.Builder
	b.WriteString("# Dashboard de Casos\n\n")
	src := string(s.Source.Kind)
	if s.Source.Path != "" {
		src = fmt.Sprintf("%s (%s)", src, s.Source.Path)
	}
	b.WriteString(fmt.Sprintf("Source: %s\n", src))
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(s.Columns)))
	b.WriteString(fmt.Sprintf("Generated: %s (run %s)\n", s.GeneratedAt.Format(time.RFC3339), s.RunID))

	b.WriteString("\n## Métricas Clave\n\n")
	WriteKPIs(&b, s.KPIs)

	if s.Timeline != nil {
		b.WriteString("\n## Evolución Temporal\n\n")
		b.WriteString(fmt.Sprintf("%s: %d points", s.Timeline.Title, len(s.Timeline.Points)))
		if s.Timeline.Mean != nil {
			b.WriteString(fmt.Sprintf(", mean %.1f", *s.Timeline.Mean))
		}
		b.WriteString("\n")
		if n := len(s.Timeline.Points); n > 0 {
			first, last := s.Timeline.Points[0], s.Timeline.Points[n-1]
			b.WriteString(fmt.Sprintf("From %s to %s\n", first.Deadline.Format("2006-01-02"), last.Deadline.Format("2006-01-02")))
		}
	}

	if len(s.Charts) > 0 {
		b.WriteString("\n## Análisis Detallado\n")
		for _, ch := range s.Charts {
			b.WriteString(fmt.Sprintf("\n### %s\n\n", ch.Title))
			WriteCounts(&b, ch.Column, ch.Counts)
		}
	}

	if len(s.Diagnostics) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, d := range s.Diagnostics {
			b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", d.Severity, d.Stage, d.Message))
		}
	}
	return b.String()
}

// WriteKPIs renders the metric cards as a table.
func WriteKPIs(w io.Writer, kpis []analysis.KPI) {
	rows := make([][]string, 0, len(kpis))
	for _, k := range kpis {
		rows = append(rows, []string{k.Title, fmt.Sprint(k.Value), k.Delta})
	}
	writeTable(w, []string{"KPI", "Valor", "Detalle"}, rows)
}

// WriteCounts renders a frequency table.
func WriteCounts(w io.Writer, column string, counts []analysis.CategoryCount) {
	writeTable(w, []string{safeCell(column), "Cantidad", "%"}, countRows(counts))
}

func countRows(counts []analysis.CategoryCount) [][]string {
	total := analysis.Total(counts)
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(c.Count) * 100 / float64(total)
		}
		rows = append(rows, []string{safeCell(c.Label), strconv.Itoa(c.Count), fmt.Sprintf("%.1f", pct)})
	}
	return rows
}

func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, r := range rows {
		table.Append(r)
	}
	table.Render()
}

func safeCell(s string) string {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}
