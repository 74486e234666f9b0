package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/casedash/internal/dataset"
)

// ChartKind selects how a frequency table is drawn.
type ChartKind string

const (
	ChartTable ChartKind = "table"
	ChartPie   ChartKind = "pie"
)

// Chart is a frequency table for one categorical column.
type Chart struct {
	Column   string          `json:"column"`
	Position int             `json:"position"`
	Kind     ChartKind       `json:"kind"`
	Title    string          `json:"title"`
	Counts   []CategoryCount `json:"counts"`
}

// Charts builds the category charts for the first opt.ChartColumns text columns.
// Columns at even positions (1st, 3rd, ...) get a full count table, the others a
// top-N pie with the tail collapsed. Only the 1st column labels missing cells with
// the sentinel; the rest skip them.
func Charts(t *dataset.Table, opt Options) []Chart {
	opt = opt.withDefaults()
	cols := SelectCategoricalColumns(t, opt.ChartColumns)
	out := make([]Chart, 0, len(cols))
	for i, col := range cols {
		ch := Chart{Column: col.Name, Position: i + 1}
		if i%2 == 0 {
			fill := ""
			if i == 0 {
				fill = opt.MissingLabel
			}
			ch.Kind = ChartTable
			ch.Title = fmt.Sprintf("Conteo de %s", col.Name)
			ch.Counts = ValueCounts(col.Labels(fill))
		} else {
			ch.Kind = ChartPie
			ch.Title = fmt.Sprintf("Top %d - %s", opt.TopN, col.Name)
			ch.Counts = CollapseTail(ValueCounts(col.Labels("")), opt.TopN, opt.OthersLabel)
		}
		out = append(out, ch)
	}
	return out
}

// TimelinePoint pairs a deadline with the case duration.
type TimelinePoint struct {
	Deadline time.Time `json:"deadline"`
	Duration float64   `json:"duration"`
}

// Timeline is the duration-over-deadline series with its mean reference line.
type Timeline struct {
	Title  string          `json:"title"`
	Points []TimelinePoint `json:"points"`
	// Mean is nil when the duration column has no values.
	Mean *float64 `json:"mean,omitempty"`
}

// BuildTimeline returns the timeline when both the deadline and duration columns
// exist. Points missing either value are dropped; order follows the deadline.
func BuildTimeline(t *dataset.Table) (*Timeline, bool) {
	dl, ok := t.Column(dataset.ColDeadline)
	if !ok || dl.Kind != dataset.KindTime {
		return nil, false
	}
	dur, ok := t.Column(dataset.ColDuration)
	if !ok || dur.Kind != dataset.KindNumber {
		return nil, false
	}
	tl := &Timeline{Title: "Evolución de la Duración de Casos"}
	for i := range dl.Cells {
		d, v := dl.Cells[i], dur.Cells[i]
		if d.Valid && v.Valid {
			tl.Points = append(tl.Points, TimelinePoint{Deadline: d.Time, Duration: v.Num})
		}
	}
	sort.SliceStable(tl.Points, func(i, j int) bool {
		return tl.Points[i].Deadline.Before(tl.Points[j].Deadline)
	})
	if sum, err := Describe(dur.Numbers()); err == nil {
		m := sum.Mean
		tl.Mean = &m
	}
	return tl, true
}
