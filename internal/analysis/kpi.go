package analysis

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/casedash/internal/dataset"
)

// Options tunes KPI and chart computation.
type Options struct {
	// Now returns the reference time for the upcoming-deadline window.
	Now func() time.Time
	// UpcomingDays is the length of the upcoming-deadline window.
	UpcomingDays int
	// ModeMaxLen truncates the most common action label, in runes.
	ModeMaxLen int
	// TopN and OthersLabel shape pie charts.
	TopN        int
	OthersLabel string
	// ChartColumns is how many categorical columns get a chart.
	ChartColumns int
	// MissingLabel labels missing cells in the first count table.
	MissingLabel string
}

// DefaultOptions mirrors the dashboard's fixed layout.
func DefaultOptions() Options {
	return Options{
		Now:          time.Now,
		UpcomingDays: 30,
		ModeMaxLen:   20,
		TopN:         DefaultTopN,
		OthersLabel:  OthersLabel,
		ChartColumns: 4,
		MissingLabel: dataset.DefaultMissingLabel,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.UpcomingDays <= 0 {
		o.UpcomingDays = d.UpcomingDays
	}
	if o.ModeMaxLen <= 0 {
		o.ModeMaxLen = d.ModeMaxLen
	}
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.OthersLabel == "" {
		o.OthersLabel = d.OthersLabel
	}
	if o.ChartColumns <= 0 {
		o.ChartColumns = d.ChartColumns
	}
	if o.MissingLabel == "" {
		o.MissingLabel = d.MissingLabel
	}
	return o
}

// KPI is one display-ready metric card.
type KPI struct {
	Title string `json:"title"`
	// Value is an int for counts and a preformatted string otherwise.
	Value any    `json:"value"`
	Delta string `json:"delta"`
	Help  string `json:"help"`
}

// Skipped records a KPI that could not be computed for the current table.
type Skipped struct {
	Title string
	Err   error
}

const (
	TitleTotal    = "Total de Casos"
	TitleDuration = "Duración Promedio"
	TitleUpcoming = "Próximos Vencimientos"
	TitleAction   = "Actuación más Común"
)

// KPIs computes the metric cards in display order. Cards whose column is absent
// or has no values are left out.
func KPIs(t *dataset.Table, opt Options) []KPI {
	kpis, _ := EvaluateKPIs(t, opt)
	return kpis
}

// EvaluateKPIs is KPIs plus the reasons for every card left out because its
// column had no usable values. Absent columns are not reported.
func EvaluateKPIs(t *dataset.Table, opt Options) ([]KPI, []Skipped) {
	opt = opt.withDefaults()
	var (
		kpis    []KPI
		skipped []Skipped
	)
	kpis = append(kpis, KPI{
		Title: TitleTotal,
		Value: t.Len(),
		Delta: "casos registrados",
		Help:  "Número total de casos en el sistema",
	})

	if col, ok := t.Column(dataset.ColDuration); ok {
		if k, err := durationKPI(col); err != nil {
			skipped = append(skipped, Skipped{Title: TitleDuration, Err: err})
		} else {
			kpis = append(kpis, k)
		}
	}

	if col, ok := t.Column(dataset.ColDeadline); ok {
		now := opt.Now()
		n := UpcomingDeadlines(col, now, now.Add(time.Duration(opt.UpcomingDays)*24*time.Hour))
		kpis = append(kpis, KPI{
			Title: TitleUpcoming,
			Value: n,
			Delta: fmt.Sprintf("en los próximos %d días", opt.UpcomingDays),
			Help:  fmt.Sprintf("Casos que vencen en los próximos %d días", opt.UpcomingDays),
		})
	}

	if col, ok := t.Column(dataset.ColAction); ok {
		top, err := Mode(col.Labels(""))
		if err != nil {
			skipped = append(skipped, Skipped{Title: TitleAction, Err: fmt.Errorf("%s: %w", col.Name, err)})
		} else {
			kpis = append(kpis, KPI{
				Title: TitleAction,
				Value: Truncate(top.Label, opt.ModeMaxLen),
				Delta: fmt.Sprintf("%d casos", top.Count),
				Help:  "Tipo de actuación más frecuente",
			})
		}
	}
	return kpis, skipped
}

func durationKPI(col *dataset.Column) (KPI, error) {
	sum, err := Describe(col.Numbers())
	if err != nil {
		return KPI{}, fmt.Errorf("%s: %w", col.Name, err)
	}
	delta := "±n/d días"
	if sum.HasStd {
		delta = fmt.Sprintf("±%.1f días", sum.Std)
	}
	return KPI{
		Title: TitleDuration,
		Value: fmt.Sprintf("%.1f", sum.Mean),
		Delta: delta,
		Help:  "Promedio y desviación estándar de la duración de los casos",
	}, nil
}

// UpcomingDeadlines counts valid times in the closed interval [from, to].
func UpcomingDeadlines(col *dataset.Column, from, to time.Time) int {
	if col.Kind != dataset.KindTime {
		return 0
	}
	n := 0
	for _, c := range col.Cells {
		if c.Valid && !c.Time.Before(from) && !c.Time.After(to) {
			n++
		}
	}
	return n
}

// Truncate shortens s to limit runes and appends "..." when it was longer.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
