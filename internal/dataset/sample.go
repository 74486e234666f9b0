package dataset

import (
	"math/rand/v2"
	"time"
)

var (
	sampleCategories = []string{"A", "B", "C"}
	sampleRegions    = []string{"Norte", "Sur", "Este", "Oeste"}
)

// Sample builds the placeholder table used when the data directory holds no
// readable file: one row per day of 2023 with random sales, category and region.
func Sample(seed uint64) *Table {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours()/24) + 1

	fecha := &Column{Name: "fecha", Kind: KindTime, Cells: make([]Cell, days)}
	ventas := &Column{Name: "ventas", Kind: KindNumber, Cells: make([]Cell, days)}
	categoria := &Column{Name: "categoria", Kind: KindText, Cells: make([]Cell, days)}
	region := &Column{Name: "region", Kind: KindText, Cells: make([]Cell, days)}
	for i := 0; i < days; i++ {
		fecha.Cells[i] = TimeCell(start.AddDate(0, 0, i))
		ventas.Cells[i] = NumberCell(float64(100 + rng.IntN(900)))
		categoria.Cells[i] = TextCell(sampleCategories[rng.IntN(len(sampleCategories))])
		region.Cells[i] = TextCell(sampleRegions[rng.IntN(len(sampleRegions))])
	}
	t := NewTable(days)
	for _, c := range []*Column{fecha, ventas, categoria, region} {
		// lengths match by construction
		_ = t.AddColumn(c)
	}
	return t
}
