package analysis

import (
	"errors"

	"github.com/go-gota/gota/series"
)

// ErrNoData is returned when a statistic is requested over zero values.
var ErrNoData = errors.New("no data")

// Summary describes a set of numeric values.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// Std is the sample standard deviation; HasStd is false with fewer than two values.
	Std    float64 `json:"std"`
	HasStd bool    `json:"has_std"`
}

// Describe summarizes values. Empty input yields ErrNoData.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoData
	}
	s := series.Floats(values)
	sum := Summary{
		Count:  len(values),
		Mean:   s.Mean(),
		Median: s.Median(),
		Min:    s.Min(),
		Max:    s.Max(),
	}
	if len(values) > 1 {
		sum.Std = s.StdDev()
		sum.HasStd = true
	}
	return sum, nil
}
