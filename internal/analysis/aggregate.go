package analysis

import (
	"sort"

	"github.com/KaramelBytes/casedash/internal/dataset"
)

// DefaultTopN is the number of categories kept before collapsing the tail.
const DefaultTopN = 5

// OthersLabel names the bucket holding every category outside the top N.
const OthersLabel = "Others"

// CategoryCount is one row of a frequency table.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ValueCounts counts each distinct label. The result is ordered by count
// descending; ties keep the order in which labels first appear in the input.
func ValueCounts(labels []string) []CategoryCount {
	idx := make(map[string]int, len(labels))
	var out []CategoryCount
	for _, l := range labels {
		if i, ok := idx[l]; ok {
			out[i].Count++
			continue
		}
		idx[l] = len(out)
		out = append(out, CategoryCount{Label: l, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Total sums the counts.
func Total(counts []CategoryCount) int {
	n := 0
	for _, c := range counts {
		n += c.Count
	}
	return n
}

// TopNWithOther keeps the n most frequent labels and, when more than n distinct
// labels exist, appends an OthersLabel entry holding the sum of the rest.
func TopNWithOther(labels []string, n int) []CategoryCount {
	return CollapseTail(ValueCounts(labels), n, OthersLabel)
}

// CollapseTail applies the top-n-plus-other rule to an already ordered frequency
// table. n <= 0 means DefaultTopN.
func CollapseTail(counts []CategoryCount, n int, othersLabel string) []CategoryCount {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(counts) <= n {
		out := make([]CategoryCount, len(counts))
		copy(out, counts)
		return out
	}
	out := make([]CategoryCount, n, n+1)
	copy(out, counts[:n])
	out = append(out, CategoryCount{Label: othersLabel, Count: Total(counts[n:])})
	return out
}

// Mode returns the most frequent label; ties go to the label seen first.
func Mode(labels []string) (CategoryCount, error) {
	counts := ValueCounts(labels)
	if len(counts) == 0 {
		return CategoryCount{}, ErrNoData
	}
	return counts[0], nil
}

// SelectCategoricalColumns returns the first k text columns in column order.
// Chart placement depends only on this position, not on column names.
func SelectCategoricalColumns(t *dataset.Table, k int) []*dataset.Column {
	cols := t.TextColumns()
	if k >= 0 && len(cols) > k {
		cols = cols[:k]
	}
	return cols
}
