package analytics

import (
	"sort"
	"strings"

	"financas/internal/core"
)

// UncategorizedLabel is the chart bucket for records without a category.
const UncategorizedLabel = "OUTROS"

// AggregateCategories sums both streams per upper-cased category and returns
// the topK largest by combined volume. Ties keep first-seen order, entries
// before exits. topK <= 0 falls back to DefaultTopCategories.
func AggregateCategories(entries, exits []core.Record, topK int) []CategoryBucket {
	if topK <= 0 {
		topK = DefaultTopCategories
	}
	index := make(map[string]int)
	var buckets []CategoryBucket
	bucket := func(r core.Record) *CategoryBucket {
		name := strings.ToUpper(strings.TrimSpace(r.Category))
		if name == "" {
			name = UncategorizedLabel
		}
		i, ok := index[name]
		if !ok {
			i = len(buckets)
			index[name] = i
			buckets = append(buckets, CategoryBucket{Category: name})
		}
		return &buckets[i]
	}
	for _, r := range entries {
		b := bucket(r)
		b.Entries = b.Entries.Add(r.Amount)
	}
	for _, r := range exits {
		b := bucket(r)
		b.Exits = b.Exits.Add(r.Amount)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Entries.Add(buckets[i].Exits).GreaterThan(buckets[j].Entries.Add(buckets[j].Exits))
	})
	if len(buckets) > topK {
		buckets = buckets[:topK]
	}
	if buckets == nil {
		return []CategoryBucket{}
	}
	return buckets
}
