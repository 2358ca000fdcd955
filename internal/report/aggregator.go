package report

import (
	"github.com/itsjashshah/flowtag/internal/models"
)

// Aggregator counts flow records per tag and per (port, protocol) pair. It
// lives for one pipeline run.
type Aggregator struct {
	table      *models.LookupTable
	tags       models.TagCounts
	portProtos models.PortProtoCounts
	records    uint64
	untagged   uint64
}

func NewAggregator(table *models.LookupTable) *Aggregator {
	return &Aggregator{
		table:      table,
		tags:       models.TagCounts{},
		portProtos: models.PortProtoCounts{},
	}
}

// Add counts one record and returns the tag it was assigned.
func (a *Aggregator) Add(rec models.FlowRecord) (string, bool) {
	key := rec.Key()
	a.records++
	a.portProtos[key]++

	tag, ok := a.table.Lookup(key)
	if !ok {
		tag = models.UntaggedTag
		a.untagged++
	}
	a.tags[tag]++
	return tag, ok
}

// Report hands the counters over to a Report. The aggregator must not be
// used afterwards.
func (a *Aggregator) Report() *Report {
	r := &Report{
		Tags:       a.tags,
		PortProtos: a.portProtos,
		Summary: Summary{
			Records:            a.records,
			Tagged:             a.records - a.untagged,
			Untagged:           a.untagged,
			DistinctTags:       len(a.tags),
			DistinctPortProtos: len(a.portProtos),
		},
	}
	a.tags, a.portProtos = nil, nil
	return r
}

// Aggregate drains next and returns the resulting report.
func Aggregate(next func() (models.FlowRecord, bool), table *models.LookupTable) *Report {
	agg := NewAggregator(table)
	for {
		rec, ok := next()
		if !ok {
			break
		}
		agg.Add(rec)
	}
	return agg.Report()
}

// FromSlice returns a one-shot record sequence over records.
func FromSlice(records []models.FlowRecord) func() (models.FlowRecord, bool) {
	i := 0
	return func() (models.FlowRecord, bool) {
		if i >= len(records) {
			return models.FlowRecord{}, false
		}
		rec := records[i]
		i++
		return rec, true
	}
}
