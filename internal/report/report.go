package report

import (
	"fmt"
	"sort"

	"github.com/itsjashshah/flowtag/internal/models"
)

type SortOrder string

const (
	SortByKey   SortOrder = "key"
	SortByCount SortOrder = "count"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortByKey:
		return SortByKey, nil
	case SortByCount:
		return SortByCount, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

type Summary struct {
	Records            uint64 `json:"records"`
	Tagged             uint64 `json:"tagged"`
	Untagged           uint64 `json:"untagged"`
	DistinctTags       int    `json:"distinct_tags"`
	DistinctPortProtos int    `json:"distinct_port_protocols"`
}

type Report struct {
	Tags       models.TagCounts
	PortProtos models.PortProtoCounts
	Summary    Summary
}

type TagRow struct {
	Tag   string `json:"tag"`
	Count uint64 `json:"count"`
}

type PortProtoRow struct {
	Port     uint16 `json:"port"`
	Protocol string `json:"protocol"`
	Count    uint64 `json:"count"`
}

// TagRows returns the tag counters in a deterministic order. With
// SortByCount ties are broken by tag name.
func (r *Report) TagRows(order SortOrder) []TagRow {
	rows := make([]TagRow, 0, len(r.Tags))
	for tag, n := range r.Tags {
		rows = append(rows, TagRow{Tag: tag, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if order == SortByCount && rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Tag < rows[j].Tag
	})
	return rows
}

func (r *Report) PortProtoRows(order SortOrder) []PortProtoRow {
	keys := make([]models.LookupKey, 0, len(r.PortProtos))
	for k := range r.PortProtos {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if order == SortByCount {
			ci, cj := r.PortProtos[keys[i]], r.PortProtos[keys[j]]
			if ci != cj {
				return ci > cj
			}
		}
		return keys[i].Less(keys[j])
	})

	rows := make([]PortProtoRow, len(keys))
	for i, k := range keys {
		rows[i] = PortProtoRow{Port: k.Port, Protocol: k.Protocol, Count: r.PortProtos[k]}
	}
	return rows
}
