package models

import (
	"fmt"
	"strings"
)

const UntaggedTag = "Untagged"

// LookupKey is the composite (destination port, protocol) key shared by the
// lookup table and the port/protocol counters. Protocol is always lower-case.
type LookupKey struct {
	Port     uint16 `json:"port"`
	Protocol string `json:"protocol"`
}

func NewLookupKey(port uint16, protocol string) LookupKey {
	return LookupKey{Port: port, Protocol: strings.ToLower(strings.TrimSpace(protocol))}
}

func (k LookupKey) String() string {
	return fmt.Sprintf("%d/%s", k.Port, k.Protocol)
}

// Less orders keys by port, then protocol.
func (k LookupKey) Less(o LookupKey) bool {
	if k.Port != o.Port {
		return k.Port < o.Port
	}
	return k.Protocol < o.Protocol
}

// FlowRecord is a VPC flow log line reduced to the fields used for tagging.
type FlowRecord struct {
	DstPort  uint16
	Protocol string
	Line     int
}

func (r FlowRecord) Key() LookupKey {
	return NewLookupKey(r.DstPort, r.Protocol)
}

type TagCounts map[string]uint64

func (c TagCounts) Total() uint64 {
	var n uint64
	for _, v := range c {
		n += v
	}
	return n
}

type PortProtoCounts map[LookupKey]uint64

func (c PortProtoCounts) Total() uint64 {
	var n uint64
	for _, v := range c {
		n += v
	}
	return n
}
