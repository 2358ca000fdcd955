package flowlog

import (
	"strconv"
	"strings"
)

// ianaProtocols maps IANA protocol numbers, as written by VPC Flow Logs, to
// the names used in lookup tables.
var ianaProtocols = map[string]string{
	"1":   "icmp",
	"2":   "igmp",
	"4":   "ipv4",
	"6":   "tcp",
	"17":  "udp",
	"41":  "ipv6",
	"47":  "gre",
	"50":  "esp",
	"51":  "ah",
	"58":  "ipv6-icmp",
	"89":  "ospf",
	"103": "pim",
	"112": "vrrp",
	"132": "sctp",
}

// ProtocolTable resolves protocol numbers to names.
type ProtocolTable map[string]string

// NewProtocolTable returns the IANA table with overrides applied on top.
func NewProtocolTable(overrides map[string]string) ProtocolTable {
	t := make(ProtocolTable, len(ianaProtocols)+len(overrides))
	for num, name := range ianaProtocols {
		t[num] = name
	}
	for num, name := range overrides {
		key := strings.TrimSpace(num)
		// flow logs write the bare decimal, so "06" and "+6" address "6"
		if n, err := strconv.Atoi(key); err == nil {
			key = strconv.Itoa(n)
		}
		t[key] = strings.ToLower(strings.TrimSpace(name))
	}
	return t
}

// Name returns the lower-case protocol name for a raw protocol token.
// Unknown numbers are returned unchanged so they still form a distinct key.
func (t ProtocolTable) Name(raw string) string {
	if name, ok := t[raw]; ok {
		return name
	}
	return strings.ToLower(raw)
}

// DefaultFormat is the field list of a version 2 default-format subscription.
const DefaultFormat = "${version} ${account-id} ${interface-id} ${srcaddr} ${dstaddr} ${srcport} ${dstport} ${protocol} ${packets} ${bytes} ${start} ${end} ${action} ${log-status}"

// IsDefaultFormat reports whether a subscription's log format can be read by
// Scanner. An empty format means the default.
func IsDefaultFormat(format string) bool {
	if strings.TrimSpace(format) == "" {
		return true
	}
	return strings.Join(strings.Fields(format), " ") == DefaultFormat
}
