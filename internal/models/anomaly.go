package models

// AnomalyReason classifies a skipped lookup row or flow log line.
type AnomalyReason string

const (
	ReasonFieldCount    AnomalyReason = "field_count"
	ReasonBadPort       AnomalyReason = "bad_port"
	ReasonEmptyProtocol AnomalyReason = "empty_protocol"
	ReasonEmptyTag      AnomalyReason = "empty_tag"
	ReasonDuplicateKey  AnomalyReason = "duplicate_key"
	ReasonLineTooLong   AnomalyReason = "line_too_long"
)

type Anomaly struct {
	Source string        `json:"source"`
	Line   int           `json:"line"`
	Reason AnomalyReason `json:"reason"`
	Text   string        `json:"text,omitempty"`
}

type AnomalyCounts map[AnomalyReason]uint64

func (c AnomalyCounts) Total() uint64 {
	var n uint64
	for _, v := range c {
		n += v
	}
	return n
}

// Stats summarizes one pass over an input file.
type Stats struct {
	Lines     int           `json:"lines"`
	Accepted  int           `json:"accepted"`
	Skipped   int           `json:"skipped"`
	Anomalies AnomalyCounts `json:"anomalies,omitempty"`
}

func (s *Stats) Record(reason AnomalyReason) {
	if s.Anomalies == nil {
		s.Anomalies = AnomalyCounts{}
	}
	s.Anomalies[reason]++
}
