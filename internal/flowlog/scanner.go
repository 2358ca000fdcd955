// Package flowlog reads AWS VPC Flow Log version 2 records.
//
// A default-format record has 14 space separated fields:
//
//	version account-id interface-id srcaddr dstaddr srcport dstport protocol packets bytes start end action log-status
//
// Only dstport and protocol are kept. Records are produced one at a time, so
// memory use does not depend on the size of the file.
package flowlog

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/itsjashshah/flowtag/internal/models"
)

const (
	FieldCount    = 14
	fieldDstPort  = 6
	fieldProtocol = 7

	maxLineSize = 1024 * 1024
)

type Options struct {
	Source    string
	Protocols ProtocolTable
	Strict    bool
	Logger    logrus.FieldLogger
}

// Scanner yields FlowRecords from a flow log. It cannot be rewound. Scan
// returns false at end of input, on a read error, or on the first malformed
// line in strict mode; Err reports which.
type Scanner struct {
	r      *bufio.Reader
	buf    []byte
	opts   Options
	log    logrus.FieldLogger
	line   int
	record models.FlowRecord
	stats  models.Stats
	err    error
}

func NewScanner(r io.Reader, opts Options) *Scanner {
	if opts.Protocols == nil {
		opts.Protocols = NewProtocolTable(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Source == "" {
		opts.Source = "flowlog"
	}

	return &Scanner{
		r:    bufio.NewReaderSize(r, 64*1024),
		opts: opts,
		log:  opts.Logger.WithField("source", opts.Source),
	}
}

func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	for {
		text, tooLong, err := s.readLine()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			s.err = models.NewPathError("read", s.opts.Source, models.ErrFileRead, err)
			return false
		}
		s.line++

		if tooLong {
			s.stats.Lines++
			if s.reject(models.ReasonLineTooLong) {
				return false
			}
			continue
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if isHeader(fields) {
			s.log.WithField("line", s.line).Debug("skipping flow log header")
			continue
		}

		s.stats.Lines++
		rec, reason := s.parse(fields)
		if reason != "" {
			if s.reject(reason) {
				return false
			}
			continue
		}

		s.stats.Accepted++
		s.record = rec
		return true
	}
}

// reject counts a malformed line and reports whether scanning must stop.
func (s *Scanner) reject(reason models.AnomalyReason) bool {
	s.stats.Skipped++
	s.stats.Record(reason)
	if s.opts.Strict {
		s.err = &models.LineError{Source: s.opts.Source, Line: s.line, Reason: reason, Kind: models.ErrMalformedLine}
		return true
	}
	s.log.WithFields(logrus.Fields{"line": s.line, "reason": reason}).Warn("skipping malformed flow log line")
	return false
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed up to its end and returned empty with tooLong set.
func (s *Scanner) readLine() (string, bool, error) {
	s.buf = s.buf[:0]
	tooLong := false
	for {
		frag, isPrefix, err := s.r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(s.buf) > 0 || tooLong) {
				return string(s.buf), tooLong, nil
			}
			return "", false, err
		}
		if !tooLong {
			if len(s.buf)+len(frag) > maxLineSize {
				tooLong = true
				s.buf = s.buf[:0]
			} else {
				s.buf = append(s.buf, frag...)
			}
		}
		if !isPrefix {
			return string(s.buf), tooLong, nil
		}
	}
}

func (s *Scanner) Record() models.FlowRecord {
	return s.record
}

// Next adapts the scanner to the pull function consumed by report.Aggregate.
func (s *Scanner) Next() (models.FlowRecord, bool) {
	if !s.Scan() {
		return models.FlowRecord{}, false
	}
	return s.record, true
}

func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) Stats() models.Stats {
	return s.stats
}

func (s *Scanner) parse(fields []string) (models.FlowRecord, models.AnomalyReason) {
	if len(fields) != FieldCount {
		return models.FlowRecord{}, models.ReasonFieldCount
	}

	port, err := strconv.ParseUint(fields[fieldDstPort], 10, 16)
	if err != nil {
		return models.FlowRecord{}, models.ReasonBadPort
	}

	raw := fields[fieldProtocol]
	if raw == "-" {
		return models.FlowRecord{}, models.ReasonEmptyProtocol
	}

	return models.FlowRecord{
		DstPort:  uint16(port),
		Protocol: s.opts.Protocols.Name(raw),
		Line:     s.line,
	}, ""
}

// S3 deliveries start with a line naming the fields.
func isHeader(fields []string) bool {
	return fields[0] == "version"
}
