// Package lookup loads the (dstport, protocol) -> tag mapping file.
//
// The file is a three column CSV. Protocol names are folded to lower case so
// that "TCP", "Tcp" and "tcp" all address the same entry. Rows that cannot be
// parsed are skipped and counted unless strict mode is on, in which case the
// whole load fails and no table is returned.
package lookup

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/itsjashshah/flowtag/internal/models"
)

// SoftLimit is the documented table size. Larger tables still load.
const SoftLimit = 10000

type HeaderMode string

const (
	HeaderAuto   HeaderMode = "auto"
	HeaderAlways HeaderMode = "always"
	HeaderNever  HeaderMode = "never"
)

type DuplicatePolicy string

const (
	DuplicateOverwrite DuplicatePolicy = "overwrite"
	DuplicateKeepFirst DuplicatePolicy = "keep-first"
	DuplicateError     DuplicatePolicy = "error"
)

type Options struct {
	Source     string
	Header     HeaderMode
	Duplicates DuplicatePolicy
	Strict     bool
	Logger     logrus.FieldLogger
}

type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// LoadFile opens uri through opener and loads it.
func LoadFile(ctx context.Context, opener Opener, uri string, opts Options) (*models.LookupTable, models.Stats, error) {
	rc, err := opener.Open(ctx, uri)
	if err != nil {
		return nil, models.Stats{}, err
	}
	defer rc.Close()

	opts.Source = uri
	return Load(rc, opts)
}

func Load(r io.Reader, opts Options) (*models.LookupTable, models.Stats, error) {
	opts = opts.withDefaults()
	log := opts.Logger.WithField("source", opts.Source)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var stats models.Stats
	entries := make(map[models.LookupKey]string)
	warnedLimit := false
	first := true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Lines++
			if err := skip(log, &stats, opts, parseErr.StartLine, models.ReasonFieldCount, parseErr.Error()); err != nil {
				return nil, stats, err
			}
			first = false
			continue
		}
		if err != nil {
			return nil, stats, models.NewPathError("read", opts.Source, models.ErrFileRead, err)
		}

		line, _ := reader.FieldPos(0)
		if first {
			first = false
			if isHeader(record, opts.Header) {
				log.WithFields(logrus.Fields{"line": line, "row": strings.Join(record, ",")}).Info("skipping lookup table header")
				continue
			}
		}
		stats.Lines++

		key, tag, reason := parseRow(record)
		if reason != "" {
			if err := skip(log, &stats, opts, line, reason, strings.Join(record, ",")); err != nil {
				return nil, stats, err
			}
			continue
		}

		if prev, dup := entries[key]; dup {
			stats.Record(models.ReasonDuplicateKey)
			entry := log.WithFields(logrus.Fields{"line": line, "key": key.String(), "previous": prev, "tag": tag})
			switch opts.Duplicates {
			case DuplicateError:
				return nil, stats, &models.LineError{Source: opts.Source, Line: line, Reason: models.ReasonDuplicateKey, Kind: models.ErrDuplicateKey}
			case DuplicateKeepFirst:
				entry.Warn("duplicate lookup key, keeping first tag")
				stats.Skipped++
				continue
			default:
				if prev != tag {
					entry.Warn("duplicate lookup key with conflicting tag, later row wins")
				} else {
					entry.Debug("duplicate lookup key")
				}
			}
		}

		entries[key] = tag
		stats.Accepted++

		if !warnedLimit && stats.Accepted > SoftLimit {
			warnedLimit = true
			log.WithField("limit", SoftLimit).Warn("lookup table exceeds supported size")
		}
	}

	log.WithFields(logrus.Fields{"entries": len(entries), "skipped": stats.Skipped}).Debug("lookup table loaded")
	return models.NewLookupTable(entries), stats, nil
}

func (o Options) withDefaults() Options {
	if o.Header == "" {
		o.Header = HeaderAuto
	}
	if o.Duplicates == "" {
		o.Duplicates = DuplicateOverwrite
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Source == "" {
		o.Source = "lookup"
	}
	return o
}

func isHeader(record []string, mode HeaderMode) bool {
	switch mode {
	case HeaderAlways:
		return true
	case HeaderNever:
		return false
	}
	if len(record) == 0 {
		return false
	}
	// A digit-only port is a data row even when out of range, so it is
	// reported as malformed instead of being dropped as a header.
	return !isDigits(strings.TrimSpace(record[0]))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseRow(record []string) (models.LookupKey, string, models.AnomalyReason) {
	if len(record) != 3 {
		return models.LookupKey{}, "", models.ReasonFieldCount
	}

	port, err := strconv.ParseUint(strings.TrimSpace(record[0]), 10, 16)
	if err != nil {
		return models.LookupKey{}, "", models.ReasonBadPort
	}

	protocol := strings.TrimSpace(record[1])
	if protocol == "" {
		return models.LookupKey{}, "", models.ReasonEmptyProtocol
	}

	tag := strings.TrimSpace(record[2])
	if tag == "" {
		return models.LookupKey{}, "", models.ReasonEmptyTag
	}

	return models.NewLookupKey(uint16(port), protocol), tag, ""
}

func skip(log logrus.FieldLogger, stats *models.Stats, opts Options, line int, reason models.AnomalyReason, text string) error {
	stats.Skipped++
	stats.Record(reason)
	if opts.Strict {
		return &models.LineError{Source: opts.Source, Line: line, Reason: reason, Kind: models.ErrMalformedRow}
	}
	log.WithFields(logrus.Fields{"line": line, "reason": reason, "row": text}).Warn("skipping malformed lookup row")
	return nil
}
