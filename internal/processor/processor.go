package processor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itsjashshah/flowtag/internal/config"
	"github.com/itsjashshah/flowtag/internal/flowlog"
	"github.com/itsjashshah/flowtag/internal/lookup"
	"github.com/itsjashshah/flowtag/internal/models"
	"github.com/itsjashshah/flowtag/internal/report"
)

type Result struct {
	Report        *report.Report
	LookupEntries int
	LookupStats   models.Stats
	FlowStats     models.Stats
	Output        string
	Started       time.Time
	Finished      time.Time
}

// Skipped is the number of lookup rows and flow log lines dropped as malformed.
func (r *Result) Skipped() int {
	return r.LookupStats.Skipped + r.FlowStats.Skipped
}

type Processor struct {
	cfg      *config.Config
	opener   lookup.Opener
	log      logrus.FieldLogger
	progress func(string)
	now      func() time.Time
}

type Option func(*Processor)

// WithProgress registers a callback receiving a short status text per stage.
func WithProgress(fn func(string)) Option {
	return func(p *Processor) {
		p.progress = fn
	}
}

func New(cfg *config.Config, opener lookup.Opener, log logrus.FieldLogger, opts ...Option) *Processor {
	p := &Processor{
		cfg:      cfg,
		opener:   opener,
		log:      log,
		progress: func(string) {},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) LoadLookup(ctx context.Context) (*models.LookupTable, models.Stats, error) {
	p.progress("Loading lookup table " + p.cfg.LookupTable + "...")
	return lookup.LoadFile(ctx, p.opener, p.cfg.LookupTable, lookup.Options{
		Header:     lookup.HeaderMode(p.cfg.Lookup.Header),
		Duplicates: lookup.DuplicatePolicy(p.cfg.Lookup.DuplicatePolicy),
		Strict:     p.cfg.Strict,
		Logger:     p.log,
	})
}

// Run loads the lookup table, streams the flow log through the aggregator and
// writes the report. The lookup table is fully built before the flow log is
// opened. Cancelling ctx stops the scan and nothing is written.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	format, err := report.ParseFormat(p.cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	order, err := report.ParseSortOrder(p.cfg.SortBy)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Output: p.cfg.Output, Started: p.now()}

	table, lstats, err := p.LoadLookup(ctx)
	if err != nil {
		return nil, err
	}
	res.LookupEntries = table.Len()
	res.LookupStats = lstats
	p.log.WithFields(logrus.Fields{
		"source":  p.cfg.LookupTable,
		"entries": table.Len(),
		"skipped": lstats.Skipped,
	}).Info("lookup table loaded")

	p.progress("Scanning flow logs " + p.cfg.FlowLogs + "...")
	rc, err := p.opener.Open(ctx, p.cfg.FlowLogs)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	scanner := flowlog.NewScanner(rc, flowlog.Options{
		Source:    p.cfg.FlowLogs,
		Protocols: flowlog.NewProtocolTable(p.cfg.Protocols),
		Strict:    p.cfg.Strict,
		Logger:    p.log,
	})
	next := func() (models.FlowRecord, bool) {
		if ctx.Err() != nil {
			return models.FlowRecord{}, false
		}
		return scanner.Next()
	}
	res.Report = report.Aggregate(next, table)
	res.FlowStats = scanner.Stats()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		p.log.WithField("records", res.Report.Summary.Records).Warn("run interrupted, no report written")
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"source":   p.cfg.FlowLogs,
		"records":  res.Report.Summary.Records,
		"untagged": res.Report.Summary.Untagged,
		"skipped":  res.FlowStats.Skipped,
	}).Info("flow logs aggregated")

	p.progress("Writing report to " + p.cfg.Output + "...")
	if err := report.WriteFile(p.cfg.Output, format, res.Report, order); err != nil {
		return nil, err
	}

	res.Finished = p.now()
	p.log.WithFields(logrus.Fields{
		"output":   p.cfg.Output,
		"duration": res.Finished.Sub(res.Started).String(),
	}).Info("report written")
	return res, nil
}
