package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// LookupFunc resolves a table key to its definition.
type LookupFunc func(key string) (TableDefinition, bool)

// Recorder receives per-table outcomes. internal/metrics implements it.
type Recorder interface {
	TableLoaded(table string, rows, derived int)
	TableFailed(table, code string)
}

// TableReport is the outcome of loading one table.
type TableReport struct {
	Table    string
	Files    int
	Rows     int
	Derived  int
	Err      error
	Code     string
	Duration time.Duration
}

// OK reports whether the table loaded without error.
func (r TableReport) OK() bool {
	return r.Err == nil
}

// RunReport is the outcome of a whole run.
type RunReport struct {
	Tables   []TableReport
	Duration time.Duration
}

// Failed returns the tables whose import failed.
func (r RunReport) Failed() []TableReport {
	var failed []TableReport
	for _, t := range r.Tables {
		if !t.OK() {
			failed = append(failed, t)
		}
	}
	return failed
}

// Rows returns the number of rows inserted across all tables.
func (r RunReport) Rows() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Rows + t.Derived
	}
	return total
}

// Pipeline reads every configured file and loads it into a sink in LoadOrder.
type Pipeline struct {
	Sink     Sink
	Logger   *slog.Logger
	Recorder Recorder   // optional
	Lookup   LookupFunc // defaults to the registry
	Order    []string   // defaults to LoadOrder
}

// NewPipeline creates a pipeline over sink using the table registry.
func NewPipeline(sink Sink, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Sink:   sink,
		Logger: logger,
		Lookup: Get,
		Order:  LoadOrder,
	}
}

// Run extracts every input and then loads it. A non-nil error is fatal;
// per-table failures are only reported.
func (p *Pipeline) Run(ctx context.Context, inputs Inputs) (RunReport, error) {
	data, err := p.Extract(ctx, inputs)
	if err != nil {
		return RunReport{}, err
	}
	return p.Load(ctx, data)
}

// Extract reads every file of every configured table. Any unknown table,
// unreadable file or empty record set aborts before anything is loaded.
func (p *Pipeline) Extract(ctx context.Context, inputs Inputs) (Extracted, error) {
	if err := p.validate(inputs); err != nil {
		return nil, err
	}

	data := make(Extracted, len(inputs))
	for _, table := range p.order() {
		for _, path := range inputs[table] {
			if err := ctx.Err(); err != nil {
				return nil, &FatalError{Op: "extract", Err: err}
			}

			rs, err := ReadFile(path, p.Logger)
			if err != nil {
				return nil, err
			}
			if rs.Len() == 0 {
				return nil, &FatalError{Op: "extract", Path: path, Err: ErrEmptyInput}
			}

			p.Logger.Info("file extracted", "table", table, "file", path, "rows", rs.Len())
			data[table] = append(data[table], rs)
		}
	}

	return data, nil
}

// Load inserts extracted data table by table in order. A table whose import
// fails is logged and skipped; later tables are still attempted.
func (p *Pipeline) Load(ctx context.Context, data Extracted) (RunReport, error) {
	start := time.Now()
	report := RunReport{}

	for _, table := range p.order() {
		sets, ok := data[table]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, &FatalError{Op: "load", Err: err}
		}

		def, ok := p.lookup()(table)
		if !ok {
			report.Duration = time.Since(start)
			return report, &FatalError{Op: "load", Err: fmt.Errorf("%w: %s", ErrUnknownTable, table)}
		}

		tr := p.loadTable(ctx, def, sets)
		report.Tables = append(report.Tables, tr)
	}

	report.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return report, &FatalError{Op: "load", Err: err}
	}
	return report, nil
}

func (p *Pipeline) loadTable(ctx context.Context, def TableDefinition, sets []*RecordSet) TableReport {
	start := time.Now()
	tr := TableReport{Table: def.Info.Key}

	for _, rs := range sets {
		res, err := importRecordSet(ctx, p.Sink, def, rs, p.lookup())
		if err != nil {
			tr.Err = fmt.Errorf("%s: %w", rs.Source, err)
			tr.Code = ClassifyFailure(err)
			break
		}
		tr.Files++
		tr.Rows += res.Rows
		tr.Derived += res.Derived
	}
	tr.Duration = time.Since(start)

	if tr.Err != nil {
		p.Logger.Error("table import failed",
			"table", tr.Table,
			"label", def.Info.Label,
			"code", tr.Code,
			"rows_committed", tr.Rows,
			"error", tr.Err,
		)
		if p.Recorder != nil {
			p.Recorder.TableFailed(tr.Table, tr.Code)
		}
		return tr
	}

	p.Logger.Info("table imported successfully",
		"table", tr.Table,
		"label", def.Info.Label,
		"files", tr.Files,
		"rows", tr.Rows,
		"derived_rows", tr.Derived,
		"duration", tr.Duration,
	)
	if p.Recorder != nil {
		p.Recorder.TableLoaded(tr.Table, tr.Rows, tr.Derived)
	}
	return tr
}

func (p *Pipeline) validate(inputs Inputs) error {
	known := make(map[string]bool, len(p.order()))
	for _, t := range p.order() {
		known[t] = true
	}

	var unknown []string
	for table := range inputs {
		if !known[table] {
			unknown = append(unknown, table)
			continue
		}
		if _, ok := p.lookup()(table); !ok {
			unknown = append(unknown, table)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Strings(unknown)
	errs := make([]error, len(unknown))
	for i, t := range unknown {
		errs[i] = fmt.Errorf("%w: %s", ErrUnknownTable, t)
	}
	return &FatalError{Op: "plan", Err: errors.Join(errs...)}
}

func (p *Pipeline) order() []string {
	if len(p.Order) > 0 {
		return p.Order
	}
	return LoadOrder
}

func (p *Pipeline) lookup() LookupFunc {
	if p.Lookup != nil {
		return p.Lookup
	}
	return Get
}
