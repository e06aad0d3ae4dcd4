package core

import (
	"context"
	"runtime"
)

// DefaultMinFields is the fewest fields a row needs to be accepted.
const DefaultMinFields = 3

// Options tunes a Pipeline. Zero values select the defaults.
type Options struct {
	Fields            *FieldSet
	MinFields         int
	GrossPayFloor     float64
	HeaderSearchRows  int
	Workers           int
	ParallelThreshold int
	Sink              Sink
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Fields:            DefaultFields(),
		MinFields:         DefaultMinFields,
		GrossPayFloor:     DefaultGrossPayFloor,
		HeaderSearchRows:  DefaultHeaderSearchRows,
		Workers:           runtime.GOMAXPROCS(0),
		ParallelThreshold: DefaultParallelThreshold,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Fields == nil {
		o.Fields = d.Fields
	}
	if o.MinFields <= 0 {
		o.MinFields = d.MinFields
	}
	if o.GrossPayFloor <= 0 {
		o.GrossPayFloor = d.GrossPayFloor
	}
	if o.HeaderSearchRows <= 0 {
		o.HeaderSearchRows = d.HeaderSearchRows
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.ParallelThreshold <= 0 {
		o.ParallelThreshold = d.ParallelThreshold
	}
	if o.Sink == nil {
		o.Sink = discardSink{}
	}
	return o
}

// Pipeline turns decoded sheets into normalized rows. A Pipeline holds no
// per-run state and may be shared between goroutines.
type Pipeline struct {
	opts  Options
	rules []extractRule
}

// NewPipeline creates a pipeline; unset options take their defaults.
func NewPipeline(opts Options) *Pipeline {
	opts = opts.withDefaults()
	return &Pipeline{
		opts:  opts,
		rules: fallbackRules(opts.GrossPayFloor),
	}
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

func (p *Pipeline) emit(e Event) {
	p.opts.Sink.Emit(e)
}

// Transform maps rows through mapping. Empty and stray rows are dropped
// silently; rows with fewer than MinFields mapped values fail.
func (p *Pipeline) Transform(ctx context.Context, rows []RawRow, mapping HeaderMapping) (StageResult, error) {
	return p.runStage(ctx, StageStructured, rows, func(r RawRow) rowOutcome {
		return p.transformRow(r, mapping, StageStructured)
	})
}

// Fallback assembles rows from value patterns alone.
func (p *Pipeline) Fallback(ctx context.Context, rows []RawRow) (StageResult, error) {
	return p.runStage(ctx, StageFallback, rows, p.fallbackRow)
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, rows []RawRow, classify func(RawRow) rowOutcome) (StageResult, error) {
	p.emit(Event{Kind: EventStageStarted, Stage: stage, Message: "stage started", Attrs: []any{"rows", len(rows)}})
	outcomes, err := p.classifyRows(ctx, rows, classify)
	if err != nil {
		return StageResult{}, err
	}
	res := collectOutcomes(outcomes)
	p.emit(Event{Kind: EventStageFinished, Stage: stage, Message: "stage finished",
		Attrs: []any{"accepted", len(res.Rows), "failed", len(res.Failed), "dropped", res.Dropped}})
	return res, nil
}

// mapHeader resolves header against the field set and reports each decision.
func (p *Pipeline) mapHeader(stage Stage, header []string) HeaderMapping {
	mapping, decisions := BuildMapping(p.opts.Fields, header)
	for _, d := range decisions {
		p.emit(Event{Kind: EventFieldMatched, Stage: stage, Message: "field matched",
			Attrs: []any{"field", string(d.Field), "label", d.Label, "tier", d.Tier.String()}})
	}
	return mapping
}

// Run drives a sheet through structured matching, header relocation and
// fallback extraction. The first stage producing rows wins. When none does,
// the result is empty and carries the failed rows of every attempted stage.
//
// A cancelled context yields only the context error.
func (p *Pipeline) Run(ctx context.Context, sheet *Sheet) (*ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := sheet.Records
	if len(records) == 0 {
		return finish(StageStructured, nil, 0, 0, StageResult{}), nil
	}

	var failed []FailedRow

	// Rows the fallback scans: the data below the last header that resolved
	// any field, or every record positionally when none did.
	fallbackRows := []RawRow(nil)

	// A first record that resolves some field but yields no rows is usually a
	// title; the real header is looked for below it.
	searchFrom := 0
	mapping := p.mapHeader(StageStructured, records[0])
	if len(mapping) > 0 {
		rows := LabelRecords(records[0], records[1:], 2)
		res, err := p.Transform(ctx, rows, mapping)
		if err != nil {
			return nil, err
		}
		if len(res.Rows) > 0 {
			return finish(StageStructured, mapping, 1, len(rows), res), nil
		}
		failed = append(failed, res.Failed...)
		fallbackRows = rows
		searchFrom = 1
	}

	if h, ok := p.locateHeader(records, searchFrom); ok {
		p.emit(Event{Kind: EventHeaderFound, Stage: StageRelocated, Line: h + 1, Message: "header row relocated"})
		relocated := p.mapHeader(StageRelocated, records[h])
		rows := LabelRecords(records[h], records[h+1:], h+2)
		res, err := p.runStage(ctx, StageRelocated, rows, func(r RawRow) rowOutcome {
			return p.transformRow(r, relocated, StageRelocated)
		})
		if err != nil {
			return nil, err
		}
		// Rows above the header are title rows.
		res.Dropped += h
		if len(res.Rows) > 0 {
			return finish(StageRelocated, relocated, h+1, len(records)-1, res), nil
		}
		failed = append(failed, res.Failed...)
		if len(relocated) > 0 {
			fallbackRows = rows
		}
	}

	if fallbackRows == nil {
		fallbackRows = LabelRecords(nil, records, 1)
	}
	res, err := p.Fallback(ctx, fallbackRows)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) > 0 {
		return finish(StageFallback, nil, 0, len(fallbackRows), res), nil
	}

	res.Failed = append(failed, res.Failed...)
	return finish(StageFallback, nil, 0, len(fallbackRows), res), nil
}

// locateHeader searches the leading records from index from on. The search
// bound counts from the top of the sheet.
func (p *Pipeline) locateHeader(records [][]string, from int) (int, bool) {
	limit := min(p.opts.HeaderSearchRows, len(records))
	if from >= limit {
		return -1, false
	}
	h, ok := LocateHeader(records[from:limit], p.opts.Fields, limit-from)
	if !ok {
		return -1, false
	}
	return h + from, true
}

func finish(stage Stage, mapping HeaderMapping, headerLine, inputRows int, res StageResult) *ExtractionResult {
	out := &ExtractionResult{
		Stage:      stage,
		Mapping:    mapping,
		HeaderLine: headerLine,
		InputRows:  inputRows,
		Dropped:    res.Dropped,
		Rows:       res.Rows,
		Failed:     res.Failed,
	}
	if out.Rows == nil {
		out.Rows = []NormalizedRow{}
	}
	if out.Failed == nil {
		out.Failed = []FailedRow{}
	}
	return out
}

// Extract decodes data according to the extension of name and runs it
// through a pipeline built from opts.
func Extract(ctx context.Context, name string, data []byte, opts Options) (*ExtractionResult, error) {
	sheet, err := Decode(name, data)
	if err != nil {
		return nil, err
	}
	return NewPipeline(opts).Run(ctx, sheet)
}
