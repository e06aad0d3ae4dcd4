package core

import (
	"fmt"
	"strings"
)

// rowOutcome is the classification of one input row. Exactly one of row,
// failed or dropped is set.
type rowOutcome struct {
	row     *NormalizedRow
	failed  *FailedRow
	dropped bool
}

// StageResult is what one stage made of its input rows.
// len(Rows) + len(Failed) + Dropped equals the number of rows given to it.
type StageResult struct {
	Rows    []NormalizedRow
	Failed  []FailedRow
	Dropped int
}

func collectOutcomes(outcomes []rowOutcome) StageResult {
	var res StageResult
	for _, o := range outcomes {
		switch {
		case o.row != nil:
			res.Rows = append(res.Rows, *o.row)
		case o.failed != nil:
			res.Failed = append(res.Failed, *o.failed)
		default:
			res.Dropped++
		}
	}
	return res
}

// isStrayRow reports whether a row is too sparse to be a record: a title,
// subtotal or repeated header row.
func isStrayRow(r RawRow) bool {
	n := r.NonBlank()
	return n == 1 || (n < 3 && len(r.Cells) > 4)
}

// SplitName splits a full name on whitespace into the first token and the
// remaining tokens.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// setName stores a full name and its derived first and last names.
func setName(fields map[FieldName]string, full string) {
	first, last := SplitName(full)
	fields[FieldFullName] = full
	fields[FieldFirstName] = first
	fields[FieldLastName] = last
}

// transformRow maps one row through mapping.
func (p *Pipeline) transformRow(row RawRow, mapping HeaderMapping, stage Stage) rowOutcome {
	if row.IsEmpty() {
		p.emit(Event{Kind: EventRowDropped, Stage: stage, Line: row.Line, Message: "empty row"})
		return rowOutcome{dropped: true}
	}
	if isStrayRow(row) {
		p.emit(Event{Kind: EventRowDropped, Stage: stage, Line: row.Line, Message: "stray row"})
		return rowOutcome{dropped: true}
	}

	fields := make(map[FieldName]string, len(mapping)+2)
	mapped := 0
	for _, c := range row.Cells {
		name, ok := mapping[c.Label]
		if !ok {
			continue
		}
		v := CleanCell(c.Value)
		if v == "" {
			continue
		}
		if name == FieldFullName {
			setName(fields, v)
		} else {
			fields[name] = v
		}
		mapped++
	}

	if mapped < p.opts.MinFields {
		reason := fmt.Sprintf("Only %d fields could be mapped to known columns", mapped)
		p.emit(Event{Kind: EventRowFailed, Stage: stage, Line: row.Line, Message: reason, Attrs: []any{"mapped", mapped}})
		return rowOutcome{failed: &FailedRow{Line: row.Line, Stage: stage, Reason: reason, Row: row}}
	}
	return rowOutcome{row: &NormalizedRow{Line: row.Line, Fields: fields}}
}
