package core

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// DefaultGrossPayFloor is the amount a bare number must exceed to be taken as
// gross pay by the fallback extractor.
const DefaultGrossPayFloor = 1000.0

var (
	personNamePattern = regexp.MustCompile(`^\p{L}[\p{L}'’.-]*(\s+\p{L}[\p{L}'’.-]*)+$`)
	nationalIDPattern = regexp.MustCompile(`^\d{5,}$`)
	taxPINPattern     = regexp.MustCompile(`^[A-Za-z]\d{9}[A-Za-z]$`)
	shortIDPattern    = regexp.MustCompile(`^\d{4,6}$`)
)

// extractRule recognizes one field from a bare cell value.
type extractRule struct {
	field FieldName
	// free reports whether the rule may still fire for this row.
	free  func(got map[FieldName]string) bool
	match func(v string) bool
	apply func(got map[FieldName]string, v string)
}

func unset(field FieldName) func(map[FieldName]string) bool {
	return func(got map[FieldName]string) bool {
		_, ok := got[field]
		return !ok
	}
}

func assign(field FieldName) func(map[FieldName]string, string) {
	return func(got map[FieldName]string, v string) {
		got[field] = v
	}
}

// fallbackRules returns the pattern chain in priority order. A cell is
// claimed by the first rule that is free and matches.
func fallbackRules(grossPayFloor float64) []extractRule {
	return []extractRule{
		{
			field: FieldFullName,
			free:  unset(FieldFullName),
			match: func(v string) bool {
				return utf8.RuneCountInString(v) > 3 && personNamePattern.MatchString(v)
			},
			apply: setName,
		},
		{
			field: FieldNationalID,
			free:  unset(FieldNationalID),
			match: nationalIDPattern.MatchString,
			apply: assign(FieldNationalID),
		},
		{
			field: FieldTaxPIN,
			free:  unset(FieldTaxPIN),
			match: taxPINPattern.MatchString,
			apply: assign(FieldTaxPIN),
		},
		{
			field: FieldSocialSecurityNumber,
			free: func(got map[FieldName]string) bool {
				return unset(FieldSocialSecurityNumber)(got) && unset(FieldNationalID)(got)
			},
			match: shortIDPattern.MatchString,
			apply: assign(FieldSocialSecurityNumber),
		},
		{
			field: FieldGrossPay,
			free:  unset(FieldGrossPay),
			match: func(v string) bool {
				amount, ok := ParseAmount(v)
				return ok && amount > grossPayFloor
			},
			apply: assign(FieldGrossPay),
		},
	}
}

// fallbackRow assembles a record from value patterns alone, ignoring labels.
func (p *Pipeline) fallbackRow(row RawRow) rowOutcome {
	if row.IsEmpty() {
		p.emit(Event{Kind: EventRowDropped, Stage: StageFallback, Line: row.Line, Message: "empty row"})
		return rowOutcome{dropped: true}
	}

	got := make(map[FieldName]string)
	found := 0
	for _, c := range row.Cells {
		v := CleanCell(c.Value)
		if v == "" {
			continue
		}
		for _, rule := range p.rules {
			if rule.free(got) && rule.match(v) {
				rule.apply(got, v)
				found++
				break
			}
		}
	}

	var reason string
	switch {
	case found == 0:
		reason = "Row does not contain recognizable employee data pattern"
	case found < p.opts.MinFields:
		reason = fmt.Sprintf("Could only identify %d fields (minimum %d required)", found, p.opts.MinFields)
	default:
		return rowOutcome{row: &NormalizedRow{Line: row.Line, Fields: got}}
	}

	p.emit(Event{Kind: EventRowFailed, Stage: StageFallback, Line: row.Line, Message: reason, Attrs: []any{"identified", found}})
	return rowOutcome{failed: &FailedRow{Line: row.Line, Stage: StageFallback, Reason: reason, Row: row}}
}
