package core

import "strings"

// FieldName identifies a canonical output column.
type FieldName string

// Canonical fields. The set is closed: adding a member requires a matching
// entry in DefaultFields.
const (
	FieldEmployeeNumber          FieldName = "Employee Number"
	FieldFullName                FieldName = "Full Name"
	FieldNationalID              FieldName = "National ID"
	FieldTaxPIN                  FieldName = "Tax PIN"
	FieldSocialSecurityNumber    FieldName = "Social-Security Number"
	FieldPosition                FieldName = "Position"
	FieldGrossPay                FieldName = "Gross Pay"
	FieldPAYE                    FieldName = "PAYE"
	FieldSocialSecurityDeduction FieldName = "Social-Security Deduction"
	FieldHealthInsuranceNumber   FieldName = "Health-Insurance Number"
	FieldHousingLevy             FieldName = "Housing Levy"
	FieldLoanDeduction           FieldName = "Loan Deduction"
	FieldEmployerAdvance         FieldName = "Employer Advance"
)

// Fields derived from Full Name.
const (
	FieldFirstName FieldName = "First Name"
	FieldLastName  FieldName = "Last Name"
)

// Cell is one labelled value of a RawRow.
type Cell struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// RawRow is an ordered mapping from source column label to raw cell value.
// Line is the 1-based line (or sheet row) the values came from.
type RawRow struct {
	Line  int    `json:"line"`
	Cells []Cell `json:"cells"`
}

// Get returns the value stored under label.
func (r RawRow) Get(label string) (string, bool) {
	for _, c := range r.Cells {
		if c.Label == label {
			return c.Value, true
		}
	}
	return "", false
}

// Labels returns the column labels in source order.
func (r RawRow) Labels() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Label
	}
	return out
}

// Values returns the raw values in source order.
func (r RawRow) Values() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Value
	}
	return out
}

// NonBlank counts cells holding something other than whitespace.
func (r RawRow) NonBlank() int {
	n := 0
	for _, c := range r.Cells {
		if strings.TrimSpace(c.Value) != "" {
			n++
		}
	}
	return n
}

// IsEmpty reports whether every cell is blank.
func (r RawRow) IsEmpty() bool {
	return r.NonBlank() == 0
}

// HeaderMapping maps a source column label to the canonical field it resolved to.
// Unresolved labels are absent.
type HeaderMapping map[string]FieldName

// LabelFor returns the source label resolved to field.
func (m HeaderMapping) LabelFor(field FieldName) (string, bool) {
	for label, f := range m {
		if f == field {
			return label, true
		}
	}
	return "", false
}

// NormalizedRow holds the values extracted for one accepted input row.
type NormalizedRow struct {
	Line   int                  `json:"line"`
	Fields map[FieldName]string `json:"fields"`
}

// Get returns the value for field, or "" when it was not extracted.
func (r NormalizedRow) Get(field FieldName) string {
	return r.Fields[field]
}

// Stage names a state of the extraction pipeline.
type Stage string

const (
	StageStructured Stage = "structured_match"
	StageRelocated  Stage = "header_relocate"
	StageFallback   Stage = "fallback_extract"
)

// FailedRow is an input row excluded from output for a named reason.
type FailedRow struct {
	Line   int    `json:"line"`
	Stage  Stage  `json:"stage"`
	Reason string `json:"reason"`
	Row    RawRow `json:"row"`
}

// ExtractionResult is the terminal value of one pipeline run.
//
// Rows and Failed keep input order. When no stage produced rows, Failed holds
// the failed rows of every attempted stage, in stage order.
type ExtractionResult struct {
	Stage      Stage           `json:"stage"`
	Mapping    HeaderMapping   `json:"mapping,omitempty"`
	HeaderLine int             `json:"headerLine,omitempty"`
	InputRows  int             `json:"inputRows"`
	Dropped    int             `json:"dropped"`
	Rows       []NormalizedRow `json:"rows"`
	Failed     []FailedRow     `json:"failed"`
}

// Empty reports whether no row could be normalized. This is a result the
// caller has to surface, not an error.
func (r *ExtractionResult) Empty() bool {
	return r == nil || len(r.Rows) == 0
}
