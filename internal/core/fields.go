package core

import (
	"fmt"
	"strings"
)

// CanonicalField describes one target column and the headers known to mean it.
type CanonicalField struct {
	Name    FieldName `json:"name"`
	Header  string    `json:"header"`  // canonical source header, used by every match tier
	Aliases []string  `json:"aliases"` // synonyms, used only for exact matching
}

// FieldSet is the alias table: the ordered, closed set of canonical fields.
// A FieldSet is immutable once built; overrides produce a new set.
type FieldSet struct {
	fields []CanonicalField
	index  map[FieldName]int
}

// NewFieldSet builds a FieldSet from fields in priority order.
// Returns an error on duplicate or empty names.
func NewFieldSet(fields []CanonicalField) (*FieldSet, error) {
	s := &FieldSet{
		fields: make([]CanonicalField, 0, len(fields)),
		index:  make(map[FieldName]int, len(fields)),
	}
	for _, f := range fields {
		if strings.TrimSpace(string(f.Name)) == "" {
			return nil, fmt.Errorf("canonical field with empty name")
		}
		if _, exists := s.index[f.Name]; exists {
			return nil, fmt.Errorf("canonical field registered twice: %s", f.Name)
		}
		f.Aliases = append([]string(nil), f.Aliases...)
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// DefaultFields returns a fresh copy of the built-in alias table.
func DefaultFields() *FieldSet {
	s, err := NewFieldSet(defaultFields())
	if err != nil {
		panic(err)
	}
	return s
}

func defaultFields() []CanonicalField {
	return []CanonicalField{
		{
			Name:   FieldEmployeeNumber,
			Header: "EMPLO NO.",
			Aliases: []string{
				"EMP NO", "EMP NO.", "EMPLOYEE NO", "EMPLOYEE NO.", "EMPLOYEE NUMBER",
				"EMP ID", "EMPLOYEE ID", "STAFF NO", "STAFF NUMBER", "PAYROLL NO", "PF NO",
			},
		},
		{
			Name:   FieldFullName,
			Header: "EMPLOYEES' FULL NAMES",
			Aliases: []string{
				"FULL NAME", "FULL NAMES", "EMPLOYEE NAME", "EMPLOYEE NAMES",
				"EMPLOYEES NAMES", "STAFF NAME", "NAME", "NAMES",
			},
		},
		{
			Name:    FieldNationalID,
			Header:  "ID NO.",
			Aliases: []string{"ID NO", "ID NUMBER", "NATIONAL ID", "NATIONAL ID NO", "NAT ID", "ID"},
		},
		{
			Name:    FieldTaxPIN,
			Header:  "KRA PIN",
			Aliases: []string{"PIN", "PIN NO", "PIN NUMBER", "TAX PIN", "KRA PIN NO", "TAX ID"},
		},
		{
			Name:    FieldSocialSecurityNumber,
			Header:  "NSSF NO.",
			Aliases: []string{"NSSF NO", "NSSF NUMBER", "SOCIAL SECURITY NO", "SOCIAL SECURITY NUMBER", "SSN"},
		},
		{
			Name:    FieldPosition,
			Header:  "DESIGNATION",
			Aliases: []string{"POSITION", "JOB TITLE", "TITLE", "ROLE", "JOB"},
		},
		{
			Name:   FieldGrossPay,
			Header: "GROSS PAY",
			Aliases: []string{
				"BASIC SALARY", "BASIC PAY", "GROSS SALARY", "GROSS", "SALARY", "TOTAL EARNINGS",
			},
		},
		{
			Name:    FieldPAYE,
			Header:  "PAYE",
			Aliases: []string{"P.A.Y.E", "P.A.Y.E.", "PAYE TAX", "INCOME TAX"},
		},
		{
			Name:    FieldSocialSecurityDeduction,
			Header:  "NSSF",
			Aliases: []string{"NSSF DEDUCTION", "NSSF CONTRIBUTION", "SOCIAL SECURITY"},
		},
		{
			Name:    FieldHealthInsuranceNumber,
			Header:  "NHIF NO.",
			Aliases: []string{"NHIF NO", "NHIF NUMBER", "SHIF NO", "SHA NO", "HEALTH INSURANCE NO"},
		},
		{
			Name:    FieldHousingLevy,
			Header:  "HOUSING LEVY",
			Aliases: []string{"AHL", "AFFORDABLE HOUSING LEVY", "HOUSING"},
		},
		{
			Name:    FieldLoanDeduction,
			Header:  "LOAN",
			Aliases: []string{"LOANS", "LOAN DEDUCTION", "LOAN REPAYMENT"},
		},
		{
			Name:    FieldEmployerAdvance,
			Header:  "ADVANCE",
			Aliases: []string{"ADVANCES", "SALARY ADVANCE", "EMPLOYER ADVANCE"},
		},
	}
}

// Fields returns a copy of the canonical fields in priority order.
func (s *FieldSet) Fields() []CanonicalField {
	out := make([]CanonicalField, len(s.fields))
	for i, f := range s.fields {
		f.Aliases = append([]string(nil), f.Aliases...)
		out[i] = f
	}
	return out
}

// Get returns a canonical field by name.
func (s *FieldSet) Get(name FieldName) (CanonicalField, bool) {
	i, ok := s.index[name]
	if !ok {
		return CanonicalField{}, false
	}
	f := s.fields[i]
	f.Aliases = append([]string(nil), f.Aliases...)
	return f, true
}

// Len returns the number of canonical fields.
func (s *FieldSet) Len() int {
	return len(s.fields)
}

// Names returns the field names in priority order.
func (s *FieldSet) Names() []FieldName {
	out := make([]FieldName, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// OutputColumns returns the export column order: every canonical field, with
// First Name and Last Name directly after Full Name.
func (s *FieldSet) OutputColumns() []FieldName {
	out := make([]FieldName, 0, len(s.fields)+2)
	for _, f := range s.fields {
		out = append(out, f.Name)
		if f.Name == FieldFullName {
			out = append(out, FieldFirstName, FieldLastName)
		}
	}
	return out
}

// WithOverrides returns a copy of s with overrides applied. An override may
// replace a field's header and extend or replace its aliases; naming a field
// outside the set is an error.
func (s *FieldSet) WithOverrides(overrides []FieldOverride) (*FieldSet, error) {
	fields := s.Fields()
	for _, o := range overrides {
		i, ok := s.index[FieldName(o.Name)]
		if !ok {
			return nil, fmt.Errorf("unknown canonical field %q", o.Name)
		}
		if h := strings.TrimSpace(o.Header); h != "" {
			fields[i].Header = h
		}
		if o.Replace {
			fields[i].Aliases = nil
		}
		for _, a := range o.Aliases {
			if a = strings.TrimSpace(a); a != "" && !containsFold(fields[i].Aliases, a) {
				fields[i].Aliases = append(fields[i].Aliases, a)
			}
		}
	}
	return NewFieldSet(fields)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
