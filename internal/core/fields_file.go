package core

// fields_file.go loads alias-table overrides from YAML so new payroll-provider
// header conventions can be added without touching matching logic:
//
//	fields:
//	  - name: Gross Pay
//	    aliases: ["TOTAL PAY", "MONTHLY GROSS"]
//	  - name: Tax PIN
//	    header: PIN CERTIFICATE NO
//	    aliases: ["PIN CERT"]
//	    replace: true

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// FieldOverride adjusts one canonical field of the alias table.
type FieldOverride struct {
	Name    string   `yaml:"name" json:"name" validate:"required"`
	Header  string   `yaml:"header,omitempty" json:"header,omitempty"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty" validate:"dive,required"`
	Replace bool     `yaml:"replace,omitempty" json:"replace,omitempty"`
}

type fieldsFile struct {
	Fields []FieldOverride `yaml:"fields" validate:"required,min=1,dive"`
}

var overrideValidator = validator.New(validator.WithRequiredStructEnabled())

// ParseFieldOverrides decodes and validates an overrides document.
func ParseFieldOverrides(r io.Reader) ([]FieldOverride, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read alias overrides: %w", err)
	}

	var doc fieldsFile
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parse alias overrides: %w", err)
	}

	if err := overrideValidator.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid alias overrides: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid alias overrides: %w", err)
	}

	return doc.Fields, nil
}

// LoadFieldSet returns the default alias table with the overrides stored at
// path applied. An empty path yields the defaults.
func LoadFieldSet(path string) (*FieldSet, error) {
	fields := DefaultFields()
	if path == "" {
		return fields, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alias overrides: %w", err)
	}
	defer f.Close()

	overrides, err := ParseFieldOverrides(f)
	if err != nil {
		return nil, err
	}
	return fields.WithOverrides(overrides)
}

// Overrides renders s as replace-all overrides, a starting point for a
// custom alias file.
func (s *FieldSet) Overrides() []FieldOverride {
	out := make([]FieldOverride, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, FieldOverride{
			Name:    string(f.Name),
			Header:  f.Header,
			Aliases: append([]string(nil), f.Aliases...),
			Replace: true,
		})
	}
	return out
}

// WriteFieldOverrides writes overrides as a YAML document that
// ParseFieldOverrides accepts.
func WriteFieldOverrides(w io.Writer, overrides []FieldOverride) error {
	data, err := yaml.Marshal(fieldsFile{Fields: overrides})
	if err != nil {
		return fmt.Errorf("encode alias overrides: %w", err)
	}
	_, err = w.Write(data)
	return err
}
