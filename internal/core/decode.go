package core

// decode.go turns raw file bytes into records. The decoder is picked from the
// file extension alone; there is no content sniffing between formats.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format identifies the decoder used for a file.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
	FormatWorkbook Format = "xlsx"
)

// Decode failures. They are fatal for the run and wrapped in a *DecodeError.
var (
	ErrInvalidCSV        = errors.New("invalid csv")
	ErrInvalidWorkbook   = errors.New("invalid workbook")
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// DecodeError reports a file that could not be read as its claimed format.
type DecodeError struct {
	File   string
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("decode %s as %s: %v", e.File, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Sheet is a decoded file: every record of its first (or only) sheet.
type Sheet struct {
	Name      string     `json:"name"`
	Format    Format     `json:"format"`
	SheetName string     `json:"sheetName,omitempty"`
	Records   [][]string `json:"-"`
}

type decoder struct {
	format Format
	decode func(data []byte) (sheetName string, records [][]string, err error)
}

var decoders = map[string]decoder{
	".csv":  {FormatCSV, delimitedDecoder(',')},
	".txt":  {FormatCSV, delimitedDecoder(',')},
	".tsv":  {FormatTSV, delimitedDecoder('\t')},
	".xlsx": {FormatWorkbook, decodeWorkbook},
	".xlsm": {FormatWorkbook, decodeWorkbook},
	".xltx": {FormatWorkbook, decodeWorkbook},
	".xltm": {FormatWorkbook, decodeWorkbook},
}

// SupportedExtensions lists the file extensions Decode accepts.
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".txt", ".xlsm", ".xlsx", ".xltm", ".xltx"}
}

// DetectFormat returns the format Decode would use for name.
func DetectFormat(name string) (Format, bool) {
	d, ok := decoders[strings.ToLower(filepath.Ext(name))]
	return d.format, ok
}

// Decode reads data as the format implied by name's extension.
func Decode(name string, data []byte) (*Sheet, error) {
	d, ok := decoders[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return nil, &DecodeError{File: name, Err: ErrUnsupportedFormat}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DecodeError{File: name, Format: d.format, Err: ErrEmptyFile}
	}

	sheetName, records, err := d.decode(data)
	if err != nil {
		return nil, &DecodeError{File: name, Format: d.format, Err: err}
	}
	if len(records) == 0 {
		return nil, &DecodeError{File: name, Format: d.format, Err: ErrEmptyFile}
	}

	return &Sheet{Name: name, Format: d.format, SheetName: sheetName, Records: records}, nil
}

// delimitedDecoder reads delimited text. A UTF-8 or UTF-16 byte order mark is
// honoured and stripped; invalid UTF-8 becomes U+FFFD.
func delimitedDecoder(comma rune) func([]byte) (string, [][]string, error) {
	return func(data []byte) (string, [][]string, error) {
		text := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder()))

		r := csv.NewReader(text)
		r.Comma = comma
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		records, err := r.ReadAll()
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		return "", records, nil
	}
}

// decodeWorkbook reads the first sheet of a workbook. Missing cells read as "".
func decodeWorkbook(data []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, fmt.Errorf("%w: no sheets", ErrInvalidWorkbook)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	return sheets[0], rows, nil
}

// ReadAll reads at most limit bytes from r. It returns an error wrapping
// ErrFileTooLarge when r holds more.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (limit %d bytes)", ErrFileTooLarge, limit)
	}
	return data, nil
}

// ErrFileTooLarge is returned by ReadAll when input exceeds its limit.
var ErrFileTooLarge = errors.New("file too large")
