package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecode_Delimited(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		data       []byte
		wantFormat Format
		want       [][]string
	}{
		{
			name:       "csv",
			file:       "payroll.csv",
			data:       []byte("EMP NO,NAME\nE1,Jane Doe\n"),
			wantFormat: FormatCSV,
			want:       [][]string{{"EMP NO", "NAME"}, {"E1", "Jane Doe"}},
		},
		{
			name:       "utf-8 byte order mark stripped",
			file:       "payroll.csv",
			data:       append([]byte{0xEF, 0xBB, 0xBF}, "EMP NO,NAME\n"...),
			wantFormat: FormatCSV,
			want:       [][]string{{"EMP NO", "NAME"}},
		},
		{
			name:       "utf-16 export",
			file:       "payroll.txt",
			data:       []byte{0xFF, 0xFE, 'a', 0, ',', 0, 'b', 0, '\n', 0},
			wantFormat: FormatCSV,
			want:       [][]string{{"a", "b"}},
		},
		{
			name:       "invalid utf-8 replaced",
			file:       "payroll.csv",
			data:       []byte{'a', 0xFF, 'b', '\n'},
			wantFormat: FormatCSV,
			want:       [][]string{{"a\uFFFDb"}},
		},
		{
			name:       "tab separated",
			file:       "PAYROLL.TSV",
			data:       []byte("EMP NO\tNAME\nE1\tDoe, Jane\n"),
			wantFormat: FormatTSV,
			want:       [][]string{{"EMP NO", "NAME"}, {"E1", "Doe, Jane"}},
		},
		{
			name:       "ragged rows",
			file:       "payroll.csv",
			data:       []byte("a,b,c\n1\n"),
			wantFormat: FormatCSV,
			want:       [][]string{{"a", "b", "c"}, {"1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := Decode(tt.file, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, sheet.Format)
			assert.Equal(t, tt.want, sheet.Records)
			assert.Equal(t, tt.file, sheet.Name)
		})
	}
}

func TestDecode_Workbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "January"))
	_, err := f.NewSheet("February")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("January", "A1", "EMP NO"))
	require.NoError(t, f.SetCellValue("January", "C1", "GROSS PAY"))
	require.NoError(t, f.SetCellValue("January", "A2", "E1"))
	require.NoError(t, f.SetCellValue("January", "C2", 50000))
	require.NoError(t, f.SetCellValue("February", "A1", "ignored"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	sheet, err := Decode("payroll.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, FormatWorkbook, sheet.Format)
	assert.Equal(t, "January", sheet.SheetName)
	assert.Equal(t, [][]string{{"EMP NO", "", "GROSS PAY"}, {"E1", "", "50000"}}, sheet.Records)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		wantErr error
	}{
		{"unsupported extension", "payroll.pdf", []byte("%PDF"), ErrUnsupportedFormat},
		{"no extension", "payroll", []byte("a,b"), ErrUnsupportedFormat},
		{"empty csv", "payroll.csv", []byte("  \n"), ErrEmptyFile},
		{"bom only", "payroll.csv", []byte{0xEF, 0xBB, 0xBF}, ErrEmptyFile},
		{"corrupt workbook", "payroll.xlsx", []byte("not a zip archive"), ErrInvalidWorkbook},
		{"csv named as workbook", "payroll.xlsx", []byte("EMP NO,NAME\n"), ErrInvalidWorkbook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := Decode(tt.file, tt.data)
			assert.Nil(t, sheet)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "error %v does not wrap %v", err, tt.wantErr)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.file, decodeErr.File)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	for _, ext := range SupportedExtensions() {
		if _, ok := DetectFormat("file" + ext); !ok {
			t.Errorf("DetectFormat(%q) not supported", ext)
		}
	}
	if _, ok := DetectFormat("file.xls"); ok {
		t.Error("DetectFormat(.xls) should not be supported")
	}
}

func TestReadAll(t *testing.T) {
	data, err := ReadAll(bytesReader("0123456789"), 10)
	require.NoError(t, err)
	assert.Len(t, data, 10)

	_, err = ReadAll(bytesReader("0123456789A"), 10)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
