package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func csvLines(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func extractCSV(t *testing.T, opts Options, lines ...string) *ExtractionResult {
	t.Helper()
	res, err := Extract(context.Background(), "payroll.csv", csvLines(lines...), opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestPipeline_ExactHeaders(t *testing.T) {
	res := extractCSV(t, Options{},
		"EMPLO NO.,EMPLOYEES' FULL NAMES,BASIC SALARY",
		"E1,Jane Doe,50000",
	)

	assert.Equal(t, StageStructured, res.Stage)
	require.Len(t, res.Rows, 1)
	assert.Empty(t, res.Failed)

	row := res.Rows[0]
	assert.Equal(t, "E1", row.Get(FieldEmployeeNumber))
	assert.Equal(t, "Jane", row.Get(FieldFirstName))
	assert.Equal(t, "Doe", row.Get(FieldLastName))
	assert.Equal(t, "Jane Doe", row.Get(FieldFullName))
	assert.Equal(t, "50000", row.Get(FieldGrossPay))
	assert.Equal(t, 1, res.HeaderLine)
}

func TestPipeline_AliasHeadersMatchExact(t *testing.T) {
	exact := extractCSV(t, Options{},
		"EMPLO NO.,EMPLOYEES' FULL NAMES,BASIC SALARY",
		"E1,Jane Doe,50000",
	)
	alias := extractCSV(t, Options{},
		"EMP NO,EMPLOYEES' FULL NAMES,BASIC SALARY",
		"E1,Jane Doe,50000",
	)

	assert.Equal(t, exact.Rows, alias.Rows)
	assert.Equal(t, exact.Stage, alias.Stage)
}

func TestPipeline_RelocatesHeader(t *testing.T) {
	res := extractCSV(t, Options{},
		"ACME HOLDINGS LTD,,",
		"MONTHLY STATEMENT - JANUARY 2024,,",
		"EMP NO,NAME,GROSS PAY",
		"E1,Jane Doe,50000",
		"E2,John Smith,60000",
	)

	assert.Equal(t, StageRelocated, res.Stage)
	assert.Equal(t, 3, res.HeaderLine)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "E1", res.Rows[0].Get(FieldEmployeeNumber))
	assert.Equal(t, 4, res.Rows[0].Line)
	assert.Equal(t, "Smith", res.Rows[1].Get(FieldLastName))
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, res.InputRows, len(res.Rows)+len(res.Failed)+res.Dropped)
}

func TestPipeline_RelocatesBelowMatchingTitle(t *testing.T) {
	// The title resolves one field by token, so the structured stage runs
	// and produces nothing before the real header is found.
	res := extractCSV(t, Options{},
		"EMPLOYEES PAYROLL MARCH 2024,,,",
		"EMP NO,NAME,ID NO,GROSS PAY",
		"E1,Jane Doe,12345678,50000",
	)

	assert.Equal(t, StageRelocated, res.Stage)
	assert.Equal(t, 2, res.HeaderLine)
	require.Len(t, res.Rows, 1)
	assert.Empty(t, res.Failed)

	row := res.Rows[0]
	assert.Equal(t, "E1", row.Get(FieldEmployeeNumber))
	assert.Equal(t, "12345678", row.Get(FieldNationalID))
	assert.Equal(t, "50000", row.Get(FieldGrossPay))
	assert.Equal(t, 3, row.Line)
	assert.Equal(t, res.InputRows, len(res.Rows)+len(res.Failed)+res.Dropped)
}

func TestPipeline_StrayRowDroppedSilently(t *testing.T) {
	res := extractCSV(t, Options{},
		"EMPLO NO.,EMPLOYEES' FULL NAMES,ID NO.,KRA PIN,BASIC SALARY,PAYE",
		"E1,Jane Doe,12345678,A123456789B,50000,5000",
		",John Smith,,,,",
	)

	require.Len(t, res.Rows, 1)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 1, res.Dropped)
}

func TestPipeline_FallbackOnUnstructuredDump(t *testing.T) {
	res := extractCSV(t, Options{}, "Mary Achieng,12345678,45000")

	assert.Equal(t, StageFallback, res.Stage)
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, "Mary", row.Get(FieldFirstName))
	assert.Equal(t, "Achieng", row.Get(FieldLastName))
	assert.Equal(t, "12345678", row.Get(FieldNationalID))
	assert.Equal(t, "45000", row.Get(FieldGrossPay))
	assert.Equal(t, 1, row.Line)
}

func TestPipeline_EmptyResultKeepsEveryStageDiagnostics(t *testing.T) {
	res := extractCSV(t, Options{},
		"EMPLO NO.,Dept,Region,Notes",
		"E1,HR,Nairobi,x",
	)

	assert.True(t, res.Empty())
	assert.Equal(t, StageFallback, res.Stage)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, StageStructured, res.Failed[0].Stage)
	assert.Equal(t, "Only 1 fields could be mapped to known columns", res.Failed[0].Reason)
	assert.Equal(t, StageFallback, res.Failed[1].Stage)
	assert.Equal(t, "Row does not contain recognizable employee data pattern", res.Failed[1].Reason)
}

func TestPipeline_RowCountInvariant(t *testing.T) {
	res := extractCSV(t, Options{},
		"EMPLO NO.,EMPLOYEES' FULL NAMES,KRA PIN,BASIC SALARY,PAYE,Dept",
		"E1,Jane Doe,A123456789B,50000,5000,HR",
		",,,,,",
		"TOTALS,,,,,",
		"E2,John Smith,,,,HR",
		"E3,Ann Wanjiru,B987654321C,62000,,FIN",
		"E4,,,,,",
	)

	assert.Equal(t, 6, res.InputRows)
	assert.Len(t, res.Rows, 2)
	assert.Len(t, res.Failed, 1)
	assert.Equal(t, 3, res.Dropped)
	assert.Equal(t, res.InputRows, len(res.Rows)+len(res.Failed)+res.Dropped)
}

func TestPipeline_Idempotent(t *testing.T) {
	data := csvLines(
		"EMP NO,NAME,ID NO,GROSS PAY,PAYE,HOUSING LEVY",
		"E1,Jane Doe,12345678,50000,5000,750",
		"E2,John,,,,",
		"E3,John Smith,23456789,60000,6500,900",
	)

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		res, err := Extract(context.Background(), "payroll.csv", data, Options{})
		require.NoError(t, err)
		b, err := json.Marshal(res)
		require.NoError(t, err)
		outputs = append(outputs, b)
	}
	assert.Equal(t, string(outputs[0]), string(outputs[1]))
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Extract(ctx, "payroll.csv", csvLines("EMP NO,NAME,GROSS PAY", "E1,Jane Doe,50000"), Options{})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPipeline_DecodeErrorIsFatal(t *testing.T) {
	res, err := Extract(context.Background(), "payroll.pdf", []byte("%PDF-1.4"), Options{})
	assert.Nil(t, res)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPipeline_ReportsToSink(t *testing.T) {
	rec := &Recorder{}
	extractCSV(t, Options{Sink: rec},
		"ACME HOLDINGS LTD,,",
		"EMP NO,NAME,GROSS PAY",
		"E1,Jane Doe,50000",
		"E2,John,",
	)

	assert.Equal(t, 1, rec.Count(EventHeaderFound))
	assert.Equal(t, 3, rec.Count(EventFieldMatched))
	assert.Equal(t, 1, rec.Count(EventRowFailed))
	assert.Equal(t, rec.Count(EventStageStarted), rec.Count(EventStageFinished))
}

func TestPipeline_Workbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"PAYROLL JANUARY"},
		{"STAFF NO", "EMPLOYEE NAME", "KRA PIN", "GROSS SALARY", "NHIF NO."},
		{"S-01", "Grace Njeri", "A000111222Z", 81000, "N-77"},
		{"S-02", "", "", "", ""},
	}
	for r, vals := range rows {
		for c, v := range vals {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := Extract(context.Background(), "January.XLSX", buf.Bytes(), Options{})
	require.NoError(t, err)

	assert.Equal(t, StageRelocated, res.Stage)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "S-01", res.Rows[0].Get(FieldEmployeeNumber))
	assert.Equal(t, "Grace", res.Rows[0].Get(FieldFirstName))
	assert.Equal(t, "A000111222Z", res.Rows[0].Get(FieldTaxPIN))
	assert.Equal(t, "81000", res.Rows[0].Get(FieldGrossPay))
	assert.Equal(t, "N-77", res.Rows[0].Get(FieldHealthInsuranceNumber))
	assert.Equal(t, 2, res.Dropped)
}
