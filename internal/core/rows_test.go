package core

import (
	"reflect"
	"testing"
)

func TestLabelRecords(t *testing.T) {
	header := []string{"NAME", "", "NAME", " "}
	records := [][]string{
		{"Jane Doe", "x", "Jane", "y", "extra"},
		{"John"},
	}

	rows := LabelRecords(header, records, 2)

	wantLabels := []string{"NAME", "__EMPTY", "NAME_1", "__EMPTY_1", "__EMPTY_2"}
	for i, r := range rows {
		if got := r.Labels(); !reflect.DeepEqual(got, wantLabels) {
			t.Errorf("row %d labels = %v, want %v", i, got, wantLabels)
		}
	}

	if rows[0].Line != 2 || rows[1].Line != 3 {
		t.Errorf("lines = %d, %d; want 2, 3", rows[0].Line, rows[1].Line)
	}
	if got := rows[1].Values(); !reflect.DeepEqual(got, []string{"John", "", "", "", ""}) {
		t.Errorf("padded values = %q", got)
	}
	if v, _ := rows[0].Get("__EMPTY_2"); v != "extra" {
		t.Errorf("Get(__EMPTY_2) = %q, want extra", v)
	}
}

func TestLabelRecords_Positional(t *testing.T) {
	rows := LabelRecords(nil, [][]string{{"a", "b"}}, 1)
	want := []string{"__EMPTY", "__EMPTY_1"}
	if got := rows[0].Labels(); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
	for _, l := range want {
		if !IsPlaceholder(l) {
			t.Errorf("IsPlaceholder(%q) = false", l)
		}
	}
}

func TestRawRow_NonBlank(t *testing.T) {
	r := RawRow{Cells: []Cell{{"a", " "}, {"b", "x"}, {"c", ""}, {"d", "0"}}}
	if got := r.NonBlank(); got != 2 {
		t.Errorf("NonBlank() = %d, want 2", got)
	}
	if r.IsEmpty() {
		t.Error("IsEmpty() = true, want false")
	}
}
