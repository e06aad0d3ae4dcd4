package core

import (
	"strconv"
	"strings"
)

// LabelRecords turns decoded records into RawRows labelled by header.
//
// Every row is padded to the widest record so a sparse row keeps its full
// column count. Blank header cells become placeholders (__EMPTY, __EMPTY_1,
// ...) and repeated labels get a numeric suffix, so labels are unique within
// a row. firstLine is the 1-based source line of records[0].
func LabelRecords(header []string, records [][]string, firstLine int) []RawRow {
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	labels := columnLabels(header, width)

	rows := make([]RawRow, len(records))
	for i, rec := range records {
		cells := make([]Cell, width)
		for j := range cells {
			cells[j].Label = labels[j]
			if j < len(rec) {
				cells[j].Value = rec[j]
			}
		}
		rows[i] = RawRow{Line: firstLine + i, Cells: cells}
	}
	return rows
}

// columnLabels returns width unique labels derived from header.
func columnLabels(header []string, width int) []string {
	labels := make([]string, width)
	seen := make(map[string]int, width)
	for i := range labels {
		base := ""
		if i < len(header) {
			base = CleanCell(header[i])
		}
		if base == "" {
			base = placeholderPrefix
		}
		labels[i] = uniqueLabel(base, seen)
	}
	return labels
}

func uniqueLabel(base string, seen map[string]int) string {
	label := base
	for {
		n, taken := seen[label]
		if !taken {
			break
		}
		seen[label] = n + 1
		label = base + "_" + strconv.Itoa(n+1)
	}
	seen[label] = 0
	return label
}

// isBlank reports whether a raw value carries no data.
func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}
