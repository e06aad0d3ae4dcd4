package core

import "unicode/utf8"

// DefaultHeaderSearchRows bounds how far down a sheet the header locator looks.
const DefaultHeaderSearchRows = 10

// minHeaderRunes is the shortest cell value or header key the locator compares.
// Shorter strings ("ID", "NO") are contained in too many unrelated values.
const minHeaderRunes = 3

// LocateHeader finds the first of the leading limit records holding a cell
// whose value resembles a canonical header or alias (substring containment in
// either direction). It returns the record index, or false when no record
// within the bound qualifies.
func LocateHeader(records [][]string, fields *FieldSet, limit int) (int, bool) {
	if limit <= 0 {
		limit = DefaultHeaderSearchRows
	}
	if limit > len(records) {
		limit = len(records)
	}

	keys := headerKeys(fields)
	for i := 0; i < limit; i++ {
		for _, v := range records[i] {
			if resemblesHeader(foldLabel(v), keys) {
				return i, true
			}
		}
	}
	return -1, false
}

// headerKeys collects the folded headers and aliases long enough to compare.
func headerKeys(fields *FieldSet) []string {
	var keys []string
	for _, f := range fields.fields {
		ff := foldField(f)
		if utf8.RuneCountInString(ff.header) >= minHeaderRunes {
			keys = append(keys, ff.header)
		}
		for _, a := range ff.aliases {
			if utf8.RuneCountInString(a) >= minHeaderRunes {
				keys = append(keys, a)
			}
		}
	}
	return keys
}

func resemblesHeader(value string, keys []string) bool {
	if utf8.RuneCountInString(value) < minHeaderRunes {
		return false
	}
	for _, k := range keys {
		if containsEither(value, k) {
			return true
		}
	}
	return false
}
