package core

import "strings"

// MatchTier ranks how a label was matched to a canonical field. Lower tiers
// are stronger and always win over higher ones.
type MatchTier int

const (
	TierExact     MatchTier = iota + 1 // label equals the canonical header
	TierAlias                          // label equals a known alias
	TierSubstring                      // label contains the header or vice versa
	TierToken                          // label shares a token longer than two runes
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierAlias:
		return "alias"
	case TierSubstring:
		return "substring"
	case TierToken:
		return "token"
	default:
		return "none"
	}
}

// placeholderPrefix marks labels synthesized for unnamed columns.
const placeholderPrefix = "__EMPTY"

// IsPlaceholder reports whether label was synthesized for an unnamed column.
func IsPlaceholder(label string) bool {
	return strings.HasPrefix(label, placeholderPrefix)
}

// matchStrategy is one tier of the column matcher. label is already folded.
type matchStrategy struct {
	tier  MatchTier
	match func(f *foldedField, label string) bool
}

// matchStrategies run in priority order; the first hit wins.
var matchStrategies = []matchStrategy{
	{TierExact, func(f *foldedField, label string) bool {
		return f.header != "" && label == f.header
	}},
	{TierAlias, func(f *foldedField, label string) bool {
		for _, a := range f.aliases {
			if label == a {
				return true
			}
		}
		return false
	}},
	{TierSubstring, func(f *foldedField, label string) bool {
		return f.header != "" && containsEither(label, f.header)
	}},
	{TierToken, func(f *foldedField, label string) bool {
		for _, lt := range labelTokens(label) {
			for _, ht := range f.tokens {
				if lt == ht {
					return true
				}
			}
		}
		return false
	}},
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// foldedField caches the comparison keys of a CanonicalField.
type foldedField struct {
	field   CanonicalField
	header  string
	aliases []string
	tokens  []string
}

func foldField(f CanonicalField) *foldedField {
	ff := &foldedField{field: f, header: foldLabel(f.Header)}
	for _, a := range f.Aliases {
		if k := foldLabel(a); k != "" {
			ff.aliases = append(ff.aliases, k)
		}
	}
	ff.tokens = labelTokens(ff.header)
	return ff
}

type candidate struct {
	label  string
	folded string
}

func candidates(labels []string) []candidate {
	out := make([]candidate, 0, len(labels))
	for _, l := range labels {
		if IsPlaceholder(l) {
			continue
		}
		if k := foldLabel(l); k != "" {
			out = append(out, candidate{label: l, folded: k})
		}
	}
	return out
}

// Match returns the label that best matches field, trying every tier in
// priority order before moving to the next. Placeholder labels never match.
func Match(field CanonicalField, labels []string) (string, MatchTier, bool) {
	ff := foldField(field)
	cands := candidates(labels)
	for _, s := range matchStrategies {
		for _, c := range cands {
			if s.match(ff, c.folded) {
				return c.label, s.tier, true
			}
		}
	}
	return "", 0, false
}

// MappingDecision records how one canonical field was resolved.
type MappingDecision struct {
	Field FieldName `json:"field"`
	Label string    `json:"label"`
	Tier  MatchTier `json:"tier"`
}

// BuildMapping resolves labels against every field of fields.
//
// Tiers are applied across all fields before the next tier is tried, and a
// label claimed by one field is not offered to another, so a weak match for
// one field cannot take a label that an exact match gives to a later field.
func BuildMapping(fields *FieldSet, labels []string) (HeaderMapping, []MappingDecision) {
	folded := make([]*foldedField, 0, fields.Len())
	for _, f := range fields.fields {
		folded = append(folded, foldField(f))
	}
	cands := candidates(labels)

	mapping := make(HeaderMapping)
	resolved := make(map[FieldName]bool)
	var decisions []MappingDecision

	for _, s := range matchStrategies {
		for _, ff := range folded {
			if resolved[ff.field.Name] {
				continue
			}
			for _, c := range cands {
				if _, taken := mapping[c.label]; taken {
					continue
				}
				if s.match(ff, c.folded) {
					mapping[c.label] = ff.field.Name
					resolved[ff.field.Name] = true
					decisions = append(decisions, MappingDecision{Field: ff.field.Name, Label: c.label, Tier: s.tier})
					break
				}
			}
		}
	}

	return mapping, decisions
}
