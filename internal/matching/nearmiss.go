package matching

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FieldResult describes whether a single leaf of a predicate matched.
type FieldResult struct {
	// Field is the dotted path of the leaf, e.g. "params.id".
	Field    string `json:"field"`
	Matched  bool   `json:"matched"`
	Missing  bool   `json:"missing,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
}

// NearMiss is a predicate that partially matched a parameter set.
type NearMiss struct {
	// Candidate is the index of the fixture candidate the predicate belongs to.
	Candidate        int           `json:"candidate"`
	Name             string        `json:"name,omitempty"`
	Score            int           `json:"score"`
	MaxPossibleScore int           `json:"maxPossibleScore"`
	MatchPercentage  int           `json:"matchPercentage"`
	Fields           []FieldResult `json:"fields"`
	Reason           string        `json:"reason"`
}

// MatchBreakdown evaluates every leaf of predicate against actual without
// short-circuiting. It uses the same rules as Contains: each leaf scores one
// point when it holds.
func MatchBreakdown(predicate, actual any) *NearMiss {
	result := &NearMiss{}
	breakdown("", predicate, actual, true, &result.Fields)

	for _, f := range result.Fields {
		if f.Matched {
			result.Score++
		}
	}
	result.MaxPossibleScore = len(result.Fields)
	if result.MaxPossibleScore > 0 {
		result.MatchPercentage = (result.Score * 100) / result.MaxPossibleScore
	} else {
		result.MatchPercentage = 100
	}
	result.Reason = GenerateReason(result.Fields)
	return result
}

// BestBreakdown returns the breakdown of the predicate in predicates that
// scores highest against actual, or nil for an empty list.
func BestBreakdown(predicates []any, actual any) *NearMiss {
	var best *NearMiss
	for _, p := range predicates {
		nm := MatchBreakdown(p, actual)
		if best == nil || nm.MatchPercentage > best.MatchPercentage ||
			(nm.MatchPercentage == best.MatchPercentage && nm.Score > best.Score) {
			best = nm
		}
	}
	return best
}

// SortNearMisses orders near misses by percentage, then score, descending,
// and keeps the first topN. topN <= 0 means 3.
func SortNearMisses(misses []NearMiss, topN int) []NearMiss {
	if topN <= 0 {
		topN = 3
	}
	sort.SliceStable(misses, func(i, j int) bool {
		if misses[i].MatchPercentage != misses[j].MatchPercentage {
			return misses[i].MatchPercentage > misses[j].MatchPercentage
		}
		return misses[i].Score > misses[j].Score
	})
	if len(misses) > topN {
		misses = misses[:topN]
	}
	return misses
}

func breakdown(path string, predicate, actual any, present bool, out *[]FieldResult) {
	leaf := func(matched bool) {
		f := FieldResult{Field: path, Matched: matched, Expected: predicate}
		if present {
			f.Actual = actual
		} else {
			f.Missing = true
		}
		*out = append(*out, f)
	}

	switch p := predicate.(type) {
	case Set:
		leaf(present && setContained(p, actual))
		return
	case *Set:
		leaf(present && Contains(p, actual))
		return
	}

	pm, ok := asMap(predicate)
	if !ok {
		leaf(present && Equal(predicate, actual))
		return
	}

	am, isMap := asMap(actual)
	if present && !isMap {
		leaf(false)
		return
	}

	keys := make([]string, 0, len(pm))
	for k := range pm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		av, ok := am[k]
		breakdown(joinPath(path, k), pm[k], av, present && ok, out)
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// GenerateReason creates a human-readable explanation of why a predicate
// partially matched but ultimately failed.
func GenerateReason(fields []FieldResult) string {
	if len(fields) == 0 {
		return "no fields to compare"
	}

	var matched []string
	var firstMismatch *FieldResult

	for i := range fields {
		if fields[i].Matched {
			matched = append(matched, fields[i].Field)
		} else if firstMismatch == nil {
			firstMismatch = &fields[i]
		}
	}

	if firstMismatch == nil {
		return "all specified fields matched"
	}

	if len(matched) == 0 {
		return formatMismatch(firstMismatch)
	}

	return joinFields(matched) + " matched, but " + formatMismatch(firstMismatch)
}

// formatMismatch formats a single field mismatch into a human-readable string.
func formatMismatch(f *FieldResult) string {
	field := f.Field
	if field == "" {
		field = "params"
	}
	if f.Missing {
		return fmt.Sprintf("%s expected %s, but it is missing", field, render(f.Expected))
	}
	return fmt.Sprintf("%s expected %s, got %s", field, render(f.Expected), render(f.Actual))
}

func render(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// joinFields joins field names with commas and "and".
func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	case 2:
		return fields[0] + " and " + fields[1]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1]
	}
}
