// Package matching provides the request matching algorithms used to select
// fixture candidates.
//
// The central operation is structural containment: Contains reports whether
// a predicate structure is a partial match of an actual structure. It is
// directional, so a fixture names only the parameters it cares about and a
// real request may carry any number of extra ones:
//
//   - Mapping predicates: every predicate key must exist in the actual
//     mapping and its value must match recursively. Extra keys are ignored.
//   - Set predicates: the actual value must be a collection holding every
//     element of the set, or the wildcard "*" (alone or as the only element
//     of a collection), which accepts any value that is present.
//   - Everything else: value equality with numeric coercion, so a YAML int
//     matches a JSON float64 of the same value.
//
// A shape mismatch is a non-match, never an error.
//
// Two optional refinements complement containment:
//
//   - MatchJSONPath: JSONPath conditions (ojg) evaluated against the
//     request parameters, including {"exists": bool} checks.
//   - Evaluator: boolean expr-lang expressions with a compile cache.
//
// MatchBreakdown explains a non-match leaf by leaf; it is only computed when
// no candidate matched.
//
// All functions are pure and safe for concurrent use.
package matching
