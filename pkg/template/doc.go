// Package template resolves {{ expression }} placeholders embedded in fixture
// data against a Variable Store.
//
// # Variables
//
//   - {{vars.name}} or {{name}}: value stored under name
//   - {{vars.user.id}}: dotted paths descend into mappings and sequences
//     ({{vars.items.0}} selects the first element)
//
// A string that consists of exactly one placeholder is replaced by the raw
// value, so {{vars.user_id}} stays an int when the stored value is an int.
// Placeholders embedded in longer strings are interpolated as text
// (mappings and sequences as JSON).
//
// Referencing a variable that is not set is a configuration error:
// Resolve returns *UndefinedVariableError instead of substituting nothing.
//
// # Built-ins
//
//   - {{now}}: current UTC time in RFC3339 format
//   - {{timestamp}} / {{timestamp.ms}}: Unix time in seconds / milliseconds
//   - {{uuid}}: random UUID v4
//   - {{faker.email}}, {{faker.name}}, {{faker.first_name}},
//     {{faker.last_name}}, {{faker.username}}, {{faker.url}},
//     {{faker.uuid}}, {{faker.word}}, {{faker.sentence}}, {{faker.phone}}
//   - {{sequence("name")}} / {{sequence("name", start)}}: per-engine counters
//
// # Functions
//
//   - {{upper(expr)}}, {{lower(expr)}}
//   - {{default(expr, "fallback")}}: fallback when expr is unset or empty
//
// Built-in names take precedence over variables of the same name.
package template
