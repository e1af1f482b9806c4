// Package ruleset defines the declarative rule-set document and its
// compiled runtime form.
//
// A rule set is loaded from a single YAML document. Loading happens in
// three stages:
//
//  1. Structural validation: the raw document is unified with an
//     embedded CUE schema. Unknown enum values, bad flag strings, and
//     missing required keys are rejected here with positioned errors.
//  2. Decode: the document is decoded into plain structs. Mappings
//     whose order is significant (global_replace) are decoded from
//     yaml.Node so declaration order survives.
//  3. Compile: every pattern is compiled exactly once. Rule order is
//     preserved exactly as declared; it is the sole tie-break when
//     multiple rules could match a line.
//
// All load errors are *Error values with a stable Code, raised before
// any line is processed.
package ruleset
