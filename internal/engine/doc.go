// Package engine implements the line evaluation engine.
//
// Given a compiled rule set and one input line, the engine produces
// zero or one output lines. Evaluation is deterministic and strictly
// sequential: lines are processed one at a time in input order, and
// output order equals input order.
//
// Per-line flow:
//
//  1. Literal global replacements, in declaration order.
//  2. Input parse: the input pattern binds named fields and the
//     reserved msg field; with no input pattern, or no match, the
//     whole line is the message.
//  3. Rule evaluation: enabled rules in declaration order, first
//     match wins across all rule kinds. A skip rule earlier in the
//     sequence silences a rewrite rule later that would otherwise
//     have matched the same line.
//  4. The decision resolves to zero or one output lines, rendered
//     through the output format unless a line-scope rewrite bypassed
//     it.
//
// No state crosses line boundaries except the line counter owned by
// the Pipeline. Regex matching and template rendering sit behind the
// Matcher and Renderer interfaces so tests can substitute
// deterministic fakes.
//
// Errors during evaluation are terminal for the run: a corrupt
// template typically affects every subsequent line identically, so
// there is no per-line recovery.
package engine
