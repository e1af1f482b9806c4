// Package harness runs conformance scenarios against the line
// evaluation engine.
//
// A scenario is a YAML file naming a rule set (by path or inline),
// a block of input lines, and expectations on the produced output.
// Scenarios are run both by the test command and by Go tests, where
// golden files pin the exact output.
package harness
