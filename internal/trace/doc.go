// Package trace provides durable recording of per-line decisions.
//
// Recording is entirely a CLI-layer concern: the engine stays
// stateless across lines and only exposes an Observer callback. When
// the run command is given a trace database, every line's decision is
// written under a uuid-keyed run row, and the trace command reads the
// log back for inspection.
package trace
