package trace

import (
	"context"
	"database/sql"
	"fmt"
)

// RunInfo summarizes one recorded run.
type RunInfo struct {
	ID          string `json:"id"`
	Ruleset     string `json:"ruleset"`
	Description string `json:"description,omitempty"`
	StartedAt   string `json:"started_at"`
	LinesIn     int64  `json:"lines_in"`
	LinesOut    int64  `json:"lines_out"`
	Finished    bool   `json:"finished"`
}

// DecisionRow is one recorded line decision.
type DecisionRow struct {
	LineNo          int64  `json:"line_no"`
	RuleIndex       int    `json:"rule_index"`
	RuleDescription string `json:"rule_description,omitempty"`
	Decision        string `json:"decision"`
	Input           string `json:"input"`
	Output          string `json:"output,omitempty"`
	Emitted         bool   `json:"emitted"`
}

// ListRuns returns all recorded runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ruleset, description, started_at, lines_in, lines_out, finished
		FROM runs
		ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var finished int
		if err := rows.Scan(&r.ID, &r.Ruleset, &r.Description, &r.StartedAt, &r.LinesIn, &r.LinesOut, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Finished = finished != 0
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Decisions returns the decision log for one run, in line order.
func (s *Store) Decisions(ctx context.Context, runID string) ([]DecisionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT line_no, rule_index, rule_description, decision, input, output
		FROM decisions
		WHERE run_id = ?
		ORDER BY line_no
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read decisions: %w", err)
	}
	defer rows.Close()

	var decisions []DecisionRow
	for rows.Next() {
		var d DecisionRow
		var output sql.NullString
		if err := rows.Scan(&d.LineNo, &d.RuleIndex, &d.RuleDescription, &d.Decision, &d.Input, &output); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if output.Valid {
			d.Output = output.String
			d.Emitted = true
		}
		decisions = append(decisions, d)
	}

	return decisions, rows.Err()
}
