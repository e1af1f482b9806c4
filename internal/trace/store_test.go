package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpen_CreatesDatabase(t *testing.T) {
	st := openTestStore(t)

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestBeginRun_AssignsUniqueIDs(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	r1, err := st.BeginRun(ctx, "rules.yaml", "first")
	require.NoError(t, err)
	r2, err := st.BeginRun(ctx, "rules.yaml", "second")
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRecordDecision_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	run, err := st.BeginRun(ctx, "rules.yaml", "demo")
	require.NoError(t, err)

	require.NoError(t, run.RecordDecision(ctx, engine.LineDecision{
		LineNo:          1,
		Input:           "[DEBUG] noisy",
		Kind:            engine.Drop,
		RuleIndex:       0,
		RuleDescription: "drop debug",
		Emitted:         false,
	}))
	require.NoError(t, run.RecordDecision(ctx, engine.LineDecision{
		LineNo:    2,
		Input:     "id=42",
		Kind:      engine.EmitRewritten,
		RuleIndex: 1,
		Output:    "user 42",
		Emitted:   true,
	}))

	decisions, err := st.Decisions(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	assert.Equal(t, int64(1), decisions[0].LineNo)
	assert.Equal(t, "drop", decisions[0].Decision)
	assert.Equal(t, "drop debug", decisions[0].RuleDescription)
	assert.False(t, decisions[0].Emitted)
	assert.Empty(t, decisions[0].Output)

	assert.Equal(t, int64(2), decisions[1].LineNo)
	assert.Equal(t, "rewrite", decisions[1].Decision)
	assert.True(t, decisions[1].Emitted)
	assert.Equal(t, "user 42", decisions[1].Output)
}

func TestFinish_StampsCounts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	run, err := st.BeginRun(ctx, "rules.yaml", "")
	require.NoError(t, err)
	require.NoError(t, run.Finish(ctx, 10, 7))

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, int64(10), runs[0].LinesIn)
	assert.Equal(t, int64(7), runs[0].LinesOut)
	assert.True(t, runs[0].Finished)
}

func TestRecorder_ObservesDecisions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	run, err := st.BeginRun(ctx, "rules.yaml", "")
	require.NoError(t, err)

	rec := NewRecorder(ctx, run)
	rec.Decision(engine.LineDecision{LineNo: 1, Input: "a", Kind: engine.EmitUnchanged, RuleIndex: -1, Output: "a", Emitted: true})
	rec.Decision(engine.LineDecision{LineNo: 2, Input: "b", Kind: engine.Drop, RuleIndex: 0})
	require.NoError(t, rec.Err())

	decisions, err := st.Decisions(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, decisions, 2)
}

func TestRecorder_KeepsFirstError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	run, err := st.BeginRun(ctx, "rules.yaml", "")
	require.NoError(t, err)

	rec := NewRecorder(ctx, run)
	d := engine.LineDecision{LineNo: 1, Input: "a", Kind: engine.Drop, RuleIndex: 0}
	rec.Decision(d)
	rec.Decision(d) // duplicate (run, line_no) violates the primary key
	require.Error(t, rec.Err())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	st1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st1.Close())

	st2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st2.Close())
}
