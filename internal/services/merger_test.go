package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/bcpstage/internal/logging"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

func TestTargetsFor(t *testing.T) {
	tests := []struct {
		script  string
		want    MergeTarget
		wantErr bool
	}{
		{"both_customers.sql", TargetBoth, false},
		{"customers_both.sql", TargetBoth, false},
		{"stage_customers.sql", TargetStaging, false},
		{"customers_STAGE.sql", TargetStaging, false},
		{"dest_customers.sql", TargetDestination, false},
		{"/merge/Customers_Dest.SQL", TargetDestination, false},
		{"customers.sql", 0, true},
		{"staged_customers.sql", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			got, err := TargetsFor(tt.script)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, bcpstage.ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mergeConfig(dir string) bcpstage.MergeConfig {
	stage := testConnection()
	dest := testConnection()
	dest.Label = "destination"
	dest.Server = "dest-sql"
	return bcpstage.MergeConfig{Staging: stage, Destination: dest, ScriptsDir: dir}
}

func TestMerge_RunsScriptsAgainstTargets(t *testing.T) {
	dir := t.TempDir()
	writeScripts(t, dir, map[string]string{
		"01_customers_both.sql": "MERGE 1",
		"02_orders_stage.sql":   "MERGE 2",
		"dest_cleanup.sql":      "DELETE 3",
	})
	runner := &mockScriptRunner{}

	err := NewMergeService(runner, logging.NewNullLogger()).Merge(context.Background(), mergeConfig(dir))
	require.NoError(t, err)

	assert.Equal(t, []scriptRun{
		{Label: "staging", Script: "01_customers_both.sql"},
		{Label: "destination", Script: "01_customers_both.sql"},
		{Label: "staging", Script: "02_orders_stage.sql"},
		{Label: "destination", Script: "dest_cleanup.sql"},
	}, runner.runs)
}

func TestMerge_FailingScriptDoesNotStopBatch(t *testing.T) {
	dir := t.TempDir()
	writeScripts(t, dir, map[string]string{
		"a_stage.sql": "MERGE 1",
		"b_both.sql":  "MERGE 2",
		"c_dest.sql":  "MERGE 3",
		"d.sql":       "MERGE 4",
	})
	runner := &mockScriptRunner{result: map[string]bcpstage.Result{
		"staging/b_both.sql": {ExitCode: 1, Stderr: "Msg 2627, Violation of PRIMARY KEY constraint"},
	}}
	logger := &captureLogger{}

	err := NewMergeService(runner, logger).Merge(context.Background(), mergeConfig(dir))
	require.Error(t, err)

	var batchErr *bcpstage.BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 4, batchErr.Total)
	require.Len(t, batchErr.Failures, 2)
	assert.Equal(t, "b_both.sql", batchErr.Failures[0].Script)
	assert.True(t, errors.Is(batchErr.Failures[0].Err, bcpstage.ErrToolFailed))
	assert.Equal(t, "d.sql", batchErr.Failures[1].Script)
	assert.True(t, errors.Is(batchErr.Failures[1].Err, bcpstage.ErrInvalidConfig))

	// a failed staging run skips the destination run of the same script
	assert.Equal(t, []scriptRun{
		{Label: "staging", Script: "a_stage.sql"},
		{Label: "staging", Script: "b_both.sql"},
		{Label: "destination", Script: "c_dest.sql"},
	}, runner.runs)
	assert.Equal(t, 1, logger.errorsContaining("merge of b_both.sql failed"))
}

func TestMerge_EmptyScriptFails(t *testing.T) {
	dir := t.TempDir()
	writeScripts(t, dir, map[string]string{"stage_empty.sql": "\n\n"})
	runner := &mockScriptRunner{}

	err := NewMergeService(runner, &captureLogger{}).Merge(context.Background(), mergeConfig(dir))
	assert.True(t, errors.Is(err, bcpstage.ErrBatchFailed))
	assert.Empty(t, runner.runs)
}

func TestMerge_InvalidConfigListsEveryProblem(t *testing.T) {
	cfg := mergeConfig("")
	cfg.Destination.Password = ""

	err := NewMergeService(&mockScriptRunner{}, logging.NewNullLogger()).Merge(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bcpstage.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "SCRIPTS_MERGE_DIR")
	assert.Contains(t, err.Error(), "destination")
}
