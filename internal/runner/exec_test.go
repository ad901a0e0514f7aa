package runner

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/bcpstage/internal/logging"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// TestHelperProcess is not a real test. It is re-invoked as a child process
// by helperCommand and behaves according to HELPER_* environment variables.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("BCPSTAGE_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, os.Getenv("HELPER_STDOUT"))
	fmt.Fprint(os.Stderr, os.Getenv("HELPER_STDERR"))
	if d := os.Getenv("HELPER_SLEEP"); d != "" {
		dur, _ := time.ParseDuration(d)
		time.Sleep(dur)
	}
	code, _ := strconv.Atoi(os.Getenv("HELPER_EXIT"))
	os.Exit(code)
}

func helperCommand(t *testing.T, env map[string]string) bcpstage.Command {
	t.Helper()
	t.Setenv("BCPSTAGE_WANT_HELPER_PROCESS", "1")
	for k, v := range env {
		t.Setenv(k, v)
	}
	return bcpstage.Command{
		Name: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess", "--"},
	}
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	cmd := helperCommand(t, map[string]string{
		"HELPER_STDOUT": "1000 rows copied.",
		"HELPER_STDERR": "warning",
		"HELPER_EXIT":   "0",
	})

	result, err := NewExecRunner(logging.NewNullLogger()).Run(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "1000 rows copied.")
	assert.Contains(t, result.Stderr, "warning")
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	cmd := helperCommand(t, map[string]string{
		"HELPER_STDERR": "Msg 4701, Level 16: Cannot find the object",
		"HELPER_EXIT":   "1",
	})

	result, err := NewExecRunner(logging.NewNullLogger()).Run(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.False(t, result.Success())
	assert.Contains(t, result.Stderr, "Msg 4701")
}

func TestExecRunner_MissingBinary(t *testing.T) {
	cmd := bcpstage.Command{Name: "bcpstage-definitely-not-installed"}

	_, err := NewExecRunner(logging.NewNullLogger()).Run(context.Background(), cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start")
}

func TestExecRunner_ContextCancelKillsChild(t *testing.T) {
	cmd := helperCommand(t, map[string]string{"HELPER_SLEEP": "30s"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewExecRunner(logging.NewNullLogger()).Run(ctx, cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestNewExecRunner_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { NewExecRunner(nil) })
}

func TestDryRunner_RecordsWithoutRunning(t *testing.T) {
	r := NewDryRunner(logging.NewNullLogger())
	cmd := bcpstage.Command{Name: "bcp", Args: []string{"dbo.Orders", "in", "x.bcp"}}

	result, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, []bcpstage.Command{cmd}, r.Commands())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, cmd)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, r.Commands(), 1)
}
