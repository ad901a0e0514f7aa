package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/bcpstage/internal/config"
	"github.com/vvka-141/bcpstage/internal/services"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

func resetFlags() {
	globalFlags = globalFlagValues{}
	importFlags = importFlagValues{env: config.Staging}
	exportScripts = nil
	mergeScripts = nil
	verifyEnv = config.Staging
}

// executeCommand runs the root command with args and returns its error.
func executeCommand(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.Execute()
}

// stagingEnv points the staging environment and every path setting at t.TempDir().
func stagingEnv(t *testing.T) (importDir, logDir string) {
	t.Helper()
	root := t.TempDir()
	importDir = filepath.Join(root, "Subida")
	logDir = filepath.Join(root, "logs")
	require.NoError(t, os.MkdirAll(importDir, 0o755))

	t.Setenv("STAGE_DB_SERVER", "sql-stage,1433")
	t.Setenv("STAGE_DB_DATABASE", "Staging")
	t.Setenv("STAGE_DB_USERNAME", "loader")
	t.Setenv("STAGE_DB_PASSWORD", "s3cr3t!")
	t.Setenv("LOCAL_IMPORT_DIR", importDir)
	t.Setenv("LOCAL_IMPORT_FILE", "")
	t.Setenv("LOG_DIR", logDir)
	t.Setenv("BCP_ERROR_FILE", "")
	t.Setenv("STAGING_POLICY", "")
	t.Setenv("BCPSTAGE_NON_INTERACTIVE", "1")
	return importDir, logDir
}

func TestVerifyCmd_ArgsValidation(t *testing.T) {
	err := verifyCmd.Args(verifyCmd, []string{})
	require.Error(t, err)
	assert.Equal(t, bcpstage.ExitUsageError, bcpstage.ExitCodeForError(err), "got: %v", err)
	assert.Contains(t, err.Error(), "sales.Customers")
}

func TestVerifyCmd_ArgsValidation_TooMany(t *testing.T) {
	err := verifyCmd.Args(verifyCmd, []string{"a", "b"})
	require.Error(t, err)
	assert.Equal(t, bcpstage.ExitUsageError, bcpstage.ExitCodeForError(err))
}

func TestImportCmd_ArgsValidation_TooMany(t *testing.T) {
	for _, cmd := range []*cobra.Command{importLocalCmd, importS3Cmd} {
		err := cmd.Args(cmd, []string{"a.bcp", "b.bcp"})
		require.Error(t, err, cmd.Name())
		assert.Equal(t, bcpstage.ExitUsageError, bcpstage.ExitCodeForError(err))
		assert.NoError(t, cmd.Args(cmd, nil), cmd.Name())
	}
}

func TestCheckCmd_RejectsUnknownEnvironment(t *testing.T) {
	err := checkCmd.Args(checkCmd, []string{"staging", "prod"})
	require.Error(t, err)
	assert.Equal(t, bcpstage.ExitUsageError, bcpstage.ExitCodeForError(err), "got: %v", err)
}

func TestExportAndMerge_RejectPositionalArgs(t *testing.T) {
	assert.Error(t, exportCmd.Args(exportCmd, []string{"x"}))
	assert.Error(t, mergeCmd.Args(mergeCmd, []string{"x"}))
}

func TestSelectApprover(t *testing.T) {
	tests := []struct {
		name        string
		yes, dryRun bool
		interactive bool
		wantNil     bool
		wantErr     error
	}{
		{name: "dry run auto-approves", dryRun: true},
		{name: "yes forces", yes: true},
		{name: "interactive prompts", interactive: true, wantNil: true},
		{name: "non-interactive without yes", wantNil: true, wantErr: bcpstage.ErrOperatorCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approver, err := selectApprover(tt.yes, tt.dryRun, tt.interactive)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "--yes")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, approver == nil)
		})
	}
}

func TestSelectApprover_DryRunApprovesImmediately(t *testing.T) {
	approver, err := selectApprover(false, true, false)
	require.NoError(t, err)
	ok, err := approver.RequestApproval(context.Background(), "[sales].[Customers_STAGING]")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImport_NonInteractiveWithoutYesCancelsBeforeLogging(t *testing.T) {
	_, logDir := stagingEnv(t)

	err := executeCommand(t, "import", "local")

	require.ErrorIs(t, err, bcpstage.ErrOperatorCancelled)
	assert.Equal(t, bcpstage.ExitCancelled, bcpstage.ExitCodeForError(err))
	_, statErr := os.Stat(logDir)
	assert.True(t, os.IsNotExist(statErr), "no run log should be opened")
}

func TestImport_DryRunLocal(t *testing.T) {
	importDir, logDir := stagingEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "sales.Customers_20240131_101500.bcp"), []byte("1;Ana\n"), 0o644))

	err := executeCommand(t, "import", "local", "--dry-run")
	require.NoError(t, err)

	logs, err := filepath.Glob(filepath.Join(logDir, "import_*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	content, err := os.ReadFile(logs[0])
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "[dry-run]")
	assert.Contains(t, text, "sales.Customers_STAGING in")
	assert.NotContains(t, text, "s3cr3t!", "password must be redacted")
	assert.Contains(t, text, "finished")
}

func TestImport_MissingStagingSettings(t *testing.T) {
	stagingEnv(t)
	t.Setenv("STAGE_DB_SERVER", "")
	t.Setenv("STAGE_DB_PASSWORD", "")

	err := executeCommand(t, "import", "local", "--yes")

	require.ErrorIs(t, err, bcpstage.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "STAGE_DB_SERVER")
	assert.Contains(t, err.Error(), "STAGE_DB_PASSWORD")
}

func TestImport_InvalidEnvironment(t *testing.T) {
	stagingEnv(t)

	err := executeCommand(t, "import", "local", "--yes", "--env", "prod")

	require.ErrorIs(t, err, bcpstage.ErrInvalidConfig)
}

func TestLoadSettings_ExplicitConfigMustExist(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	globalFlags.configFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := loadSettings()

	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfigNotFound))
	assert.Equal(t, bcpstage.ExitConfigError, bcpstage.ExitCodeForError(err))
}

func TestLoadSettings_MissingEnvFile(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	globalFlags.envFiles = []string{filepath.Join(t.TempDir(), "prod.env")}

	_, err := loadSettings()

	require.ErrorIs(t, err, bcpstage.ErrInvalidConfig)
}

func TestLoadSettings_ReadsEnvFile(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	path := filepath.Join(t.TempDir(), "stage.env")
	require.NoError(t, os.WriteFile(path, []byte("STAGING_SUFFIX=_STG\n"), 0o644))
	globalFlags.envFiles = []string{path}
	t.Setenv("STAGING_SUFFIX", "")
	os.Unsetenv("STAGING_SUFFIX")

	settings, err := loadSettings()

	require.NoError(t, err)
	assert.Equal(t, "_STG", settings.StagingSuffix)
}

func TestCheckTargets(t *testing.T) {
	settings := &config.Settings{Connections: map[string]bcpstage.ConnectionConfig{
		config.Source:      {Label: config.Source, Server: "src", Database: "Sales", Username: "u", Password: "p"},
		config.Staging:     {Label: config.Staging},
		config.Destination: {Label: config.Destination, Server: "dst", Database: "Dw", Username: "u", Password: "p"},
	}}

	t.Run("defaults to configured environments", func(t *testing.T) {
		conns, err := checkTargets(settings, nil)
		require.NoError(t, err)
		require.Len(t, conns, 2)
		assert.Equal(t, config.Source, conns[0].Label)
		assert.Equal(t, config.Destination, conns[1].Label)
	})

	t.Run("explicit incomplete environment", func(t *testing.T) {
		_, err := checkTargets(settings, []string{config.Source, config.Staging})
		require.ErrorIs(t, err, bcpstage.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "STAGE_DB_SERVER")
	})

	t.Run("nothing configured", func(t *testing.T) {
		empty := &config.Settings{Connections: map[string]bcpstage.ConnectionConfig{}}
		_, err := checkTargets(empty, nil)
		require.ErrorIs(t, err, bcpstage.ErrInvalidConfig)
	})
}

func TestRenderCheckResults(t *testing.T) {
	out := renderCheckResults([]services.CheckResult{
		{Label: "source", Server: "src", Version: "Microsoft SQL Server 2022"},
		{Label: "staging", Server: "stg", Err: bcpstage.ErrConnectionFailed},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Microsoft SQL Server 2022")
	assert.Contains(t, lines[1], "staging")
}
