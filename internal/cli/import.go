package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvka-141/bcpstage/internal/bcp"
	"github.com/vvka-141/bcpstage/internal/config"
	"github.com/vvka-141/bcpstage/internal/runner"
	"github.com/vvka-141/bcpstage/internal/services"
	"github.com/vvka-141/bcpstage/internal/sqlcmd"
	"github.com/vvka-141/bcpstage/internal/staging"
	"github.com/vvka-141/bcpstage/internal/storage"
	"github.com/vvka-141/bcpstage/internal/ui"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

type importFlagValues struct {
	env    string
	direct bool
	yes    bool
	dryRun bool
}

var importFlags importFlagValues

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a .bcp flat file into a staging table",
	Long: `Load a .bcp (or .bcp.gz) flat file into SQL Server.

The target table is inferred from the file name:
  sales.Customers_20240131_101500.bcp.gz  ->  [sales].[Customers]

By default rows go to the staging table ([sales].[Customers_STAGING]), which is
created from the base table when it does not exist yet; an existing staging
table is used as it is. The staging table is truncated
after the operator confirms by typing the confirmation token (default SIM).`,
}

var importLocalCmd = &cobra.Command{
	Use:   "local [file]",
	Short: "Import a file from LOCAL_IMPORT_DIR",
	Long: `Import a local flat file.

Without an argument, LOCAL_IMPORT_FILE is used, or else the newest *.bcp or
*.bcp.gz file in LOCAL_IMPORT_DIR.`,
	Example: `  bcpstage import local
  bcpstage import local sales.Customers_20240131_101500.bcp.gz
  bcpstage import local ./exports/dbo.Orders.bcp --yes`,
	Args: OptionalSource,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := config.ImportOptions{Source: bcpstage.ImportSourceLocal}
		if len(args) == 1 {
			opts.File = args[0]
		}
		return runImport(cmd, opts)
	},
}

var importS3Cmd = &cobra.Command{
	Use:   "s3 [key]",
	Short: "Download a flat file from object storage and import it",
	Long: `Download a flat file from the S3 bucket and import it.

Without an argument, S3_OBJECT_KEY is used, or else the newest .bcp or .bcp.gz
object under the S3_KEY prefix.`,
	Example: `  bcpstage import s3
  bcpstage import s3 exports/sales.Customers_20240131_101500.bcp.gz
  bcpstage import s3 --direct --env source --yes`,
	Args: OptionalSource,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := config.ImportOptions{Source: bcpstage.ImportSourceS3}
		if len(args) == 1 {
			opts.Key = args[0]
		}
		return runImport(cmd, opts)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importLocalCmd, importS3Cmd)

	importCmd.PersistentFlags().StringVar(&importFlags.env, "env", config.Staging,
		"Environment that receives the rows (source, staging or destination)")
	importCmd.PersistentFlags().BoolVar(&importFlags.direct, "direct", false,
		"Load into the base table itself, skipping staging reconciliation")
	importCmd.PersistentFlags().BoolVarP(&importFlags.yes, "yes", "y", false,
		"Truncate without prompting (after a short countdown)\n"+
			"Required for non-interactive runs")
	importCmd.PersistentFlags().BoolVar(&importFlags.dryRun, "dry-run", false,
		"Log the sqlcmd and bcp commands without running them")
}

func runImport(cmd *cobra.Command, opts config.ImportOptions) (err error) {
	opts.Environment = importFlags.env
	opts.Direct = importFlags.direct

	approver, err := selectApprover(importFlags.yes, importFlags.dryRun, ui.IsInteractive())
	if err != nil {
		return err
	}

	sess, err := openSession(cmd, "import")
	if err != nil {
		return err
	}
	defer func() { sess.Close(err) }()

	if approver == nil {
		approver = ui.NewInteractiveApprover(sess.settings.ConfirmToken)
	}

	cfg, err := sess.settings.ImportConfig(opts, sess.started)
	if err != nil {
		return err
	}

	ctx, cancel := sess.runContext("import")
	defer cancel()

	var procs bcpstage.ProcessRunner
	if importFlags.dryRun {
		sess.logger.Info("Dry run: sqlcmd and bcp will not be started")
		procs = runner.NewDryRunner(sess.logger)
	} else {
		procs = runner.NewExecRunner(sess.logger)
	}

	var store bcpstage.ObjectStore
	if cfg.Source == bcpstage.ImportSourceS3 {
		s3Store, err := storage.NewS3Store(ctx, sess.settings.Storage, sess.logger)
		if err != nil {
			return err
		}
		store = s3Store
	}

	sqlClient := sqlcmd.NewClient(sess.settings.SQLCmdPath, procs)
	importer := services.NewImportService(
		staging.NewReconciler(sqlClient, cfg.StagingPolicy, sess.logger),
		bcp.NewClient(sess.settings.BCPPath, procs, sess.logger),
		store,
		approver,
		sess.logger,
	)

	result, err := importer.Import(ctx, cfg)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	sess.logger.Info("Imported %s into %s", result.Source, result.Target.Dotted())
	return nil
}

// selectApprover picks the truncate guard. A nil approver with a nil error
// means the interactive prompt, which needs the resolved confirmation token.
func selectApprover(yes, dryRun, interactive bool) (bcpstage.Approver, error) {
	switch {
	case dryRun:
		return bcpstage.ApproverFunc(func(ctx context.Context, label string) (bool, error) {
			return true, nil
		}), nil
	case yes:
		return ui.NewForcedApprover(bcpstage.DefaultForceApprovalCountdown), nil
	case interactive:
		return nil, nil
	default:
		return nil, fmt.Errorf("truncate needs confirmation but no terminal is attached; re-run with --yes: %w",
			bcpstage.ErrOperatorCancelled)
	}
}
