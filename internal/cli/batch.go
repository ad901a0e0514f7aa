package cli

import (
	"github.com/spf13/cobra"
	"github.com/vvka-141/bcpstage/internal/bcp"
	"github.com/vvka-141/bcpstage/internal/runner"
	"github.com/vvka-141/bcpstage/internal/services"
	"github.com/vvka-141/bcpstage/internal/sqlcmd"
	"github.com/vvka-141/bcpstage/internal/storage"
)

var exportScripts []string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export query results to .bcp files and upload them",
	Long: `Run every *.sql query in SCRIPTS_DIR against the source environment with
bcp queryout, gzip each output file and upload it under the S3_KEY prefix.

Output files are named after the script and stamped with the run start time
(sales.Customers_20240131_101500.bcp.gz) unless EXPORT_TIMESTAMP=false.
A failing script does not stop the batch; the run exits non-zero if any failed.`,
	Example: `  bcpstage export
  bcpstage export --scripts sales.Customers,dbo.Orders`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var mergeScripts []string

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Run merge scripts against the staging and destination servers",
	Long: `Run every *.sql script in SCRIPTS_MERGE_DIR with sqlcmd.

The script name selects its targets:
  both_*.sql  or *_both.sql   staging, then destination
  stage_*.sql or *_stage.sql  staging
  dest_*.sql  or *_dest.sql   destination

A failing script does not stop the batch; the run exits non-zero if any failed.`,
	Example: `  bcpstage merge
  bcpstage merge --scripts stage_customers`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(exportCmd, mergeCmd)

	exportCmd.Flags().StringSliceVar(&exportScripts, "scripts", nil,
		"Scripts to run (default: all *.sql in SCRIPTS_DIR); .sql may be omitted")
	mergeCmd.Flags().StringSliceVar(&mergeScripts, "scripts", nil,
		"Scripts to run (default: all *.sql in SCRIPTS_MERGE_DIR); .sql may be omitted")
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	sess, err := openSession(cmd, "export")
	if err != nil {
		return err
	}
	defer func() { sess.Close(err) }()

	cfg, err := sess.settings.ExportConfig(exportScripts)
	if err != nil {
		return err
	}

	ctx, cancel := sess.runContext("export")
	defer cancel()

	store, err := storage.NewS3Store(ctx, sess.settings.Storage, sess.logger)
	if err != nil {
		return err
	}
	exporter := services.NewExportService(
		bcp.NewClient(sess.settings.BCPPath, runner.NewExecRunner(sess.logger), sess.logger),
		store,
		sess.logger,
	)
	return exporter.Export(ctx, cfg)
}

func runMerge(cmd *cobra.Command, args []string) (err error) {
	sess, err := openSession(cmd, "merge")
	if err != nil {
		return err
	}
	defer func() { sess.Close(err) }()

	cfg, err := sess.settings.MergeConfig(mergeScripts)
	if err != nil {
		return err
	}

	ctx, cancel := sess.runContext("merge")
	defer cancel()

	merger := services.NewMergeService(
		sqlcmd.NewClient(sess.settings.SQLCmdPath, runner.NewExecRunner(sess.logger)),
		sess.logger,
	)
	return merger.Merge(ctx, cfg)
}
