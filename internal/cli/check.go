package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vvka-141/bcpstage/internal/config"
	"github.com/vvka-141/bcpstage/internal/services"
	"github.com/vvka-141/bcpstage/internal/ui"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

var checkCmd = &cobra.Command{
	Use:   "check [environment...]",
	Short: "Test the connection to each configured environment",
	Long: `Connect to the source, staging and destination servers and print the
SQL Server version of each. Transient connection errors are retried.

Without arguments every environment with a server configured is checked.`,
	Example: `  bcpstage check
  bcpstage check staging destination`,
	ValidArgs: config.Environments,
	Args:      cobra.OnlyValidArgs,
	RunE:      runCheck,
}

var verifyEnv string

var verifyCmd = &cobra.Command{
	Use:   "verify <table>",
	Short: "Compare a staging table with its base table",
	Long: `Read the column metadata of a base table and its staging table and report
missing or extra columns, type, nullability and position differences.
Exits with code 13 when the tables differ.`,
	Example: `  bcpstage verify sales.Customers
  bcpstage verify dbo.Orders --env destination`,
	Args: RequireTableName,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(checkCmd, verifyCmd)
	verifyCmd.Flags().StringVar(&verifyEnv, "env", config.Staging,
		"Environment holding both tables (source, staging or destination)")
}

// checkTargets returns the connections to check, reporting every missing setting at once.
func checkTargets(settings *config.Settings, names []string) ([]bcpstage.ConnectionConfig, error) {
	if len(names) == 0 {
		for _, name := range config.Environments {
			if settings.Connections[name].Server != "" {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no environment has a server configured (set DB_SERVER, STAGE_DB_SERVER or DEST_DB_SERVER): %w",
				bcpstage.ErrInvalidConfig)
		}
	}

	var conns []bcpstage.ConnectionConfig
	var errs []error
	for _, name := range names {
		if err := settings.RequireConnection(name); err != nil {
			errs = append(errs, err)
			continue
		}
		conns = append(conns, settings.Connections[name])
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return conns, nil
}

func runCheck(cmd *cobra.Command, args []string) (err error) {
	sess, err := openSession(cmd, "check")
	if err != nil {
		return err
	}
	defer func() { sess.Close(err) }()

	conns, err := checkTargets(sess.settings, args)
	if err != nil {
		return err
	}

	ctx, cancel := sess.runContext("check")
	defer cancel()

	checker := services.NewCheckService(openerFactory(sess.logger), sess.logger)
	results, err := checker.Check(ctx, conns)
	if len(results) > 0 {
		fmt.Fprintln(os.Stderr, renderCheckResults(results))
	}
	return err
}

func renderCheckResults(results []services.CheckResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(&b, "%s %-12s %s\n", ui.ErrorStyle.Render(ui.SymbolCross), r.Label, r.Server)
			continue
		}
		fmt.Fprintf(&b, "%s %-12s %s  %s\n", ui.SuccessStyle.Render(ui.SymbolCheck), r.Label, r.Server, ui.MutedStyle.Render(r.Version))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func runVerify(cmd *cobra.Command, args []string) (err error) {
	base := bcpstage.ParseIdentity(args[0])
	if err := base.Validate(); err != nil {
		return err
	}

	sess, err := openSession(cmd, "verify")
	if err != nil {
		return err
	}
	defer func() { sess.Close(err) }()

	if err := sess.settings.RequireConnection(verifyEnv); err != nil {
		return err
	}

	ctx, cancel := sess.runContext("verify")
	defer cancel()

	verifier := services.NewVerifyService(openerFactory(sess.logger), sess.logger)
	if err := verifier.Verify(ctx, sess.settings.Connections[verifyEnv], base, sess.settings.StagingSuffix); err != nil {
		return err
	}
	sess.logger.Info("%s matches %s", base.Staging(sess.settings.StagingSuffix).Dotted(), base.Dotted())
	return nil
}
