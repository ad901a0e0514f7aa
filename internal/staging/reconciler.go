// Package staging keeps staging tables aligned with their base tables and
// empties them before a load.
package staging

import (
	"context"
	"fmt"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// SQLRunner runs an inline T-SQL batch against one environment.
// Satisfied by *sqlcmd.Client.
type SQLRunner interface {
	Query(ctx context.Context, conn bcpstage.ConnectionConfig, query string) (bcpstage.Result, error)
}

// Reconciler creates and truncates staging tables.
type Reconciler struct {
	sql    SQLRunner
	policy bcpstage.StagingPolicy
	logger bcpstage.Logger
}

// NewReconciler creates a Reconciler that creates missing staging tables with policy.
func NewReconciler(sql SQLRunner, policy bcpstage.StagingPolicy, logger bcpstage.Logger) *Reconciler {
	if sql == nil {
		panic("sql runner cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if policy == "" {
		policy = bcpstage.StagingPolicyDDL
	}
	return &Reconciler{sql: sql, policy: policy, logger: logger}
}

// EnsureStagingTable creates staging with the columns of base unless it
// already exists. An existing staging table is left untouched.
func (r *Reconciler) EnsureStagingTable(ctx context.Context, conn bcpstage.ConnectionConfig, base, staging bcpstage.TableIdentity) error {
	if err := base.Validate(); err != nil {
		return err
	}
	if err := staging.Validate(); err != nil {
		return err
	}

	r.logger.Info("Ensuring staging table %s mirrors %s (policy %s)", staging.Bracketed(), base.Bracketed(), r.policy)
	result, err := r.sql.Query(ctx, conn, EnsureSQL(base, staging, r.policy))
	if err != nil {
		return fmt.Errorf("ensure staging table %s: %w", staging.Dotted(), err)
	}
	if !result.Success() {
		return &bcpstage.ToolError{Op: "ensure staging table " + staging.Dotted(), Result: result}
	}
	return nil
}

// Truncate empties table. Failures are never retried.
func (r *Reconciler) Truncate(ctx context.Context, conn bcpstage.ConnectionConfig, table bcpstage.TableIdentity) error {
	if err := table.Validate(); err != nil {
		return err
	}

	r.logger.Info("Truncating %s", table.Bracketed())
	result, err := r.sql.Query(ctx, conn, TruncateSQL(table))
	if err != nil {
		return fmt.Errorf("truncate %s: %w", table.Dotted(), err)
	}
	if !result.Success() {
		return &bcpstage.ToolError{Op: "truncate " + table.Dotted(), Result: result}
	}
	return nil
}
