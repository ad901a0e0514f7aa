package staging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/bcpstage/internal/logging"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

type mockSQL struct {
	queries []string
	result  bcpstage.Result
	err     error
}

func (m *mockSQL) Query(ctx context.Context, conn bcpstage.ConnectionConfig, query string) (bcpstage.Result, error) {
	m.queries = append(m.queries, query)
	return m.result, m.err
}

var (
	conn    = bcpstage.ConnectionConfig{Server: "sql01", Database: "Stage", Username: "u", Password: "p"}
	base    = bcpstage.TableIdentity{Schema: "dbo", Name: "Customers"}
	staging = bcpstage.TableIdentity{Schema: "dbo", Name: "Customers_STAGING"}
)

func TestEnsureSQL_Clone(t *testing.T) {
	sql := EnsureSQL(base, staging, bcpstage.StagingPolicyClone)

	assert.Contains(t, sql, "IF OBJECT_ID(N'[dbo].[Customers]', N'U') IS NULL\n    THROW 50001")
	assert.Contains(t, sql, "IF OBJECT_ID(N'[dbo].[Customers_STAGING]', N'U') IS NULL\nBEGIN")
	assert.Contains(t, sql, "SELECT TOP 0 * INTO [dbo].[Customers_STAGING] FROM [dbo].[Customers];")
	assert.NotContains(t, sql, "sp_executesql")
}

func TestEnsureSQL_DDL(t *testing.T) {
	sql := EnsureSQL(base, staging, bcpstage.StagingPolicyDDL)

	for _, want := range []string{
		"DECLARE @base INT = OBJECT_ID(N'[dbo].[Customers]', N'U');",
		"N'CREATE TABLE [dbo].[Customers_STAGING] ('",
		"FROM sys.columns c",
		"JOIN sys.types ty ON c.user_type_id = ty.user_type_id",
		"LEFT JOIN sys.identity_columns ic",
		"ORDER BY c.column_id",
		"FOR XML PATH(''), TYPE",
		"CAST(c.max_length / 2 AS NVARCHAR(10))",
		"N' IDENTITY('",
		"N' NOT NULL'",
		"EXEC sys.sp_executesql @ddl;",
	} {
		assert.Contains(t, sql, want)
	}
	assert.NotContains(t, sql, "SELECT TOP 0")
}

func TestEnsureSQL_GuardsPrecedeCreation(t *testing.T) {
	sql := EnsureSQL(base, staging, bcpstage.StagingPolicyDDL)

	throwAt := strings.Index(sql, "THROW")
	beginAt := strings.Index(sql, "BEGIN")
	createAt := strings.Index(sql, "CREATE TABLE")
	require.True(t, throwAt >= 0 && beginAt >= 0 && createAt >= 0)
	assert.Less(t, throwAt, beginAt)
	assert.Less(t, beginAt, createAt)
}

func TestEnsureSQL_EscapesQuotes(t *testing.T) {
	odd := bcpstage.TableIdentity{Schema: "dbo", Name: "O'Brien"}
	sql := EnsureSQL(odd, odd.Staging("_STAGING"), bcpstage.StagingPolicyClone)

	assert.Contains(t, sql, "OBJECT_ID(N'[dbo].[O''Brien]', N'U')")
	assert.Contains(t, sql, "INTO [dbo].[O'Brien_STAGING] FROM [dbo].[O'Brien];")
}

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "TRUNCATE TABLE [dbo].[Customers_STAGING];", TruncateSQL(staging))
}

func TestReconciler_EnsureStagingTable(t *testing.T) {
	m := &mockSQL{}
	r := NewReconciler(m, "", logging.NewNullLogger())

	require.NoError(t, r.EnsureStagingTable(context.Background(), conn, base, staging))
	require.Len(t, m.queries, 1)
	assert.Equal(t, EnsureSQL(base, staging, bcpstage.StagingPolicyDDL), m.queries[0])
}

func TestReconciler_EnsureStagingTable_ToolFailure(t *testing.T) {
	m := &mockSQL{result: bcpstage.Result{ExitCode: 1, Stderr: "Msg 50001, Level 16, State 1\nBase table [dbo].[Customers] does not exist."}}
	r := NewReconciler(m, bcpstage.StagingPolicyClone, logging.NewNullLogger())

	err := r.EnsureStagingTable(context.Background(), conn, base, staging)
	require.Error(t, err)
	assert.ErrorIs(t, err, bcpstage.ErrToolFailed)
	assert.Contains(t, err.Error(), "does not exist")

	var toolErr *bcpstage.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, 1, toolErr.Result.ExitCode)
}

func TestReconciler_EnsureStagingTable_InvalidIdentity(t *testing.T) {
	m := &mockSQL{}
	r := NewReconciler(m, "", logging.NewNullLogger())

	err := r.EnsureStagingTable(context.Background(), conn, bcpstage.TableIdentity{Schema: "dbo"}, staging)
	assert.ErrorIs(t, err, bcpstage.ErrInvalidIdentity)
	assert.Empty(t, m.queries)
}

func TestReconciler_Truncate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := &mockSQL{}
		require.NoError(t, NewReconciler(m, "", logging.NewNullLogger()).Truncate(context.Background(), conn, staging))
		assert.Equal(t, []string{"TRUNCATE TABLE [dbo].[Customers_STAGING];"}, m.queries)
	})

	t.Run("failure is not retried", func(t *testing.T) {
		m := &mockSQL{result: bcpstage.Result{ExitCode: 1, Stderr: "permission denied"}}
		err := NewReconciler(m, "", logging.NewNullLogger()).Truncate(context.Background(), conn, staging)
		assert.ErrorIs(t, err, bcpstage.ErrToolFailed)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Len(t, m.queries, 1)
	})

	t.Run("runner error", func(t *testing.T) {
		m := &mockSQL{err: errors.New("exec: \"sqlcmd\": executable file not found in $PATH")}
		err := NewReconciler(m, "", logging.NewNullLogger()).Truncate(context.Background(), conn, staging)
		require.Error(t, err)
		assert.NotErrorIs(t, err, bcpstage.ErrToolFailed)
	})
}

func TestNewReconciler_PanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewReconciler(nil, "", logging.NewNullLogger()) })
	assert.Panics(t, func() { NewReconciler(&mockSQL{}, "", nil) })
}
