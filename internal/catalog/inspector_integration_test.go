package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/bcpstage/internal/catalog"
	testhelpers "github.com/vvka-141/bcpstage/internal/testing"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

func TestInspector_Columns(t *testing.T) {
	conn := testhelpers.RequireDatabase(t)
	conn = testhelpers.CreateTestDB(t, conn, fmt.Sprintf("bcpstage_catalog_%d", time.Now().UnixNano()))
	handle := testhelpers.OpenTestDB(t, conn)

	testhelpers.MustExec(t, handle,
		"CREATE SCHEMA sales",
		`CREATE TABLE sales.Customers (
			Id INT IDENTITY(10,5) NOT NULL,
			Name NVARCHAR(100) NULL,
			Code VARCHAR(MAX) NOT NULL,
			Balance DECIMAL(18,2) NOT NULL,
			UpdatedAt DATETIME2(3) NULL
		)`,
		`CREATE TABLE sales.Customers_STAGING (
			Id INT NOT NULL,
			Name NVARCHAR(50) NULL,
			Code VARCHAR(MAX) NOT NULL,
			Balance DECIMAL(18,2) NULL
		)`,
	)

	inspector := catalog.NewInspector(handle)
	ctx := context.Background()
	base := bcpstage.TableIdentity{Schema: "sales", Name: "Customers"}

	columns, err := inspector.Columns(ctx, base)
	require.NoError(t, err)
	require.Len(t, columns, 5)

	definitions := make([]string, len(columns))
	for i, c := range columns {
		definitions[i] = c.Definition()
	}
	assert.Equal(t, []string{
		"[Id] int IDENTITY(10,5) NOT NULL",
		"[Name] nvarchar(100) NULL",
		"[Code] varchar(MAX) NOT NULL",
		"[Balance] decimal(18,2) NOT NULL",
		"[UpdatedAt] datetime2(3) NULL",
	}, definitions)

	staging, err := inspector.Columns(ctx, base.Staging(bcpstage.DefaultStagingSuffix))
	require.NoError(t, err)

	kinds := map[string]catalog.DriftKind{}
	for _, d := range catalog.Diff(columns, staging) {
		kinds[d.Column] = d.Kind
	}
	assert.Equal(t, map[string]catalog.DriftKind{
		"Name":      catalog.DriftType,
		"Balance":   catalog.DriftNullability,
		"UpdatedAt": catalog.DriftMissing,
	}, kinds)

	_, err = inspector.Columns(ctx, bcpstage.TableIdentity{Schema: "sales", Name: "Nope"})
	assert.True(t, errors.Is(err, bcpstage.ErrSourceNotFound))
}
