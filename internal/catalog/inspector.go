package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

const objectIDQuery = `SELECT OBJECT_ID(@table, N'U')`

const columnsQuery = `
SELECT
    c.name,
    ty.name,
    c.max_length,
    c.precision,
    c.scale,
    c.is_nullable,
    CAST(CASE WHEN ic.object_id IS NULL THEN 0 ELSE 1 END AS bit),
    CAST(ic.seed_value AS NVARCHAR(40)),
    CAST(ic.increment_value AS NVARCHAR(40))
FROM sys.columns c
JOIN sys.types ty ON c.user_type_id = ty.user_type_id
LEFT JOIN sys.identity_columns ic ON ic.object_id = c.object_id AND ic.column_id = c.column_id
WHERE c.object_id = @object_id
ORDER BY c.column_id`

// Inspector reads column metadata over a database/sql handle.
type Inspector struct {
	db *sql.DB
}

// NewInspector creates an Inspector. The caller owns db.
func NewInspector(db *sql.DB) *Inspector {
	if db == nil {
		panic("db cannot be nil")
	}
	return &Inspector{db: db}
}

// Columns returns the columns of table in ordinal order.
// A missing table yields an error wrapping bcpstage.ErrSourceNotFound.
func (i *Inspector) Columns(ctx context.Context, table bcpstage.TableIdentity) ([]Column, error) {
	var objectID sql.NullInt64
	if err := i.db.QueryRowContext(ctx, objectIDQuery, sql.Named("table", table.Bracketed())).Scan(&objectID); err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", table.Dotted(), err)
	}
	if !objectID.Valid {
		return nil, fmt.Errorf("table %s: %w", table.Dotted(), bcpstage.ErrSourceNotFound)
	}

	rows, err := i.db.QueryContext(ctx, columnsQuery, sql.Named("object_id", objectID.Int64))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table.Dotted(), err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		var seed, increment sql.NullString
		if err := rows.Scan(&c.Name, &c.TypeName, &c.MaxLength, &c.Precision, &c.Scale, &c.Nullable, &c.Identity, &seed, &increment); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table.Dotted(), err)
		}
		c.Seed = seed.String
		c.Increment = increment.String
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table.Dotted(), err)
	}
	return columns, nil
}
