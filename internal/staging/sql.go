package staging

import (
	"fmt"
	"strings"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// baseMissingError is the user error number raised when the base table is absent.
const baseMissingError = 50001

// columnDefinitionSQL renders one column of the table whose object id is in
// @base as "[name] type[(size)] [IDENTITY(seed,increment)] [NOT] NULL".
const columnDefinitionSQL = `QUOTENAME(c.name) + N' ' +
        CASE
            WHEN ty.name IN (N'varchar', N'char', N'varbinary', N'binary')
                THEN ty.name + N'(' + CASE WHEN c.max_length = -1 THEN N'MAX' ELSE CAST(c.max_length AS NVARCHAR(10)) END + N')'
            WHEN ty.name IN (N'nvarchar', N'nchar')
                THEN ty.name + N'(' + CASE WHEN c.max_length = -1 THEN N'MAX' ELSE CAST(c.max_length / 2 AS NVARCHAR(10)) END + N')'
            WHEN ty.name IN (N'decimal', N'numeric')
                THEN ty.name + N'(' + CAST(c.precision AS NVARCHAR(10)) + N',' + CAST(c.scale AS NVARCHAR(10)) + N')'
            WHEN ty.name IN (N'datetime2', N'time', N'datetimeoffset')
                THEN ty.name + N'(' + CAST(c.scale AS NVARCHAR(10)) + N')'
            ELSE ty.name
        END +
        CASE WHEN ic.object_id IS NOT NULL
            THEN N' IDENTITY(' + CAST(ic.seed_value AS NVARCHAR(40)) + N',' + CAST(ic.increment_value AS NVARCHAR(40)) + N')'
            ELSE N''
        END +
        CASE WHEN c.is_nullable = 1 THEN N' NULL' ELSE N' NOT NULL' END`

// EnsureSQL returns the batch that creates staging from base when it does not
// exist yet. The batch raises an error when base itself is missing.
func EnsureSQL(base, staging bcpstage.TableIdentity, policy bcpstage.StagingPolicy) string {
	baseName := base.Bracketed()
	stagingName := staging.Bracketed()

	var b strings.Builder
	b.WriteString("SET NOCOUNT ON;\n")
	fmt.Fprintf(&b, "IF OBJECT_ID(N'%s', N'U') IS NULL\n", literal(baseName))
	fmt.Fprintf(&b, "    THROW %d, N'Base table %s does not exist.', 1;\n", baseMissingError, literal(baseName))
	fmt.Fprintf(&b, "IF OBJECT_ID(N'%s', N'U') IS NULL\n", literal(stagingName))
	b.WriteString("BEGIN\n")

	switch policy {
	case bcpstage.StagingPolicyClone:
		fmt.Fprintf(&b, "    SELECT TOP 0 * INTO %s FROM %s;\n", stagingName, baseName)
	default:
		fmt.Fprintf(&b, "    DECLARE @base INT = OBJECT_ID(N'%s', N'U');\n", literal(baseName))
		b.WriteString("    DECLARE @ddl NVARCHAR(MAX);\n")
		fmt.Fprintf(&b, "    SELECT @ddl = N'CREATE TABLE %s (' + STUFF((\n", literal(stagingName))
		b.WriteString("        SELECT N', ' + " + columnDefinitionSQL + "\n")
		b.WriteString("        FROM sys.columns c\n")
		b.WriteString("        JOIN sys.types ty ON c.user_type_id = ty.user_type_id\n")
		b.WriteString("        LEFT JOIN sys.identity_columns ic ON ic.object_id = c.object_id AND ic.column_id = c.column_id\n")
		b.WriteString("        WHERE c.object_id = @base\n")
		b.WriteString("        ORDER BY c.column_id\n")
		b.WriteString("        FOR XML PATH(''), TYPE).value('.', 'NVARCHAR(MAX)'), 1, 2, N'') + N');';\n")
		b.WriteString("    EXEC sys.sp_executesql @ddl;\n")
	}

	b.WriteString("END\n")
	return b.String()
}

// TruncateSQL returns the statement that empties table.
func TruncateSQL(table bcpstage.TableIdentity) string {
	return "TRUNCATE TABLE " + table.Bracketed() + ";"
}

// literal escapes s for use inside an N'...' string literal.
func literal(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
