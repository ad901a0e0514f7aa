// Package catalog reads table definitions from SQL Server catalog views and
// compares staging tables with their base tables.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Column is one row of sys.columns joined with its type and identity settings.
type Column struct {
	Name      string
	TypeName  string
	MaxLength int
	Precision int
	Scale     int
	Nullable  bool
	Identity  bool
	Seed      string
	Increment string
}

// TypeSQL renders the column type with explicit sizing, matching the DDL the
// staging reconciler generates.
func (c Column) TypeSQL() string {
	switch strings.ToLower(c.TypeName) {
	case "varchar", "char", "varbinary", "binary":
		return c.TypeName + "(" + lengthSQL(c.MaxLength, 1) + ")"
	case "nvarchar", "nchar":
		return c.TypeName + "(" + lengthSQL(c.MaxLength, 2) + ")"
	case "decimal", "numeric":
		return fmt.Sprintf("%s(%d,%d)", c.TypeName, c.Precision, c.Scale)
	case "datetime2", "time", "datetimeoffset":
		return fmt.Sprintf("%s(%d)", c.TypeName, c.Scale)
	default:
		return c.TypeName
	}
}

// Definition renders the full column definition.
func (c Column) Definition() string {
	var b strings.Builder
	b.WriteString("[" + strings.ReplaceAll(c.Name, "]", "]]") + "] ")
	b.WriteString(c.TypeSQL())
	if c.Identity {
		fmt.Fprintf(&b, " IDENTITY(%s,%s)", c.Seed, c.Increment)
	}
	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

func lengthSQL(maxLength, bytesPerChar int) string {
	if maxLength == -1 {
		return "MAX"
	}
	return strconv.Itoa(maxLength / bytesPerChar)
}
