package bcpstage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// timestampSuffix matches the _YYYYMMDD_HHMMSS stamp exports append to file names.
var timestampSuffix = regexp.MustCompile(`^(.+)_\d{8}_\d{6}$`)

// TableIdentity is a schema-qualified SQL Server table name.
type TableIdentity struct {
	Schema string
	Name   string
}

// InferTableName derives a table name from a flat-file name.
//
// A trailing ".gz" and then the last extension are removed, followed by a
// trailing _YYYYMMDD_HHMMSS stamp when present:
//
//	InferTableName("dbo.Customers_20240115_093000.bcp.gz") // "dbo.Customers"
//	InferTableName("Sales.Orders.bcp")                     // "Sales.Orders"
//
// The result may be empty for degenerate names such as ".gz"; callers
// validate the parsed identity before use.
func InferTableName(fileName string) string {
	name := filepath.Base(strings.TrimSpace(fileName))
	if strings.HasSuffix(strings.ToLower(name), GzipExtension) {
		name = name[:len(name)-len(GzipExtension)]
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if m := timestampSuffix.FindStringSubmatch(stem); m != nil {
		return m[1]
	}
	return stem
}

// ParseIdentity splits a raw table reference into schema and name.
// Whitespace and surrounding brackets are trimmed, the first "." separates
// schema from name, and the schema defaults to dbo.
func ParseIdentity(raw string) TableIdentity {
	cleaned := strings.Trim(strings.TrimSpace(raw), "[]")
	schema, name, found := strings.Cut(cleaned, ".")
	if !found {
		return TableIdentity{Schema: DefaultSchema, Name: cleaned}
	}
	return TableIdentity{
		Schema: strings.Trim(schema, "[]"),
		Name:   strings.Trim(name, "[]"),
	}
}

// IdentityFromFile combines InferTableName, ParseIdentity and Validate.
func IdentityFromFile(fileName string) (TableIdentity, error) {
	id := ParseIdentity(InferTableName(fileName))
	if err := id.Validate(); err != nil {
		return TableIdentity{}, fmt.Errorf("file %q: %w", filepath.Base(fileName), err)
	}
	return id, nil
}

// Validate checks that schema and name are both non-empty.
func (t TableIdentity) Validate() error {
	if strings.Trim(t.Schema, "[] \t") == "" || strings.Trim(t.Name, "[] \t") == "" {
		return fmt.Errorf("schema %q and name %q must both be non-empty: %w", t.Schema, t.Name, ErrInvalidIdentity)
	}
	return nil
}

// Bracketed renders [schema].[name] for use inside T-SQL statements.
func (t TableIdentity) Bracketed() string {
	return quoteName(t.Schema) + "." + quoteName(t.Name)
}

// Dotted renders schema.name, the form bcp expects as its table argument.
func (t TableIdentity) Dotted() string {
	return t.Schema + "." + t.Name
}

// Render returns both forms.
func (t TableIdentity) Render() (bracketed, dotted string) {
	return t.Bracketed(), t.Dotted()
}

// Staging returns the identity of the staging table paired with t.
func (t TableIdentity) Staging(suffix string) TableIdentity {
	return TableIdentity{Schema: t.Schema, Name: t.Name + suffix}
}

func (t TableIdentity) String() string {
	return t.Dotted()
}

func quoteName(part string) string {
	return "[" + strings.ReplaceAll(part, "]", "]]") + "]"
}
