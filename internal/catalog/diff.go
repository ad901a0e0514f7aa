package catalog

import (
	"fmt"
	"strings"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// DriftKind classifies a difference between base and staging columns.
type DriftKind string

const (
	DriftMissing     DriftKind = "missing"     // in base, not in staging
	DriftExtra       DriftKind = "extra"       // in staging, not in base
	DriftType        DriftKind = "type"        // same name, different type or size
	DriftNullability DriftKind = "nullability" // same type, different NULL/NOT NULL
	DriftPosition    DriftKind = "position"    // same column, different ordinal
)

// Drift describes one column difference.
type Drift struct {
	Column  string
	Kind    DriftKind
	Base    string
	Staging string
}

func (d Drift) String() string {
	switch d.Kind {
	case DriftMissing:
		return fmt.Sprintf("%s: missing from staging (base: %s)", d.Column, d.Base)
	case DriftExtra:
		return fmt.Sprintf("%s: only in staging (%s)", d.Column, d.Staging)
	default:
		return fmt.Sprintf("%s: %s differs (base: %s, staging: %s)", d.Column, d.Kind, d.Base, d.Staging)
	}
}

// Diff compares column lists. Names match case-insensitively, like SQL Server's
// default collation. bcp loads by ordinal, so order differences are reported too.
func Diff(base, staging []Column) []Drift {
	stagingByName := make(map[string]int, len(staging))
	for i, c := range staging {
		stagingByName[strings.ToLower(c.Name)] = i
	}
	baseNames := make(map[string]bool, len(base))

	var drifts []Drift
	for i, b := range base {
		key := strings.ToLower(b.Name)
		baseNames[key] = true

		j, ok := stagingByName[key]
		if !ok {
			drifts = append(drifts, Drift{Column: b.Name, Kind: DriftMissing, Base: b.Definition()})
			continue
		}
		s := staging[j]
		switch {
		case !strings.EqualFold(b.TypeSQL(), s.TypeSQL()):
			drifts = append(drifts, Drift{Column: b.Name, Kind: DriftType, Base: b.TypeSQL(), Staging: s.TypeSQL()})
		case b.Nullable != s.Nullable:
			drifts = append(drifts, Drift{Column: b.Name, Kind: DriftNullability, Base: nullability(b), Staging: nullability(s)})
		}
		if i != j {
			drifts = append(drifts, Drift{Column: b.Name, Kind: DriftPosition, Base: fmt.Sprint(i + 1), Staging: fmt.Sprint(j + 1)})
		}
	}

	for _, s := range staging {
		if !baseNames[strings.ToLower(s.Name)] {
			drifts = append(drifts, Drift{Column: s.Name, Kind: DriftExtra, Staging: s.Definition()})
		}
	}
	return drifts
}

func nullability(c Column) string {
	if c.Nullable {
		return "NULL"
	}
	return "NOT NULL"
}

// DriftError reports that a staging table no longer mirrors its base table.
type DriftError struct {
	Base    bcpstage.TableIdentity
	Staging bcpstage.TableIdentity
	Drifts  []Drift
}

func (e *DriftError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s differs from %s in %d column(s)", e.Staging.Dotted(), e.Base.Dotted(), len(e.Drifts))
	for _, d := range e.Drifts {
		b.WriteString("\n  " + d.String())
	}
	return b.String()
}

func (e *DriftError) Unwrap() error {
	return bcpstage.ErrSchemaDrift
}
