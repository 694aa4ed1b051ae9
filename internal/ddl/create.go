// Package ddl builds CREATE TABLE statements for the tables that receive
// converted dump records.
//
// Every dump field arrives as text, so tables are modeled as a list of
// text-typed columns in load order. Dialect differences are limited to the
// column type and identifier quoting, both supplied by the caller.
package ddl

import (
	"fmt"
	"strings"

	"so2db/internal/formatter"
)

// FromColumns builds a TableDef for a dump table. Attribute names are
// snake-cased and keep their load order; every column is a nullable sqlType
// except "id", which becomes a non-null primary key when present.
func FromColumns(fqn string, attrs []string, sqlType string) TableDef {
	td := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(attrs))}
	for _, name := range formatter.SnakeColumns(attrs) {
		col := ColumnDef{Name: name, SQLType: sqlType, Nullable: true}
		if name == "id" {
			col.Nullable = false
			col.PrimaryKey = true
		}
		td.Columns = append(td.Columns, col)
	}
	return td
}

// QuoteFQN applies q to each dot-separated segment of a possibly
// schema-qualified name. A nil quoter leaves the name unchanged.
func QuoteFQN(name string, q Quoter) string {
	if q == nil {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = q(p)
	}
	return strings.Join(parts, ".")
}

// BuildCreateTableSQL renders a CREATE TABLE statement:
//
//	CREATE TABLE <FQN> (
//	  <name> <type> [NOT NULL],
//	  ...,
//	  [PRIMARY KEY (<pk-cols>)]
//	);
//
// Identifiers are passed through q (nil leaves them as-is).
func BuildCreateTableSQL(t TableDef, q Quoter) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	quote := func(s string) string {
		if q == nil {
			return s
		}
		return q(s)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		def := quote(name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
		if c.PrimaryKey {
			pks = append(pks, quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		QuoteFQN(fqn, q),
		strings.Join(cols, ",\n  "),
	), nil
}
