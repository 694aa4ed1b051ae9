package ddl

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect captures the few ways target databases differ for load tables.
type Dialect struct {
	Name string
	// TextType is the column type used for every dump field.
	TextType string
	Quote    Quoter
	// PrimaryKeys is false where TextType cannot be indexed.
	PrimaryKeys bool
	// ifMissing turns a CREATE TABLE statement into one that is a no-op when
	// the table already exists.
	ifMissing func(fqn, stmt string) string
}

func doubleQuote(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

func ifNotExists(_, stmt string) string {
	return strings.Replace(stmt, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
}

var (
	Postgres = Dialect{
		Name:        "postgres",
		TextType:    "TEXT",
		Quote:       doubleQuote,
		PrimaryKeys: true,
		ifMissing:   ifNotExists,
	}
	MySQL = Dialect{
		Name:      "mysql",
		TextType:  "LONGTEXT",
		Quote:     func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
		ifMissing: ifNotExists,
	}
	SQLite = Dialect{
		Name:        "sqlite",
		TextType:    "TEXT",
		Quote:       doubleQuote,
		PrimaryKeys: true,
		ifMissing:   ifNotExists,
	}
	MSSQL = Dialect{
		Name:     "mssql",
		TextType: "NVARCHAR(MAX)",
		Quote:    func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" },
		ifMissing: func(fqn, stmt string) string {
			return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", strings.ReplaceAll(fqn, "'", "''"), stmt)
		},
	}
)

var dialects = map[string]Dialect{
	Postgres.Name: Postgres,
	MySQL.Name:    MySQL,
	SQLite.Name:   SQLite,
	MSSQL.Name:    MSSQL,
}

// DialectByName returns a built-in dialect.
func DialectByName(name string) (Dialect, bool) {
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// DialectNames lists the built-in dialect names, sorted.
func DialectNames() []string {
	out := make([]string, 0, len(dialects))
	for k := range dialects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TableDef builds the load table definition for attrs in this dialect.
func (d Dialect) TableDef(fqn string, attrs []string) TableDef {
	td := FromColumns(fqn, attrs, d.TextType)
	if !d.PrimaryKeys {
		for i := range td.Columns {
			td.Columns[i].PrimaryKey = false
		}
	}
	return td
}

// CreateTableSQL renders a CREATE TABLE statement for attrs that does nothing
// when the table already exists.
func (d Dialect) CreateTableSQL(fqn string, attrs []string) (string, error) {
	stmt, err := BuildCreateTableSQL(d.TableDef(fqn, attrs), d.Quote)
	if err != nil {
		return "", err
	}
	if d.ifMissing != nil {
		stmt = d.ifMissing(fqn, stmt)
	}
	return stmt, nil
}

// QuotedColumns returns the snake-cased, quoted column list for attrs in
// load order.
func (d Dialect) QuotedColumns(attrs []string) []string {
	cols := d.TableDef("", attrs).ColumnNames()
	for i, c := range cols {
		cols[i] = d.Quote(c)
	}
	return cols
}
