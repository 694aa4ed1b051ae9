package control

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"so2db/internal/ddl"
)

// loadStmt renders the bulk-load command for one data file. cols are the
// quoted target columns in data file order.
type loadStmt func(sb *strings.Builder, e Entry, table string, cols []string, delim rune)

var loaders = map[string]loadStmt{
	ddl.Postgres.Name: func(sb *strings.Builder, e Entry, table string, cols []string, delim rune) {
		fmt.Fprintf(sb, "\\copy %s (%s) FROM '%s' WITH (FORMAT csv, DELIMITER E'\\x%02x', QUOTE E'\\x01')\n",
			table, strings.Join(cols, ", "), sqlString(e.File), delim)
	},
	ddl.MySQL.Name: func(sb *strings.Builder, e Entry, table string, cols []string, delim rune) {
		vars, sets := mysqlNullIf(cols)
		fmt.Fprintf(sb, "LOAD DATA LOCAL INFILE '%s' INTO TABLE %s CHARACTER SET utf8mb4\n"+
			"  FIELDS TERMINATED BY X'%02x' ESCAPED BY '' LINES TERMINATED BY '\\n'\n"+
			"  (%s)\n  SET %s;\n",
			sqlString(e.File), table, delim, strings.Join(vars, ", "), strings.Join(sets, ", "))
	},
	ddl.SQLite.Name: func(sb *strings.Builder, e Entry, table string, cols []string, delim rune) {
		fmt.Fprintf(sb, ".mode ascii\n.separator \"\\x%02x\" \"\\n\"\n.import %s %s\n", delim, dotArg(e.File), table)
		// .import stores empty fields as ''.
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = NULLIF(%s, '')", c, c)
		}
		fmt.Fprintf(sb, "UPDATE %s SET %s;\n", table, strings.Join(sets, ", "))
	},
	ddl.MSSQL.Name: func(sb *strings.Builder, e Entry, table string, _ []string, delim rune) {
		fmt.Fprintf(sb, "BULK INSERT %s FROM '%s' WITH (FIELDTERMINATOR = '0x%02x', ROWTERMINATOR = '0x0a', CODEPAGE = '65001', KEEPNULLS);\n",
			table, sqlString(e.File), delim)
	},
}

// mysqlNullIf reads every field into a user variable and stores empty
// fields as NULL, matching how the other dialects treat missing attributes.
func mysqlNullIf(cols []string) (vars, sets []string) {
	for i, c := range cols {
		v := fmt.Sprintf("@v%d", i+1)
		vars = append(vars, v)
		sets = append(sets, fmt.Sprintf("%s = NULLIF(%s, '')", c, v))
	}
	return vars, sets
}

// WriteLoadScript writes a script that creates every table in entries (when
// missing) and loads its data file with the dialect's bulk-load command.
// Column order in the load statements matches the data file.
func WriteLoadScript(w io.Writer, dialectName string, delim rune, entries []Entry) error {
	d, ok := ddl.DialectByName(dialectName)
	if !ok {
		return fmt.Errorf("control: unknown dialect %q (want one of %s)",
			dialectName, strings.Join(ddl.DialectNames(), ", "))
	}
	if delim > 0x7f {
		return fmt.Errorf("control: delimiter %q is not a single-byte character", delim)
	}
	load := loaders[d.Name]

	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Table < sorted[j].Table })

	var sb strings.Builder
	fmt.Fprintf(&sb, "-- load script (%s)\n", d.Name)
	for _, e := range sorted {
		stmt, err := d.CreateTableSQL(e.Table, e.Columns)
		if err != nil {
			return fmt.Errorf("control: %s: %w", e.Table, err)
		}
		fmt.Fprintf(&sb, "\n-- %s: %d rows, xxh3 %s\n%s\n", e.Descriptor, e.Rows, e.Checksum, stmt)
		load(&sb, e, ddl.QuoteFQN(e.Table, d.Quote), d.QuotedColumns(e.Columns), delim)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func sqlString(s string) string { return strings.ReplaceAll(s, "'", "''") }

// dotArg quotes an argument to a sqlite3 shell dot-command. Double-quoted
// arguments take C-style backslash escapes; single-quoted ones take none.
func dotArg(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
