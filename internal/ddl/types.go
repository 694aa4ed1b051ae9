package ddl

// ColumnDef describes a single column of a load table.
//
// Fields:
//   - Name: snake_case column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, NVARCHAR(MAX))
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name and its ordered columns. FQN may be
// schema-qualified ("public.badges").
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Quoter quotes one identifier segment for a SQL dialect.
type Quoter func(ident string) string

// ColumnNames returns the column names in table order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
