package ddl

import (
	"strings"
	"testing"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	dq := func(s string) string { return `"` + s + `"` }

	tests := []struct {
		name        string
		def         TableDef
		q           Quoter
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "TEXT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "badges"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "TEXT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "missing SQLType",
		},
		{
			name: "unquoted",
			def: TableDef{FQN: "badges", Columns: []ColumnDef{
				{Name: "id", SQLType: "TEXT", PrimaryKey: true},
				{Name: "name", SQLType: "TEXT", Nullable: true},
			}},
			wantSQL: "CREATE TABLE badges (\n  id TEXT NOT NULL,\n  name TEXT,\n  PRIMARY KEY (id)\n);",
		},
		{
			name: "quoted schema-qualified",
			def: TableDef{FQN: "public.badges", Columns: []ColumnDef{
				{Name: "user_id", SQLType: "TEXT", Nullable: true},
			}},
			q:       dq,
			wantSQL: "CREATE TABLE \"public\".\"badges\" (\n  \"user_id\" TEXT\n);",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildCreateTableSQL(tc.def, tc.q)
			if tc.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tc.errContains) {
					t.Fatalf("err = %v; want containing %q", err, tc.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.wantSQL {
				t.Fatalf("SQL mismatch\n got: %q\nwant: %q", got, tc.wantSQL)
			}
		})
	}
}

func TestFromColumns(t *testing.T) {
	t.Parallel()

	td := FromColumns("badges", []string{"Id", "UserId", "Name", "Date"}, "TEXT")
	var names []string
	for _, c := range td.Columns {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "id,user_id,name,date" {
		t.Fatalf("columns = %v", names)
	}
	if !td.Columns[0].PrimaryKey || td.Columns[0].Nullable {
		t.Fatalf("id column = %+v; want non-null primary key", td.Columns[0])
	}
	if td.Columns[1].PrimaryKey || !td.Columns[1].Nullable {
		t.Fatalf("user_id column = %+v; want nullable", td.Columns[1])
	}
}
