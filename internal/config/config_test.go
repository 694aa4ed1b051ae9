package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDelimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", '\v', false},
		{"\v", '\v', false},
		{`\v`, '\v', false},
		{`\t`, '\t', false},
		{`\x0b`, '\v', false},
		{`¦`, '¦', false},
		{",", ',', false},
		{"¦", '¦', false},
		{"ab", 0, true},
		{`\q`, 0, true},
		{"\xff", 0, true},
		{"\x00", 0, true},
		{`\x00`, 0, true},
		{`\0`, 0, true},
	}
	for _, tc := range tests {
		got, err := ParseDelimiter(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseDelimiter(%q) err = %v; wantErr %v", tc.in, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("ParseDelimiter(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.json")
	body := `{
  "source":  {"dir": "dump"},
  "output":  {"dir": "out", "delimiter": "\\x1f"},
  "tables":  {"badges": ["Id", "Name"]},
  "storage": {"kind": "sqlite", "db": {"dsn": "file:x.db", "schema": "main"}}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if r.Job != "so2db" || r.Runtime.Jobs != 1 {
		t.Fatalf("defaults not applied: %+v", r)
	}
	if d, err := r.Delimiter(); err != nil || d != 0x1f {
		t.Fatalf("Delimiter = %q, %v", d, err)
	}
	if got := r.TableFQN("badges"); got != "main.badges" {
		t.Fatalf("TableFQN = %q", got)
	}
	if len(r.Tables["badges"]) != 2 {
		t.Fatalf("tables = %v", r.Tables)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"sauce": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
