// Package config defines the JSON run file for so2db: which dump files to
// convert, where the data files go, and optionally how to load them.
//
// Example:
//
//	{
//	  "job":     "so2db",
//	  "source":  { "dir": "dump/", "files": ["Badges.xml", "Posts.xml.gz"] },
//	  "output":  { "dir": "out/", "delimiter": "\u000b", "load_script": "postgres" },
//	  "tables":  { "badges": ["Id", "UserId", "Name", "Date"] },
//	  "storage": { "kind": "postgres", "db": { "dsn": "...", "schema": "public", "auto_create_table": true } },
//	  "runtime": { "jobs": 2 }
//	}
//
// Decoding uses the standard library; command-line flags override file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultDelimiter is the field separator used when none is configured
// (vertical tab, chr(11)).
const DefaultDelimiter = '\v'

// Run is the top-level object decoded from a run file.
type Run struct {
	// Job labels metrics and log lines for this run.
	Job string `json:"job"`

	Source Source `json:"source"`
	Output Output `json:"output"`

	// Tables adds tables to the built-in attribute catalog or replaces a
	// table's attribute list. Keys are table names (badges, posts, ...).
	Tables map[string][]string `json:"tables,omitempty"`

	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
}

// Source selects the dump files to convert. When Files is empty every dump
// file in Dir is converted; relative entries in Files are resolved against Dir.
type Source struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files,omitempty"`
}

// Output controls where and how data files are written.
type Output struct {
	Dir string `json:"dir"`

	// Delimiter is a single character or an escape such as "\\v" or "\\x0b".
	// Empty means DefaultDelimiter.
	Delimiter string `json:"delimiter,omitempty"`

	// LoadScript names a SQL dialect (postgres, mysql, sqlite, mssql) for
	// which a load script is written next to the data files. Empty disables it.
	LoadScript string `json:"load_script,omitempty"`
}

// Storage optionally loads the converted files into a database.
type Storage struct {
	// Kind is a registered storage backend. Empty disables loading.
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig holds connection and table options shared by all backends.
type DBConfig struct {
	DSN string `json:"dsn"`
	// Schema qualifies table names when set (public.badges).
	Schema string `json:"schema,omitempty"`
	// AutoCreateTable creates missing tables before loading.
	AutoCreateTable bool `json:"auto_create_table"`
	// BatchSize bounds rows per round-trip for batching backends.
	BatchSize int `json:"batch_size,omitempty"`
}

// RuntimeConfig controls concurrency.
type RuntimeConfig struct {
	// Jobs is the number of files converted concurrently. Each file is
	// converted by a single goroutine.
	Jobs int `json:"jobs"`
}

// Default returns a run that converts the current directory into ./out.
func Default() Run {
	return Run{
		Job:     "so2db",
		Source:  Source{Dir: "."},
		Output:  Output{Dir: "out"},
		Runtime: RuntimeConfig{Jobs: 1},
	}
}

// Load decodes the run file at path on top of Default.
func Load(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	r := Default()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return Run{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return r, nil
}

// Delimiter returns the configured field delimiter.
func (r Run) Delimiter() (rune, error) {
	return ParseDelimiter(r.Output.Delimiter)
}

// TableFQN qualifies table with the configured schema, if any.
func (r Run) TableFQN(table string) string {
	if r.Storage.DB.Schema == "" {
		return table
	}
	return r.Storage.DB.Schema + "." + table
}

// ParseDelimiter accepts a single character or a Go escape sequence
// ("\\v", "\\t", "\\x0b", "\\u00a6"). Empty yields DefaultDelimiter; NUL is
// rejected.
func ParseDelimiter(s string) (rune, error) {
	r, err := parseDelimiter(s)
	if err != nil {
		return 0, err
	}
	if r == 0 {
		return 0, fmt.Errorf("delimiter must not be NUL")
	}
	return r, nil
}

func parseDelimiter(s string) (rune, error) {
	if s == "" {
		return DefaultDelimiter, nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError {
			return 0, fmt.Errorf("delimiter %q is not valid UTF-8", s)
		}
		return r, nil
	}
	if !strings.HasPrefix(s, `\`) {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	v, err := strconv.Unquote("'" + s + "'")
	if err != nil {
		return 0, fmt.Errorf("delimiter %q: invalid escape", s)
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r, nil
}
