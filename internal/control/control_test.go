package control

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/zeebo/xxh3"
)

func sampleEntries() []Entry {
	return []Entry{
		{
			Table:      "votes",
			Descriptor: "votes(id,post_id)",
			File:       "/out/votes.dat",
			Columns:    []string{"Id", "PostId"},
			Rows:       3,
			Checksum:   "00000000000000ff",
		},
		{
			Table:      "badges",
			Descriptor: "badges(date,id,name,user_id)",
			File:       "/out/badges.dat",
			Columns:    []string{"Id", "UserId", "Name", "Date"},
			Rows:       2,
			Checksum:   "0000000000000001",
		},
	}
}

func TestChecksumWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cw := NewChecksumWriter(&buf)
	for _, part := range []string{"1\vTeacher\n", "2\vStudent\n"} {
		if _, err := cw.Write([]byte(part)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	if buf.String() != "1\vTeacher\n2\vStudent\n" {
		t.Fatalf("forwarded %q", buf.String())
	}
	if cw.Bytes() != int64(buf.Len()) {
		t.Fatalf("Bytes = %d; want %d", cw.Bytes(), buf.Len())
	}

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxh3.Hash(buf.Bytes()))
	if got, want := cw.Sum(), hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("Sum = %s; want %s", got, want)
	}
}

func TestWriteManifest_SortedByTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteManifest(&buf, '\v', sampleEntries()); err != nil {
		t.Fatalf("WriteManifest error: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if m.Delimiter != "\v" {
		t.Fatalf("delimiter = %q", m.Delimiter)
	}
	if len(m.Tables) != 2 || m.Tables[0].Table != "badges" || m.Tables[1].Table != "votes" {
		t.Fatalf("tables = %+v", m.Tables)
	}
}

func TestWriteLoadScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect string
		want    []string
	}{
		{"postgres", []string{
			`CREATE TABLE IF NOT EXISTS "badges" (`,
			`"user_id" TEXT`,
			`PRIMARY KEY ("id")`,
			`\copy "badges" ("id", "user_id", "name", "date") FROM '/out/badges.dat' WITH (FORMAT csv, DELIMITER E'\x0b', QUOTE E'\x01')`,
		}},
		{"mysql", []string{
			"CREATE TABLE IF NOT EXISTS `badges` (",
			"LOAD DATA LOCAL INFILE '/out/badges.dat' INTO TABLE `badges`",
			"TERMINATED BY X'0b'",
			"(@v1, @v2, @v3, @v4)",
			"`user_id` = NULLIF(@v2, '')",
		}},
		{"sqlite", []string{
			`.separator "\x0b" "\n"`,
			`.import "/out/badges.dat" "badges"`,
			`UPDATE "badges" SET "id" = NULLIF("id", ''), "user_id" = NULLIF("user_id", ''), "name" = NULLIF("name", ''), "date" = NULLIF("date", '');`,
		}},
		{"mssql", []string{
			"CREATE TABLE [badges] (",
			"[id] NVARCHAR(MAX) NOT NULL",
			"FIELDTERMINATOR = '0x0b'",
		}},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		if err := WriteLoadScript(&buf, tc.dialect, '\v', sampleEntries()); err != nil {
			t.Fatalf("%s: WriteLoadScript error: %v", tc.dialect, err)
		}
		got := buf.String()
		for _, w := range tc.want {
			if !strings.Contains(got, w) {
				t.Fatalf("%s script missing %q:\n%s", tc.dialect, w, got)
			}
		}
		if strings.Index(got, "-- badges(") > strings.Index(got, "-- votes(") {
			t.Fatalf("%s: tables not sorted:\n%s", tc.dialect, got)
		}
	}
}

func TestWriteLoadScript_Errors(t *testing.T) {
	t.Parallel()

	if err := WriteLoadScript(&bytes.Buffer{}, "oracle", '\v', sampleEntries()); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
	if err := WriteLoadScript(&bytes.Buffer{}, "postgres", '¦', sampleEntries()); err == nil {
		t.Fatalf("expected error for multi-byte delimiter")
	}
}

func TestWriteLoadScript_SQLiteQuotesPath(t *testing.T) {
	t.Parallel()

	entries := []Entry{{Table: "tags", File: `/out/it's "x"\tags.dat`, Columns: []string{"Id"}}}
	var buf bytes.Buffer
	if err := WriteLoadScript(&buf, "sqlite", '\v', entries); err != nil {
		t.Fatalf("WriteLoadScript error: %v", err)
	}
	want := `.import "/out/it's \"x\"\\tags.dat" "tags"`
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("script missing %s:\n%s", want, buf.String())
	}
}
