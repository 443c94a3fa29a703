package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDescriptionFromFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-10-16-001-create-coach-ratings.sql", "create coach ratings"},
		{"no-prefix.sql", "no prefix"},
	}
	for _, tc := range cases {
		if got := descriptionFromFilename(tc.in); got != tc.want {
			t.Errorf("descriptionFromFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMigrationFiles_Sorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2026-10-17-001-b.sql", "2026-10-16-001-a.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "2026-10-16-001-a.sql" {
		t.Errorf("files = %v", files)
	}

	if _, err := migrationFiles(t.TempDir()); err == nil {
		t.Error("expected error for empty directory")
	}
}
