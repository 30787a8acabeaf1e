package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	dir := filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

var migrationName = regexp.MustCompile(`^(\d{6})_[a-z0-9_]+\.(up|down)\.sql$`)

// TestMigrations_Pairs checks naming and that every up has a down.
func TestMigrations_Pairs(t *testing.T) {
	entries, err := os.ReadDir(migrationsDir(t))
	if err != nil {
		t.Fatal(err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		m := migrationName.FindStringSubmatch(e.Name())
		if m == nil {
			t.Errorf("badly named migration file %q", e.Name())
			continue
		}
		base := strings.TrimSuffix(e.Name(), "."+m[2]+".sql")
		if m[2] == "up" {
			ups[base] = true
		} else {
			downs[base] = true
		}
	}

	if len(ups) == 0 {
		t.Fatal("no migrations found")
	}
	for base := range ups {
		if !downs[base] {
			t.Errorf("%s has no down migration", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("%s has no up migration", base)
		}
	}
}

// TestMigrations_ResetTokenSchema checks the columns the reset token
// repository reads and writes.
func TestMigrations_ResetTokenSchema(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(migrationsDir(t), "*.up.sql"))
	if err != nil {
		t.Fatal(err)
	}

	var schema strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}
		schema.Write(data)
	}

	sql := schema.String()
	if !strings.Contains(sql, "CREATE TABLE password_reset_tokens") {
		t.Fatal("password_reset_tokens is never created")
	}
	for _, col := range []string{"token_hash", "email", "created_at", "expires_at", "used_at"} {
		if !strings.Contains(sql, col) {
			t.Errorf("password_reset_tokens is missing column %s", col)
		}
	}
}
