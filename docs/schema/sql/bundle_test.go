package sqldocs

import (
	"strings"
	"testing"
)

func TestBundlesCreateFormFields(t *testing.T) {
	for name, ddl := range map[string]string{"sqlite": SQLite, "postgres": Postgres} {
		stmts := SplitStatements(ddl)
		if len(stmts) != 2 {
			t.Fatalf("%s: expected 2 statements, got %d: %q", name, len(stmts), stmts)
		}
		if !strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS form_fields") {
			t.Fatalf("%s: first statement should create form_fields, got %q", name, stmts[0])
		}
	}
}

func TestSplitStatementsKeepsUnterminatedTail(t *testing.T) {
	got := SplitStatements("-- comment\nSELECT 1;\n\nSELECT 2")
	if len(got) != 2 || got[0] != "SELECT 1;" || got[1] != "SELECT 2" {
		t.Fatalf("unexpected split: %q", got)
	}
}
