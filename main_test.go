package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"library-catalog/config"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(config.Config{DataDir: dataDir, Addr: ":0"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestCLICirculation(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "book", "add", "--id", "B1", "--title", "Dune", "--author", "Herbert", "--year", "1965", "--isbn", "0441013597")
	mustRun(t, dir, "member", "add", "--id", "M1", "--name", "Alice", "--email", "a@x.com")

	if out := mustRun(t, dir, "book", "borrow", "B1", "M1", "--date", "2024-01-01"); !strings.Contains(out, "Borrowed successfully.") {
		t.Fatalf("borrow output: %q", out)
	}
	if out := mustRun(t, dir, "book", "borrow", "B1", "M1"); !strings.Contains(out, "Book not available.") {
		t.Fatalf("second borrow output: %q", out)
	}

	out := mustRun(t, dir, "book", "list")
	want := "B1\tDune\tHerbert\t1965\t0441013597\tborrowed\tM1\t2024-01-01\n"
	if out != want {
		t.Fatalf("list: want %q, got %q", want, out)
	}

	if out := mustRun(t, dir, "book", "return", "B1"); !strings.Contains(out, "Returned successfully.") {
		t.Fatalf("return output: %q", out)
	}
	if out := mustRun(t, dir, "book", "return", "B1"); !strings.Contains(out, "already available") {
		t.Fatalf("second return output: %q", out)
	}
}

func TestCLIRejectsDuplicatesAndBlanks(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "member", "add", "--id", "M1", "--name", "Alice", "--email", "a@x.com")

	if _, err := run(t, dir, "member", "add", "--id", "M1", "--name", "Bob", "--email", "b@x.com"); err == nil {
		t.Fatalf("expected duplicate member error")
	}
	if _, err := run(t, dir, "book", "add", "--id", "B1", "--title", "Dune"); err == nil {
		t.Fatalf("expected missing fields error")
	}

	out := mustRun(t, dir, "member", "list")
	if out != "M1\tAlice\ta@x.com\n" {
		t.Fatalf("member list: %q", out)
	}
}

func TestCLIBorrowUnknownMember(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "book", "add", "--id", "B1", "--title", "Dune", "--author", "Herbert", "--year", "1965", "--isbn", "1")

	out := mustRun(t, dir, "book", "borrow", "B1", "ghost")
	if !strings.Contains(out, "Member ghost not found.") {
		t.Fatalf("borrow output: %q", out)
	}
}

func TestCLIDeleteMemberWarnsAboutLoans(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "book", "add", "--id", "B1", "--title", "Dune", "--author", "Herbert", "--year", "1965", "--isbn", "1")
	mustRun(t, dir, "member", "add", "--id", "M1", "--name", "Alice", "--email", "a@x.com")
	mustRun(t, dir, "book", "borrow", "B1", "M1")

	out := mustRun(t, dir, "member", "delete", "M1")
	if !strings.Contains(out, "Member deleted.") || !strings.Contains(out, "Warning: book B1") {
		t.Fatalf("delete output: %q", out)
	}
	if out := mustRun(t, dir, "member", "delete", "M1"); !strings.Contains(out, "Member not found.") {
		t.Fatalf("second delete output: %q", out)
	}
}

func TestCLIExport(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "member", "add", "--id", "M1", "--name", "Alice", "--email", "a@x.com")

	dbPath := filepath.Join(t.TempDir(), "snap.db")
	out := mustRun(t, dir, "export", "--out", dbPath)
	if !strings.Contains(out, "Exported 0 book(s) and 1 member(s)") {
		t.Fatalf("export output: %q", out)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncateString("a very long title indeed", 10); got != "a very ..." {
		t.Fatalf("got %q", got)
	}
	if got := truncateString("Достоевский", 10); got != "Достоев..." {
		t.Fatalf("got %q", got)
	}
	if got := truncateString("Мастер", 10); got != "Мастер" {
		t.Fatalf("got %q", got)
	}
}
