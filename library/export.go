package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ExportResult counts the rows written by ExportSQLite.
type ExportResult struct {
	Books   int
	Members int
}

// ExportSQLite writes a snapshot of the catalog into the SQLite database at
// dbPath, replacing whatever an earlier export left there. The CSV files
// remain the source of truth; the database is for ad-hoc queries.
func ExportSQLite(c *Catalog, dbPath string) (ExportResult, error) {
	books, err := c.ListBooks()
	if err != nil {
		return ExportResult{}, err
	}
	members, err := c.ListMembers()
	if err != nil {
		return ExportResult{}, err
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ExportResult{}, fmt.Errorf("create export dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return ExportResult{}, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if err := applyMigrations(db); err != nil {
		return ExportResult{}, err
	}
	if err := replaceSnapshot(db, books, members); err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Books: len(books), Members: len(members)}, nil
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// borrowed_by carries no foreign key: a deleted member may still be
	// referenced by a book.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
            member_id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            book_id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            year TEXT NOT NULL,
            isbn TEXT NOT NULL,
            status TEXT NOT NULL CHECK (status IN ('available','borrowed')),
            borrowed_by TEXT,
            borrowed_on TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_books_borrowed_by ON books(borrowed_by);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

func replaceSnapshot(db *sql.DB, books []Book, members []Member) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM books`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM members`); err != nil {
		return err
	}

	// INSERT OR REPLACE keeps the last row when a hand-edited file repeats an id.
	memberStmt, err := tx.Prepare(`INSERT OR REPLACE INTO members(member_id,name,email) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer memberStmt.Close()
	for _, m := range members {
		if _, err := memberStmt.Exec(m.ID, m.Name, m.Email); err != nil {
			return fmt.Errorf("export member %s: %w", m.ID, err)
		}
	}

	bookStmt, err := tx.Prepare(`INSERT OR REPLACE INTO books(book_id,title,author,year,isbn,status,borrowed_by,borrowed_on)
        VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer bookStmt.Close()
	for _, b := range books {
		if _, err := bookStmt.Exec(b.ID, b.Title, b.Author, b.Year, b.ISBN, string(b.Status),
			nullIfEmpty(b.BorrowedBy), nullIfEmpty(b.BorrowedOn)); err != nil {
			return fmt.Errorf("export book %s: %w", b.ID, err)
		}
	}

	return tx.Commit()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
