package library

import (
	"errors"
	"fmt"
	"strings"
)

// BookStatus is the circulation state of a book.
type BookStatus string

const (
	StatusAvailable BookStatus = "available"
	StatusBorrowed  BookStatus = "borrowed"
)

// Book represents a catalog entry and its current loan, if any.
// BorrowedBy and BorrowedOn are empty unless Status is StatusBorrowed.
type Book struct {
	ID         string     `json:"book_id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Year       string     `json:"year"`
	ISBN       string     `json:"isbn"`
	Status     BookStatus `json:"status"`
	BorrowedBy string     `json:"borrowed_by,omitempty"`
	BorrowedOn string     `json:"borrowed_on,omitempty"`
}

// Member represents a registered library member.
type Member struct {
	ID    string `json:"member_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

var (
	// ErrMissingField is returned by Validate when a required field is blank.
	ErrMissingField = errors.New("required field is empty")
	// ErrCarriageReturn is returned by Validate for fields holding '\r',
	// which the record files cannot store verbatim.
	ErrCarriageReturn = errors.New("field contains a carriage return")
)

func (b *Book) IsAvailable() bool { return b.Status == StatusAvailable }

func (b *Book) borrow(memberID, date string) bool {
	if !b.IsAvailable() {
		return false
	}
	b.Status = StatusBorrowed
	b.BorrowedBy = memberID
	b.BorrowedOn = date
	return true
}

func (b *Book) giveBack() bool {
	if b.IsAvailable() {
		return false
	}
	b.Status = StatusAvailable
	b.BorrowedBy = ""
	b.BorrowedOn = ""
	return true
}

// Validate checks the fields a new book must carry.
func (b *Book) Validate() error {
	return requireFields(
		[2]string{"book_id", b.ID},
		[2]string{"title", b.Title},
		[2]string{"author", b.Author},
		[2]string{"year", b.Year},
		[2]string{"isbn", b.ISBN},
	)
}

// Validate checks the fields a new member must carry.
func (m *Member) Validate() error {
	return requireFields(
		[2]string{"member_id", m.ID},
		[2]string{"name", m.Name},
		[2]string{"email", m.Email},
	)
}

func requireFields(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("%s: %w", f[0], ErrMissingField)
		}
		if strings.ContainsRune(f[1], '\r') {
			return fmt.Errorf("%s: %w", f[0], ErrCarriageReturn)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Row schemas
// ---------------------------------------------------------------------------

var (
	bookHeaders   = []string{"book_id", "title", "author", "year", "isbn", "status", "borrowed_by", "borrowed_on"}
	memberHeaders = []string{"member_id", "name", "email"}
)

func encodeBook(b Book) []string {
	status := b.Status
	if status == "" {
		status = StatusAvailable
	}
	return []string{b.ID, b.Title, b.Author, b.Year, b.ISBN, string(status), b.BorrowedBy, b.BorrowedOn}
}

func decodeBook(row []string) (Book, error) {
	b := Book{
		ID:         row[0],
		Title:      row[1],
		Author:     row[2],
		Year:       row[3],
		ISBN:       row[4],
		Status:     BookStatus(row[5]),
		BorrowedBy: row[6],
		BorrowedOn: row[7],
	}
	if b.ID == "" {
		return Book{}, errors.New("empty book_id")
	}
	switch b.Status {
	case StatusAvailable:
		if b.BorrowedBy != "" || b.BorrowedOn != "" {
			return Book{}, fmt.Errorf("book %s is available but has a borrower", b.ID)
		}
	case StatusBorrowed:
		if b.BorrowedBy == "" || b.BorrowedOn == "" {
			return Book{}, fmt.Errorf("book %s is borrowed without borrower and date", b.ID)
		}
	default:
		return Book{}, fmt.Errorf("book %s has unknown status %q", b.ID, b.Status)
	}
	return b, nil
}

func encodeMember(m Member) []string {
	return []string{m.ID, m.Name, m.Email}
}

func decodeMember(row []string) (Member, error) {
	m := Member{ID: row[0], Name: row[1], Email: row[2]}
	if m.ID == "" {
		return Member{}, errors.New("empty member_id")
	}
	return m, nil
}
