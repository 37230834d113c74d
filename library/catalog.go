package library

import "path/filepath"

const (
	booksFile   = "books.csv"
	membersFile = "members.csv"
)

// Catalog is a thin façade over the book and member stores, keeping
// presentation code simple.
type Catalog struct {
	dataDir string
	books   *BookStore
	members *MemberStore
}

// NewCatalog binds both stores under dataDir and creates any missing files.
func NewCatalog(dataDir string) (*Catalog, error) {
	c := &Catalog{
		dataDir: dataDir,
		books:   NewBookStore(filepath.Join(dataDir, booksFile)),
		members: NewMemberStore(filepath.Join(dataDir, membersFile)),
	}
	if err := c.books.Init(); err != nil {
		return nil, err
	}
	if err := c.members.Init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) DataDir() string { return c.dataDir }

// ------------------ Book helpers ------------------

func (c *Catalog) ListBooks() ([]Book, error)         { return c.books.List() }
func (c *Catalog) GetBook(id string) (*Book, error)   { return c.books.Get(id) }
func (c *Catalog) AddBook(b Book) error               { return c.books.Add(b) }
func (c *Catalog) DeleteBook(id string) (bool, error) { return c.books.Delete(id) }
func (c *Catalog) ReturnBook(id string) (bool, error) { return c.books.Return(id) }

func (c *Catalog) BorrowBook(id, memberID, date string) (bool, error) {
	return c.books.Borrow(id, memberID, date)
}

// AddBookIfAbsent adds b and reports false when its id is already taken.
func (c *Catalog) AddBookIfAbsent(b Book) (bool, error) {
	return c.books.AddIfAbsent(b)
}

// BooksBorrowedBy lists the books currently lent to memberID.
func (c *Catalog) BooksBorrowedBy(memberID string) ([]Book, error) {
	return c.books.BorrowedBy(memberID)
}

// ------------------ Member helpers ------------------

func (c *Catalog) ListMembers() ([]Member, error)       { return c.members.List() }
func (c *Catalog) GetMember(id string) (*Member, error) { return c.members.Get(id) }
func (c *Catalog) AddMember(m Member) error             { return c.members.Add(m) }
func (c *Catalog) DeleteMember(id string) (bool, error) { return c.members.Delete(id) }

// AddMemberIfAbsent adds m and reports false when its id is already taken.
func (c *Catalog) AddMemberIfAbsent(m Member) (bool, error) {
	return c.members.AddIfAbsent(m)
}
