package library

import "sync"

// BookStore owns the book collection file. Every call reloads the whole file;
// every mutation other than Add rewrites it.
//
// mu serialises the load-mutate-write sequence within this process so two
// concurrent Borrow calls cannot both see the book as available.
type BookStore struct {
	mu sync.Mutex
	t  table[Book]
}

// NewBookStore binds a store to path. The file is not touched until Init or
// the first operation.
func NewBookStore(path string) *BookStore {
	return &BookStore{t: table[Book]{
		path:   path,
		header: bookHeaders,
		encode: encodeBook,
		decode: decodeBook,
	}}
}

// Init creates the file with its header row if it does not exist yet.
func (s *BookStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ensureFile()
}

// Path returns the backing file.
func (s *BookStore) Path() string { return s.t.path }

func (s *BookStore) List() ([]Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.readAll()
}

// Get returns nil when no book has the given id.
func (s *BookStore) Get(id string) (*Book, error) {
	books, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range books {
		if books[i].ID == id {
			return &books[i], nil
		}
	}
	return nil, nil
}

// Add appends b. Callers check Get first; duplicate ids are not rejected here.
func (s *BookStore) Add(b Book) error {
	if b.Status == "" {
		b.Status = StatusAvailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.appendRow(b)
}

// AddIfAbsent appends b unless a book with the same id exists. The check and
// the append happen under one lock.
func (s *BookStore) AddIfAbsent(b Book) (bool, error) {
	if b.Status == "" {
		b.Status = StatusAvailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.t.readAll()
	if err != nil {
		return false, err
	}
	for _, existing := range books {
		if existing.ID == b.ID {
			return false, nil
		}
	}
	if err := s.t.appendRow(b); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes every book with the given id and reports whether any existed.
func (s *BookStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.t.readAll()
	if err != nil {
		return false, err
	}
	kept := make([]Book, 0, len(books))
	for _, b := range books {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(books) {
		return false, nil
	}
	return true, s.t.writeAll(kept)
}

// Borrow lends the first available book with the given id to memberID.
// It returns false when the book is missing or already borrowed.
func (s *BookStore) Borrow(id, memberID, date string) (bool, error) {
	return s.update(id, func(b *Book) bool { return b.borrow(memberID, date) })
}

// Return puts the first borrowed book with the given id back on the shelf.
// It returns false when the book is missing or already available.
func (s *BookStore) Return(id string) (bool, error) {
	return s.update(id, (*Book).giveBack)
}

// BorrowedBy lists the books currently on loan to memberID.
func (s *BookStore) BorrowedBy(memberID string) ([]Book, error) {
	books, err := s.List()
	if err != nil {
		return nil, err
	}
	var held []Book
	for _, b := range books {
		if b.Status == StatusBorrowed && b.BorrowedBy == memberID {
			held = append(held, b)
		}
	}
	return held, nil
}

// update applies fn to the first book with the given id for which fn
// succeeds, then rewrites the collection.
func (s *BookStore) update(id string, fn func(*Book) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.t.readAll()
	if err != nil {
		return false, err
	}
	for i := range books {
		if books[i].ID == id && fn(&books[i]) {
			if err := s.t.writeAll(books); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}
