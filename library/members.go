package library

import "sync"

// MemberStore owns the member collection file.
type MemberStore struct {
	mu sync.Mutex
	t  table[Member]
}

func NewMemberStore(path string) *MemberStore {
	return &MemberStore{t: table[Member]{
		path:   path,
		header: memberHeaders,
		encode: encodeMember,
		decode: decodeMember,
	}}
}

func (s *MemberStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ensureFile()
}

func (s *MemberStore) Path() string { return s.t.path }

func (s *MemberStore) List() ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.readAll()
}

// Get returns nil when no member has the given id.
func (s *MemberStore) Get(id string) (*Member, error) {
	members, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID == id {
			return &members[i], nil
		}
	}
	return nil, nil
}

// Add appends m. Callers check Get first.
func (s *MemberStore) Add(m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.appendRow(m)
}

// AddIfAbsent appends m unless the id is taken, under one lock.
func (s *MemberStore) AddIfAbsent(m Member) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.t.readAll()
	if err != nil {
		return false, err
	}
	for _, existing := range members {
		if existing.ID == m.ID {
			return false, nil
		}
	}
	if err := s.t.appendRow(m); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the member. Books still lent to them keep the id.
func (s *MemberStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.t.readAll()
	if err != nil {
		return false, err
	}
	kept := make([]Member, 0, len(members))
	for _, m := range members {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(members) {
		return false, nil
	}
	return true, s.t.writeAll(kept)
}
