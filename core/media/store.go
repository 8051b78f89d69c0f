package media

import "sync"

// Store holds at most one outstanding handle per role. Installing a new
// handle for a role revokes the previous one, so replacement is always
// release-at-reassignment and nothing is left dangling.
type Store struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

func NewStore() *Store {
	return &Store{handles: map[string]*Handle{}}
}

// Install registers a handle under a role, releasing any prior handle held
// for that role. A nil handle clears the role.
func (s *Store) Install(role string, handle *Handle) {
	if s == nil {
		return
	}

	s.mu.Lock()
	previous := s.handles[role]
	if handle != nil {
		s.handles[role] = handle
	} else {
		delete(s.handles, role)
	}
	s.mu.Unlock()

	if previous != nil && previous != handle {
		previous.Release()
	}
}

// Get returns the handle held for a role, or nil.
func (s *Store) Get(role string) *Handle {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[role]
}

// ReleaseAll revokes every outstanding handle. Used on teardown.
func (s *Store) ReleaseAll() {
	if s == nil {
		return
	}

	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.handles))
	for _, handle := range s.handles {
		handles = append(handles, handle)
	}
	s.handles = map[string]*Handle{}
	s.mu.Unlock()

	for _, handle := range handles {
		handle.Release()
	}
}
