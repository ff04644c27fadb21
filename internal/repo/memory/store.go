// Package memory holds the credential, project and membership stores in
// process. A single mutex covers all three so that every check-then-write
// sequence is atomic, matching the transactional guarantees of the
// PostgreSQL stores.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/reelops/reelops-api/internal/domain/member"
	"github.com/reelops/reelops-api/internal/domain/project"
	"github.com/reelops/reelops-api/internal/domain/user"
)

type Store struct {
	mu sync.RWMutex

	users    map[int64]user.User
	emails   map[string]int64
	projects map[int64]project.Project
	members  map[int64]member.Member

	lastID int64
	now    func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[int64]user.User),
		emails:   make(map[string]int64),
		projects: make(map[int64]project.Project),
		members:  make(map[int64]member.Member),
		now:      time.Now,
	}
}

func (s *Store) Users() *UsersRepo       { return &UsersRepo{s: s} }
func (s *Store) Projects() *ProjectsRepo { return &ProjectsRepo{s: s} }
func (s *Store) Members() *MembersRepo   { return &MembersRepo{s: s} }

// nextID must be called with mu held for writing.
func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// withCreator fills the joined creator name; callers hold mu.
func (s *Store) withCreator(p project.Project) project.Project {
	p.CreatedByName = nil
	if p.CreatedByID != nil {
		if u, ok := s.users[*p.CreatedByID]; ok {
			name := u.Name
			p.CreatedByName = &name
		}
	}
	return p
}

// withUser fills the joined name and email; callers hold mu.
func (s *Store) withUser(m member.Member) (member.Member, bool) {
	u, ok := s.users[m.UserID]
	if !ok {
		return m, false
	}
	m.Name = u.Name
	m.Email = u.Email
	return m, true
}

// removeUser mimics the foreign keys: created_by is nulled and the user's
// assignments are dropped. Not reachable through the API.
func (s *Store) removeUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return
	}
	delete(s.users, id)
	delete(s.emails, u.Email)

	for pid, p := range s.projects {
		if p.CreatedByID != nil && *p.CreatedByID == id {
			p.CreatedByID = nil
			s.projects[pid] = p
		}
	}
	for mid, m := range s.members {
		if m.UserID == id {
			delete(s.members, mid)
		}
	}
}

func sortByCreated[T any](items []T, created func(T) time.Time, id func(T) int64, asc bool) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			if asc {
				return ci.Before(cj)
			}
			return ci.After(cj)
		}
		if asc {
			return id(items[i]) < id(items[j])
		}
		return id(items[i]) > id(items[j])
	})
}
