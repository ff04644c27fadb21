package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/reelops/reelops-api/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// exact, case-sensitive match like the users_email_key constraint
	if _, taken := r.s.emails[nu.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	role := nu.Role
	if role == "" {
		role = user.DefaultRole
	}

	u := user.User{
		ID:           r.s.nextID(),
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Role:         role,
		CreatedAt:    r.s.timestamp(),
	}

	r.s.users[u.ID] = u
	r.s.emails[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.users[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Search(ctx context.Context, query string, limit int) ([]user.Summary, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]user.Summary, 0)
	for _, u := range r.s.users {
		if u.Role == user.RoleAdmin {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, user.Summary{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
