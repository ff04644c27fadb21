package memory

import (
	"context"
	"time"

	"github.com/reelops/reelops-api/internal/domain/member"
	"github.com/reelops/reelops-api/internal/domain/project"
	"github.com/reelops/reelops-api/internal/domain/user"
)

type MembersRepo struct {
	s *Store
}

// Add runs lookup, duplicate check and insert under one write lock, so two
// concurrent adds of the same person cannot both succeed.
func (r *MembersRepo) Add(ctx context.Context, projectID int64, req member.AddRequest) (member.Member, error) {
	if err := req.Validate(); err != nil {
		return member.Member{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[projectID]; !ok {
		return member.Member{}, project.ErrNotFound
	}

	uid, ok := r.s.emails[req.Email]
	if !ok {
		return member.Member{}, member.ErrUserNotFound
	}
	u := r.s.users[uid]

	if u.Role == user.RoleAdmin {
		return member.Member{}, member.ErrAdminNotAssignable
	}

	for _, m := range r.s.members {
		if m.ProjectID == projectID && m.UserID == uid {
			return member.Member{}, member.ErrAlreadyAssigned
		}
	}

	m := member.Member{
		ID:        r.s.nextID(),
		ProjectID: projectID,
		UserID:    uid,
		RoleType:  req.RoleType,
		Position:  cloneString(req.Position),
		DailyRate: cloneFloat(req.DailyRate),
		Notes:     cloneString(req.Notes),
		CreatedAt: r.s.timestamp(),
	}
	r.s.members[m.ID] = m

	m.Name = u.Name
	m.Email = u.Email
	return m, nil
}

func (r *MembersRepo) ListByProject(ctx context.Context, projectID int64) ([]member.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]member.Member, 0)
	for _, m := range r.s.members {
		if m.ProjectID != projectID {
			continue
		}
		// inner join: rows without a user are not listed
		if joined, ok := r.s.withUser(m); ok {
			out = append(out, joined)
		}
	}

	sortByCreated(out,
		func(m member.Member) time.Time { return m.CreatedAt },
		func(m member.Member) int64 { return m.ID },
		true,
	)
	return out, nil
}

func (r *MembersRepo) Update(ctx context.Context, projectID, id int64, req member.UpdateRequest) (member.Member, error) {
	if err := req.Validate(); err != nil {
		return member.Member{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.members[id]
	if !ok || m.ProjectID != projectID {
		return member.Member{}, member.ErrNotFound
	}

	req.Position = cloneString(req.Position)
	req.DailyRate = cloneFloat(req.DailyRate)
	req.Notes = cloneString(req.Notes)

	m = req.Apply(m)
	r.s.members[id] = m

	joined, _ := r.s.withUser(m)
	return joined, nil
}

func (r *MembersRepo) Remove(ctx context.Context, projectID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.members[id]
	if !ok || m.ProjectID != projectID {
		return member.ErrNotFound
	}

	delete(r.s.members, id)
	return nil
}

func (r *MembersRepo) IsMember(ctx context.Context, projectID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.members {
		if m.ProjectID == projectID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
