package memory

import (
	"context"
	"time"

	"github.com/reelops/reelops-api/internal/domain/project"
)

type ProjectsRepo struct {
	s *Store
}

func (r *ProjectsRepo) List(ctx context.Context) ([]project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]project.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		out = append(out, r.s.withCreator(p))
	}

	sortByCreated(out,
		func(p project.Project) time.Time { return p.CreatedAt },
		func(p project.Project) int64 { return p.ID },
		false,
	)
	return out, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id int64) (project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return r.s.withCreator(p), nil
}

func (r *ProjectsRepo) Create(ctx context.Context, req project.CreateRequest, creatorID int64) (project.Project, error) {
	if err := req.Validate(); err != nil {
		return project.Project{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	creator := creatorID
	p := project.Project{
		ID:          r.s.nextID(),
		Title:       req.Title,
		Description: cloneString(req.Description),
		Status:      req.Status,
		StartDate:   cloneDate(req.StartDate),
		EndDate:     cloneDate(req.EndDate),
		BudgetTotal: cloneFloat(req.BudgetTotal),
		CreatedByID: &creator,
		CreatedAt:   r.s.timestamp(),
	}

	r.s.projects[p.ID] = p
	return r.s.withCreator(p), nil
}

func (r *ProjectsRepo) Update(ctx context.Context, id int64, req project.UpdateRequest) (project.Project, error) {
	if err := req.Validate(); err != nil {
		return project.Project{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}

	req.Description = cloneString(req.Description)
	req.StartDate = cloneDate(req.StartDate)
	req.EndDate = cloneDate(req.EndDate)
	req.BudgetTotal = cloneFloat(req.BudgetTotal)

	p = req.Apply(p)
	r.s.projects[id] = p

	return r.s.withCreator(p), nil
}

// Delete removes the project together with its cast/crew assignments.
func (r *ProjectsRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return project.ErrNotFound
	}

	delete(r.s.projects, id)
	for mid, m := range r.s.members {
		if m.ProjectID == id {
			delete(r.s.members, mid)
		}
	}
	return nil
}

func (r *ProjectsRepo) CreatorOf(ctx context.Context, id int64) (*int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, project.ErrNotFound
	}
	if p.CreatedByID == nil {
		return nil, nil
	}
	creator := *p.CreatedByID
	return &creator, nil
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneDate(v *project.Date) *project.Date {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
