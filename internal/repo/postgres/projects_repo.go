package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reelops/reelops-api/internal/domain/project"
	"github.com/reelops/reelops-api/internal/observability"
)

type ProjectsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{pool: pool, prom: prom}
}

// projectSelect reads from a relation aliased p, joined to the creator.
// The join is a LEFT JOIN so projects whose creator is gone still list.
const projectSelect = `
	SELECT p.id, p.title, p.description, p.status, p.start_date, p.end_date,
	       p.budget_total, p.created_by, u.name, p.created_at
`

func scanProject(row pgx.Row) (project.Project, error) {
	var (
		p          project.Project
		status     string
		start, end *time.Time
	)

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&status,
		&start,
		&end,
		&p.BudgetTotal,
		&p.CreatedByID,
		&p.CreatedByName,
		&p.CreatedAt,
	)
	if err != nil {
		return project.Project{}, err
	}

	p.Status = project.Status(status)
	p.StartDate = toDate(start)
	p.EndDate = toDate(end)

	return p, nil
}

func (r *ProjectsRepo) List(ctx context.Context) ([]project.Project, error) {
	var rows pgx.Rows

	err := r.prom.ObserveDB("projects.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, projectSelect+`
			FROM projects p
			LEFT JOIN users u ON u.id = p.created_by
			ORDER BY p.created_at DESC, p.id DESC`)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id int64) (p project.Project, err error) {
	err = r.prom.ObserveDB("projects.get_by_id", func() error {
		p, err = scanProject(r.pool.QueryRow(ctx, projectSelect+`
			FROM projects p
			LEFT JOIN users u ON u.id = p.created_by
			WHERE p.id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *ProjectsRepo) Create(ctx context.Context, req project.CreateRequest, creatorID int64) (p project.Project, err error) {
	if err = req.Validate(); err != nil {
		return project.Project{}, err
	}

	err = r.prom.ObserveDB("projects.create", func() error {
		p, err = scanProject(r.pool.QueryRow(ctx, `
			WITH p AS (
				INSERT INTO projects (title, description, status, start_date, end_date, budget_total, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING *
			)`+projectSelect+`
			FROM p
			LEFT JOIN users u ON u.id = p.created_by`,
			req.Title,
			req.Description,
			string(req.Status),
			fromDate(req.StartDate),
			fromDate(req.EndDate),
			req.BudgetTotal,
			creatorID,
		))
		return err
	})

	if err != nil {
		return project.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// Update applies a coalesce update: NULL parameters keep the stored value.
func (r *ProjectsRepo) Update(ctx context.Context, id int64, req project.UpdateRequest) (p project.Project, err error) {
	if err = req.Validate(); err != nil {
		return project.Project{}, err
	}

	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}

	err = r.prom.ObserveDB("projects.update", func() error {
		p, err = scanProject(r.pool.QueryRow(ctx, `
			WITH p AS (
				UPDATE projects SET
					title        = COALESCE($2, title),
					description  = COALESCE($3, description),
					status       = COALESCE($4, status),
					start_date   = COALESCE($5, start_date),
					end_date     = COALESCE($6, end_date),
					budget_total = COALESCE($7, budget_total)
				WHERE id = $1
				RETURNING *
			)`+projectSelect+`
			FROM p
			LEFT JOIN users u ON u.id = p.created_by`,
			id,
			req.Title,
			req.Description,
			status,
			fromDate(req.StartDate),
			fromDate(req.EndDate),
			req.BudgetTotal,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// Delete removes the project; its cast/crew rows go with it through the
// ON DELETE CASCADE foreign key.
func (r *ProjectsRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("projects.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return project.ErrNotFound
	}

	return nil
}

func (r *ProjectsRepo) CreatorOf(ctx context.Context, id int64) (creator *int64, err error) {
	err = r.prom.ObserveDB("projects.creator_of", func() error {
		return r.pool.QueryRow(ctx, `SELECT created_by FROM projects WHERE id = $1`, id).Scan(&creator)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, project.ErrNotFound
		}
		return nil, fmt.Errorf("project creator: %w", err)
	}
	return creator, nil
}

func toDate(t *time.Time) *project.Date {
	if t == nil {
		return nil
	}
	d := project.NewDate(*t)
	return &d
}

func fromDate(d *project.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
