package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reelops/reelops-api/internal/domain/member"
	"github.com/reelops/reelops-api/internal/domain/project"
	"github.com/reelops/reelops-api/internal/domain/user"
	"github.com/reelops/reelops-api/internal/observability"
)

type MembersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewMembersRepo(pool *pgxpool.Pool, prom *observability.Prom) *MembersRepo {
	return &MembersRepo{pool: pool, prom: prom}
}

const memberColumns = `cc.id, cc.project_id, cc.user_id, cc.role_type, cc.position, cc.daily_rate, cc.notes, cc.created_at, u.name, u.email`

func scanMember(row pgx.Row) (member.Member, error) {
	var (
		m        member.Member
		roleType string
	)

	err := row.Scan(&m.ID, &m.ProjectID, &m.UserID, &roleType, &m.Position, &m.DailyRate, &m.Notes, &m.CreatedAt, &m.Name, &m.Email)
	m.RoleType = member.RoleType(roleType)
	return m, err
}

// Add assigns the user registered under req.Email to the project. The
// project row is share-locked for the duration so it cannot disappear
// mid-insert; the (project_id, user_id) unique constraint settles races
// between concurrent adds of the same person.
func (r *MembersRepo) Add(ctx context.Context, projectID int64, req member.AddRequest) (m member.Member, err error) {
	if err = req.Validate(); err != nil {
		return member.Member{}, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return member.Member{}, fmt.Errorf("begin add member: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var locked int64
	err = r.prom.ObserveDB("members.add.project_lock", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM projects WHERE id = $1 FOR SHARE`, projectID).Scan(&locked)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.Member{}, project.ErrNotFound
		}
		return member.Member{}, fmt.Errorf("lock project: %w", err)
	}

	var (
		userID   int64
		userRole string
		name     string
	)
	err = r.prom.ObserveDB("members.add.user_lookup", func() error {
		return tx.QueryRow(ctx, `SELECT id, role, name FROM users WHERE email = $1`, req.Email).Scan(&userID, &userRole, &name)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.Member{}, member.ErrUserNotFound
		}
		return member.Member{}, fmt.Errorf("look up user: %w", err)
	}

	if user.Role(userRole) == user.RoleAdmin {
		return member.Member{}, member.ErrAdminNotAssignable
	}

	var exists bool
	err = r.prom.ObserveDB("members.add.duplicate_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM cast_crew WHERE project_id = $1 AND user_id = $2
		)`, projectID, userID).Scan(&exists)
	})
	if err != nil {
		return member.Member{}, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		return member.Member{}, member.ErrAlreadyAssigned
	}

	var roleType string
	err = r.prom.ObserveDB("members.add.insert", func() error {
		return tx.QueryRow(ctx, `
			INSERT INTO cast_crew (project_id, user_id, role_type, position, daily_rate, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, project_id, user_id, role_type, position, daily_rate, notes, created_at`,
			projectID, userID, string(req.RoleType), req.Position, req.DailyRate, req.Notes,
		).Scan(&m.ID, &m.ProjectID, &m.UserID, &roleType, &m.Position, &m.DailyRate, &m.Notes, &m.CreatedAt)
	})
	if err != nil {
		if IsUniqueViolation(err, castCrewProjectUserKey) {
			return member.Member{}, member.ErrAlreadyAssigned
		}
		if isForeignKeyViolation(err) {
			return member.Member{}, project.ErrNotFound
		}
		return member.Member{}, fmt.Errorf("insert member: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		if IsUniqueViolation(err, castCrewProjectUserKey) {
			return member.Member{}, member.ErrAlreadyAssigned
		}
		return member.Member{}, fmt.Errorf("commit add member: %w", err)
	}

	m.RoleType = member.RoleType(roleType)
	m.Name = name
	m.Email = req.Email

	return m, nil
}

// ListByProject returns the project's members, first added first.
func (r *MembersRepo) ListByProject(ctx context.Context, projectID int64) ([]member.Member, error) {
	var rows pgx.Rows

	err := r.prom.ObserveDB("members.list_by_project", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `
			SELECT `+memberColumns+`
			FROM cast_crew cc
			INNER JOIN users u ON u.id = cc.user_id
			WHERE cc.project_id = $1
			ORDER BY cc.created_at ASC, cc.id ASC`,
			projectID,
		)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	out := make([]member.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// Update applies a coalesce update to a member of projectID.
func (r *MembersRepo) Update(ctx context.Context, projectID, id int64, req member.UpdateRequest) (m member.Member, err error) {
	if err = req.Validate(); err != nil {
		return member.Member{}, err
	}

	var roleType *string
	if req.RoleType != nil {
		s := string(*req.RoleType)
		roleType = &s
	}

	err = r.prom.ObserveDB("members.update", func() error {
		m, err = scanMember(r.pool.QueryRow(ctx, `
			WITH cc AS (
				UPDATE cast_crew SET
					role_type  = COALESCE($3, role_type),
					position   = COALESCE($4, position),
					daily_rate = COALESCE($5, daily_rate),
					notes      = COALESCE($6, notes)
				WHERE id = $1 AND project_id = $2
				RETURNING *
			)
			SELECT `+memberColumns+`
			FROM cc
			INNER JOIN users u ON u.id = cc.user_id`,
			id, projectID, roleType, req.Position, req.DailyRate, req.Notes,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.Member{}, member.ErrNotFound
		}
		return member.Member{}, fmt.Errorf("update member: %w", err)
	}
	return m, nil
}

func (r *MembersRepo) Remove(ctx context.Context, projectID, id int64) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("members.remove", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM cast_crew WHERE id = $1 AND project_id = $2`, id, projectID)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return member.ErrNotFound
	}
	return nil
}

func (r *MembersRepo) IsMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var ok bool

	err := r.prom.ObserveDB("members.is_member", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM cast_crew WHERE project_id = $1 AND user_id = $2
		)`, projectID, userID).Scan(&ok)
	})
	if err != nil {
		return false, fmt.Errorf("membership check: %w", err)
	}
	return ok, nil
}
