package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reelops/reelops-api/internal/domain/user"
	"github.com/reelops/reelops-api/internal/observability"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// Create inserts a user. The unique constraint on email decides races
// between concurrent registrations.
func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (u user.User, err error) {
	err = r.prom.ObserveDB("users.create", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash, role)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+userColumns,
			nu.Name, nu.Email, nu.PasswordHash, string(nu.Role),
		))
		return err
	})

	if err != nil {
		if IsUniqueViolation(err, usersEmailKey) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.User, err error) {
	err = r.prom.ObserveDB("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`,
			email,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (u user.User, err error) {
	err = r.prom.ObserveDB("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// Search matches name or email case-insensitively, skipping admins since
// they cannot be assigned to a project.
func (r *UsersRepo) Search(ctx context.Context, query string, limit int) ([]user.Summary, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	var rows pgx.Rows
	err := r.prom.ObserveDB("users.search", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT id, name, email
			 FROM users
			 WHERE role <> 'admin'
			   AND (name ILIKE $1 OR email ILIKE $1)
			 ORDER BY name ASC, id ASC
			 LIMIT $2`,
			pattern, limit,
		)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	out := make([]user.Summary, 0)
	for rows.Next() {
		var s user.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
