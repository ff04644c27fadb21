package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	usersEmailKey          = "users_email_key"
	castCrewProjectUserKey = "cast_crew_project_user_key"
)

// IsUniqueViolation reports whether err is a 23505, optionally restricted
// to the given constraint names.
func IsUniqueViolation(err error, constraints ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}

	if len(constraints) == 0 {
		return true
	}

	for _, c := range constraints {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
