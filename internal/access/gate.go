// Package access decides whether an identity may act on a project.
//
// Every scoped handler funnels through Gate.Authorize so that role checks
// live in one place instead of being repeated per endpoint.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelops/reelops-api/internal/domain/user"
)

var ErrForbidden = errors.New("forbidden")

// Identity is the (userId, role) pair recovered from a verified token.
type Identity struct {
	UserID int64
	Role   user.Role
}

type Action int

const (
	Read Action = iota
	Write
)

func (a Action) String() string {
	if a == Write {
		return "write"
	}
	return "read"
}

// ProjectOwners resolves a project's creator. Implementations return
// project.ErrNotFound when the project does not exist and a nil creator
// when the creating user has since been removed.
type ProjectOwners interface {
	CreatorOf(ctx context.Context, projectID int64) (*int64, error)
}

// Memberships reports whether userID holds an assignment on projectID.
type Memberships interface {
	IsMember(ctx context.Context, projectID, userID int64) (bool, error)
}

// DecisionObserver is notified of every decision; used for metrics.
type DecisionObserver interface {
	ObserveAccessDecision(action, role, result string)
}

type Gate struct {
	projects ProjectOwners
	members  Memberships
	observer DecisionObserver
}

func NewGate(projects ProjectOwners, members Memberships, observer DecisionObserver) *Gate {
	return &Gate{projects: projects, members: members, observer: observer}
}

// Authorize returns nil when id may perform action on projectID.
// It returns project.ErrNotFound for a missing project and ErrForbidden
// when the identity is out of scope. It has no side effects.
func (g *Gate) Authorize(ctx context.Context, id Identity, projectID int64, action Action) (err error) {
	defer func() {
		if g.observer != nil {
			g.observer.ObserveAccessDecision(action.String(), string(id.Role), decisionResult(err))
		}
	}()

	creator, err := g.projects.CreatorOf(ctx, projectID)
	if err != nil {
		return err
	}

	switch id.Role {
	case user.RoleAdmin:
		return nil

	case user.RoleProducer:
		if creator != nil && *creator == id.UserID {
			return nil
		}
		return fmt.Errorf("%w: producer does not own project %d", ErrForbidden, projectID)

	case user.RoleCrew:
		if action == Write {
			return fmt.Errorf("%w: crew cannot modify project %d", ErrForbidden, projectID)
		}

		ok, err := g.members.IsMember(ctx, projectID, id.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: not assigned to project %d", ErrForbidden, projectID)
		}
		return nil
	}

	return fmt.Errorf("%w: unknown role %q", ErrForbidden, id.Role)
}

func decisionResult(err error) string {
	switch {
	case err == nil:
		return "allowed"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
