package member

import (
	"errors"
	"fmt"
	"time"
)

type RoleType string

const (
	RoleTypeCast RoleType = "cast"
	RoleTypeCrew RoleType = "crew"
)

func (r RoleType) Valid() bool {
	return r == RoleTypeCast || r == RoleTypeCrew
}

// Member is one cast or crew assignment of a user to a project.
type Member struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	RoleType  RoleType  `json:"role_type"`
	Position  *string   `json:"position"`
	DailyRate *float64  `json:"daily_rate"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`

	// joined from users
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

var (
	ErrNotFound           = errors.New("cast/crew member not found")
	ErrAlreadyAssigned    = errors.New("user is already added to the project")
	ErrUserNotFound       = errors.New("user with this email not found, they must register first")
	ErrAdminNotAssignable = errors.New("cannot add admin user as cast/crew")
	ErrInvalid            = errors.New("invalid cast/crew member")
)

type AddRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	RoleType  RoleType `json:"role_type" binding:"required,oneof=cast crew"`
	Position  *string  `json:"position" binding:"omitempty,max=120"`
	DailyRate *float64 `json:"daily_rate" binding:"omitempty,gte=0"`
	Notes     *string  `json:"notes" binding:"omitempty,max=2000"`
}

// UpdateRequest carries a partial update: nil fields keep their stored value.
type UpdateRequest struct {
	RoleType  *RoleType `json:"role_type" binding:"omitempty,oneof=cast crew"`
	Position  *string   `json:"position" binding:"omitempty,max=120"`
	DailyRate *float64  `json:"daily_rate" binding:"omitempty,gte=0"`
	Notes     *string   `json:"notes" binding:"omitempty,max=2000"`
}

func (r AddRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if !r.RoleType.Valid() {
		return fmt.Errorf("%w: role_type must be one of: cast, crew", ErrInvalid)
	}
	if r.DailyRate != nil && *r.DailyRate < 0 {
		return fmt.Errorf("%w: daily_rate must be a non-negative number", ErrInvalid)
	}
	return nil
}

func (r UpdateRequest) Validate() error {
	if r.RoleType != nil && !r.RoleType.Valid() {
		return fmt.Errorf("%w: role_type must be one of: cast, crew", ErrInvalid)
	}
	if r.DailyRate != nil && *r.DailyRate < 0 {
		return fmt.Errorf("%w: daily_rate must be a non-negative number", ErrInvalid)
	}
	return nil
}

// Apply returns m with every supplied field of r overwritten.
func (r UpdateRequest) Apply(m Member) Member {
	if r.RoleType != nil {
		m.RoleType = *r.RoleType
	}
	if r.Position != nil {
		m.Position = r.Position
	}
	if r.DailyRate != nil {
		m.DailyRate = r.DailyRate
	}
	if r.Notes != nil {
		m.Notes = r.Notes
	}
	return m
}
