package project

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPlanning       Status = "planning"
	StatusPreProduction  Status = "pre-production"
	StatusShooting       Status = "shooting"
	StatusPostProduction Status = "post-production"
	StatusCompleted      Status = "completed"
)

var statuses = []Status{StatusPlanning, StatusPreProduction, StatusShooting, StatusPostProduction, StatusCompleted}

func (s Status) Valid() bool {
	for _, v := range statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Project struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	Status        Status    `json:"status"`
	StartDate     *Date     `json:"start_date"`
	EndDate       *Date     `json:"end_date"`
	BudgetTotal   *float64  `json:"budget_total"`
	CreatedByID   *int64    `json:"created_by_id"`
	CreatedByName *string   `json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	ErrNotFound = errors.New("project not found")
	ErrInvalid  = errors.New("invalid project")
)

type CreateRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=5000"`
	Status      Status   `json:"status" binding:"required,oneof=planning pre-production shooting post-production completed"`
	StartDate   *Date    `json:"start_date"`
	EndDate     *Date    `json:"end_date"`
	BudgetTotal *float64 `json:"budget_total" binding:"omitempty,gte=0"`
}

// UpdateRequest carries a partial update: nil fields keep their stored value.
type UpdateRequest struct {
	Title       *string  `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=5000"`
	Status      *Status  `json:"status" binding:"omitempty,oneof=planning pre-production shooting post-production completed"`
	StartDate   *Date    `json:"start_date"`
	EndDate     *Date    `json:"end_date"`
	BudgetTotal *float64 `json:"budget_total" binding:"omitempty,gte=0"`
}

func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: status must be one of %s", ErrInvalid, statusList())
	}
	if r.BudgetTotal != nil && *r.BudgetTotal < 0 {
		return fmt.Errorf("%w: budget_total must be non-negative", ErrInvalid)
	}
	return nil
}

func (r UpdateRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalid)
	}
	if r.Status != nil && !r.Status.Valid() {
		return fmt.Errorf("%w: status must be one of %s", ErrInvalid, statusList())
	}
	if r.BudgetTotal != nil && *r.BudgetTotal < 0 {
		return fmt.Errorf("%w: budget_total must be non-negative", ErrInvalid)
	}
	return nil
}

// Apply returns p with every supplied field of r overwritten.
func (r UpdateRequest) Apply(p Project) Project {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	if r.StartDate != nil {
		p.StartDate = r.StartDate
	}
	if r.EndDate != nil {
		p.EndDate = r.EndDate
	}
	if r.BudgetTotal != nil {
		p.BudgetTotal = r.BudgetTotal
	}
	return p
}

func statusList() string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
