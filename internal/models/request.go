package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

type Request struct {
	ID              int64      `db:"id" json:"id"`
	StudentID       int64      `db:"student_id" json:"student_id" validate:"required"`
	Committee       string     `db:"committee" json:"committee" validate:"required,oneof=scientific social cultural media sports followup general"`
	Description     string     `db:"description" json:"description" validate:"required"`
	Points          int64      `db:"points" json:"points" validate:"required,min=1,max=5"`
	Status          string     `db:"status" json:"status"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ReviewedBy      *int64     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	WeekNumber      int64      `db:"week_number" json:"week_number"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`

	StudentName  *string `db:"student_name" json:"student_name,omitempty"`
	GroupName    *string `db:"group_name" json:"group_name,omitempty"`
	ReviewerName *string `db:"reviewer_name" json:"reviewer_name,omitempty"`
}

func (r *Request) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
