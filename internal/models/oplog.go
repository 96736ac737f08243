package models

import "time"

// OperationLog is the denormalized audit row written after every
// mutating point operation. Best-effort: totals never depend on it.
type OperationLog struct {
	ID              int64     `db:"id" json:"id"`
	OperationType   string    `db:"operation_type" json:"operation_type"`
	TargetType      string    `db:"target_type" json:"target_type"`
	TargetID        int64     `db:"target_id" json:"target_id"`
	GroupID         *int64    `db:"group_id" json:"group_id,omitempty"`
	Points          int64     `db:"points" json:"points"`
	Percentage      int64     `db:"percentage" json:"percentage"`
	Reason          string    `db:"reason" json:"reason"`
	PerformedBy     *int64    `db:"performed_by" json:"performed_by,omitempty"`
	PerformedByName *string   `db:"performed_by_name" json:"performed_by_name,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
