package models

import "time"

// Adjustment is a signed point delta on one student. Rows are append-only
// and contribute permanently to the student's total.
type Adjustment struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  int64     `db:"student_id" json:"student_id"`
	Points     int64     `db:"points" json:"points"`
	Reason     string    `db:"reason" json:"reason"`
	AdjustedBy *int64    `db:"adjusted_by" json:"adjusted_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// GroupAdjustment is a signed delta on a group's direct bucket. The
// direct bucket is an independent additive ledger, never derived from
// member totals. IsPercentage marks deltas that came from a percentage
// request, ApplyToMembers marks operations that also wrote per-member
// rows.
type GroupAdjustment struct {
	ID             int64     `db:"id" json:"id"`
	GroupID        int64     `db:"group_id" json:"group_id"`
	Points         int64     `db:"points" json:"points"`
	Percentage     int64     `db:"percentage" json:"percentage"`
	IsPercentage   bool      `db:"is_percentage" json:"is_percentage"`
	ApplyToMembers bool      `db:"apply_to_members" json:"apply_to_members"`
	Reason         string    `db:"reason" json:"reason"`
	AdjustedBy     *int64    `db:"adjusted_by" json:"adjusted_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
