package models

import "time"

type Group struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GroupSummary is the list view of a group: member count plus the two
// point buckets. MembersPoints is always re-summed from member rows and
// DirectPoints from the group's own adjustment ledger; the two are
// disjoint sources and must never be conflated.
type GroupSummary struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	StudentCount  int64     `db:"student_count" json:"student_count"`
	MembersPoints int64     `db:"members_points" json:"members_points"`
	DirectPoints  int64     `db:"direct_points" json:"direct_points"`
	TotalPoints   int64     `db:"total_points" json:"total_points"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
