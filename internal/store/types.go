package store

import "time"

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// GroupBreakdown is the aggregation view of one group: the member-derived
// sum and the direct bucket, re-scanned from ledger rows on every call.
type GroupBreakdown struct {
	MembersPoints int64 `db:"members_points" json:"members_points"`
	DirectPoints  int64 `db:"direct_points" json:"direct_points"`
	TotalPoints   int64 `db:"total_points" json:"total_points"`
}

// StudentSummary is a student list row with the recomputed point total.
type StudentSummary struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Code         *string `db:"code" json:"code,omitempty"`
	GroupID      *int64  `db:"group_id" json:"group_id,omitempty"`
	GroupName    *string `db:"group_name" json:"group_name,omitempty"`
	PointsHidden bool    `db:"points_hidden" json:"points_hidden"`
	TotalPoints  int64   `db:"total_points" json:"total_points"`
}

// WeeklyReportRow is one request line of the weekly activity report.
type WeeklyReportRow struct {
	StudentName string    `db:"student_name" json:"student_name"`
	GroupName   *string   `db:"group_name" json:"group_name,omitempty"`
	Committee   string    `db:"committee" json:"committee"`
	Points      int64     `db:"points" json:"points"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Overview holds the admin dashboard counters.
type Overview struct {
	TotalStudents    int64 `db:"total_students" json:"totalStudents"`
	TotalGroups      int64 `db:"total_groups" json:"totalGroups"`
	TotalRequests    int64 `db:"total_requests" json:"totalRequests"`
	PendingRequests  int64 `db:"pending_requests" json:"pendingRequests"`
	ApprovedRequests int64 `db:"approved_requests" json:"approvedRequests"`
	RejectedRequests int64 `db:"rejected_requests" json:"rejectedRequests"`
}
