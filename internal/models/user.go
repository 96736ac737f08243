package models

import "time"

const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleStudent    = "student"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         *string   `db:"code" json:"code,omitempty"`
	Username     *string   `db:"username" json:"username,omitempty"`
	Password     *string   `db:"password" json:"-"`
	Role         string    `db:"role" json:"role"`
	GroupID      *int64    `db:"group_id" json:"group_id,omitempty"`
	GroupName    *string   `db:"group_name" json:"group_name,omitempty"`
	PointsHidden bool      `db:"points_hidden" json:"points_hidden"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Member is a student row paired with its recomputed point total, as
// enumerated for group operations. Enumeration order is the stable id
// order the allocation passes rely on.
type Member struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	TotalPoints int64  `db:"total_points" json:"total_points"`
}
