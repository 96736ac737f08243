package models

import (
	"time"
)

// SessionInfo describes a login session token held in redis, keyed by
// the user the code login resolved to.
type SessionInfo struct {
	Token           string    `json:"token"`
	UserID          int64     `json:"user_id"`
	Role            string    `json:"role"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
}
