package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/bensin/internal/models"
)

// LedgerStore is the storage surface of the points ledger. All totals are
// recomputed from ledger rows on every read; no method caches. Mutations
// are single parameterized statements, the orchestration of multi-row
// operations lives in the service layer.
type LedgerStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateGroup(name string) (int64, error)
	GetGroup(id int64) (*models.Group, error)
	RenameGroup(id int64, name string) error
	DeleteGroup(id int64) error
	ListGroupSummaries() ([]models.GroupSummary, error)

	CreateUser(user *models.User) (int64, error)
	GetUser(id int64) (*models.User, error)
	GetUserByCode(code string) (*models.User, error)
	GetUserByCredentials(username, password string) (*models.User, error)
	ListStudents() ([]StudentSummary, error)
	ListUsersByRole(role string) ([]models.User, error)
	UpdateStudent(id int64, name string, groupID *int64) error
	DeleteUser(id int64, role string) error
	SetPointsHidden(id int64, hidden bool) error

	StudentTotal(studentID int64) (int64, error)
	GroupDirectTotal(groupID int64) (int64, error)
	GroupBreakdown(groupID int64) (*GroupBreakdown, error)
	ListMembers(groupID int64) ([]models.Member, error)

	CreateAdjustment(adj *models.Adjustment) error
	CreateGroupAdjustment(adj *models.GroupAdjustment) error
	AppendOperationLog(entry *models.OperationLog) error
	ListOperationLog(limit int) ([]models.OperationLog, error)

	CreateRequest(req *models.Request) (int64, error)
	GetRequest(id int64) (*models.Request, error)
	ListRequests(status string) ([]models.Request, error)
	ListStudentRequests(studentID int64) ([]models.Request, error)
	CountWeekRequests(studentID, week int64) (int64, error)
	ReviewRequest(id int64, status string, reviewerID int64, rejectionReason *string) (bool, error)

	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	ListSettings() (map[string]string, error)

	CreateNotification(userID int64, title, message string) error
	ListNotifications(userID int64, limit int) ([]models.Notification, error)
	MarkNotificationsRead(userID int64) error
	UnreadNotificationCount(userID int64) (int64, error)

	WeeklyReport(week int64) ([]WeeklyReportRow, error)
	OverviewStats() (*Overview, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) GetGroup(id int64) (*models.Group, error) {
	var group models.Group
	query := s.Converter(`
		SELECT id, name, created_at
		FROM groups
		WHERE id = ?
	`)

	err := s.DB.Get(&group, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

func (s *BaseStore) RenameGroup(id int64, name string) error {
	query := s.Converter(`UPDATE groups SET name = ? WHERE id = ?`)
	if _, err := s.DB.Exec(query, name, id); err != nil {
		return fmt.Errorf("failed to rename group: %w", err)
	}
	return nil
}

// DeleteGroup unassigns members first so student totals survive the
// group. Two statements, no transaction.
func (s *BaseStore) DeleteGroup(id int64) error {
	unassign := s.Converter(`UPDATE users SET group_id = NULL WHERE group_id = ?`)
	if _, err := s.DB.Exec(unassign, id); err != nil {
		return fmt.Errorf("failed to unassign group members: %w", err)
	}
	query := s.Converter(`DELETE FROM groups WHERE id = ?`)
	if _, err := s.DB.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

func (s *BaseStore) ListGroupSummaries() ([]models.GroupSummary, error) {
	var groups []models.GroupSummary
	err := s.DB.Select(&groups, `
		SELECT
			g.id,
			g.name,
			g.created_at,
			COUNT(DISTINCT u.id) AS student_count
		FROM groups g
		LEFT JOIN users u ON g.id = u.group_id AND u.role = 'student'
		GROUP BY g.id, g.name, g.created_at
		ORDER BY g.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	for i := range groups {
		breakdown, err := s.GroupBreakdown(groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].MembersPoints = breakdown.MembersPoints
		groups[i].DirectPoints = breakdown.DirectPoints
		groups[i].TotalPoints = breakdown.TotalPoints
	}

	return groups, nil
}

func (s *BaseStore) GetUser(id int64) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT u.id, u.name, u.code, u.username, u.password, u.role,
			u.group_id, g.name AS group_name, u.points_hidden, u.created_at
		FROM users u
		LEFT JOIN groups g ON u.group_id = g.id
		WHERE u.id = ?
	`)

	err := s.DB.Get(&user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) GetUserByCode(code string) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT u.id, u.name, u.code, u.username, u.password, u.role,
			u.group_id, g.name AS group_name, u.points_hidden, u.created_at
		FROM users u
		LEFT JOIN groups g ON u.group_id = g.id
		WHERE u.code = ?
	`)

	err := s.DB.Get(&user, query, code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by code: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) GetUserByCredentials(username, password string) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT id, name, code, username, password, role, group_id, points_hidden, created_at
		FROM users
		WHERE username = ? AND password = ? AND role = 'admin'
	`)

	err := s.DB.Get(&user, query, username, password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by credentials: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) ListStudents() ([]StudentSummary, error) {
	var students []StudentSummary
	err := s.DB.Select(&students, `
		SELECT
			u.id,
			u.name,
			u.code,
			u.group_id,
			g.name AS group_name,
			u.points_hidden,
			(COALESCE((SELECT SUM(points) FROM requests WHERE student_id = u.id AND status = 'approved'), 0) +
			 COALESCE((SELECT SUM(points) FROM points_adjustments WHERE student_id = u.id), 0)) AS total_points
		FROM users u
		LEFT JOIN groups g ON u.group_id = g.id
		WHERE u.role = 'student'
		ORDER BY u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *BaseStore) ListUsersByRole(role string) ([]models.User, error) {
	var users []models.User
	query := s.Converter(`
		SELECT id, name, code, username, password, role, group_id, points_hidden, created_at
		FROM users
		WHERE role = ?
		ORDER BY id
	`)
	err := s.DB.Select(&users, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *BaseStore) UpdateStudent(id int64, name string, groupID *int64) error {
	query := s.Converter(`UPDATE users SET name = ?, group_id = ? WHERE id = ? AND role = 'student'`)
	if _, err := s.DB.Exec(query, name, groupID, id); err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// DeleteUser removes a user and their dependent rows. Reviewed requests
// of other students keep their status and lose only the reviewer link.
func (s *BaseStore) DeleteUser(id int64, role string) error {
	cleanups := []struct {
		query string
		args  []interface{}
	}{
		{`UPDATE requests SET reviewed_by = NULL WHERE reviewed_by = ?`, []interface{}{id}},
		{`DELETE FROM notifications WHERE user_id = ?`, []interface{}{id}},
		{`DELETE FROM requests WHERE student_id = ?`, []interface{}{id}},
		{`DELETE FROM points_adjustments WHERE student_id = ?`, []interface{}{id}},
		{`DELETE FROM users WHERE id = ? AND role = ?`, []interface{}{id, role}},
	}
	for _, c := range cleanups {
		if _, err := s.DB.Exec(s.Converter(c.query), c.args...); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
	}
	return nil
}

func (s *BaseStore) SetPointsHidden(id int64, hidden bool) error {
	query := s.Converter(`UPDATE users SET points_hidden = ? WHERE id = ? AND role = 'student'`)
	if _, err := s.DB.Exec(query, hidden, id); err != nil {
		return fmt.Errorf("failed to set points visibility: %w", err)
	}
	return nil
}

// StudentTotal re-sums the two individual-level sources: approved
// requests and manual adjustments. Never cached.
func (s *BaseStore) StudentTotal(studentID int64) (int64, error) {
	var total int64
	query := s.Converter(`
		SELECT
			COALESCE((SELECT SUM(points) FROM requests WHERE student_id = ? AND status = 'approved'), 0) +
			COALESCE((SELECT SUM(points) FROM points_adjustments WHERE student_id = ?), 0) AS total
	`)

	if err := s.DB.Get(&total, query, studentID, studentID); err != nil {
		return 0, fmt.Errorf("failed to compute student total: %w", err)
	}
	return total, nil
}

func (s *BaseStore) GroupDirectTotal(groupID int64) (int64, error) {
	var total int64
	query := s.Converter(`
		SELECT COALESCE(SUM(points), 0) AS total
		FROM group_points_adjustments
		WHERE group_id = ?
	`)

	if err := s.DB.Get(&total, query, groupID); err != nil {
		return 0, fmt.Errorf("failed to compute group direct total: %w", err)
	}
	return total, nil
}

// GroupBreakdown reads the three additive sources with independent
// statements: approved member requests, member adjustments, and the
// direct bucket. Concurrent writers may be observed between statements.
func (s *BaseStore) GroupBreakdown(groupID int64) (*GroupBreakdown, error) {
	var requestsSum int64
	query := s.Converter(`
		SELECT COALESCE(SUM(r.points), 0) AS total
		FROM requests r
		JOIN users u ON r.student_id = u.id
		WHERE u.group_id = ? AND r.status = 'approved'
	`)
	if err := s.DB.Get(&requestsSum, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to sum member requests: %w", err)
	}

	var adjustmentsSum int64
	query = s.Converter(`
		SELECT COALESCE(SUM(pa.points), 0) AS total
		FROM points_adjustments pa
		JOIN users u ON pa.student_id = u.id
		WHERE u.group_id = ?
	`)
	if err := s.DB.Get(&adjustmentsSum, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to sum member adjustments: %w", err)
	}

	direct, err := s.GroupDirectTotal(groupID)
	if err != nil {
		return nil, err
	}

	members := requestsSum + adjustmentsSum
	return &GroupBreakdown{
		MembersPoints: members,
		DirectPoints:  direct,
		TotalPoints:   members + direct,
	}, nil
}

// ListMembers enumerates a group's students with their current totals in
// stable id order, the order the allocation passes walk.
func (s *BaseStore) ListMembers(groupID int64) ([]models.Member, error) {
	var members []models.Member
	query := s.Converter(`
		SELECT
			u.id,
			u.name,
			(COALESCE((SELECT SUM(points) FROM requests WHERE student_id = u.id AND status = 'approved'), 0) +
			 COALESCE((SELECT SUM(points) FROM points_adjustments WHERE student_id = u.id), 0)) AS total_points
		FROM users u
		WHERE u.group_id = ? AND u.role = 'student'
		ORDER BY u.id
	`)

	err := s.DB.Select(&members, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	return members, nil
}

func (s *BaseStore) CreateAdjustment(adj *models.Adjustment) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO points_adjustments (student_id, points, reason, adjusted_by)
		VALUES (:student_id, :points, :reason, :adjusted_by)
	`, adj)
	if err != nil {
		return fmt.Errorf("failed to create adjustment: %w", err)
	}
	return nil
}

func (s *BaseStore) CreateGroupAdjustment(adj *models.GroupAdjustment) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO group_points_adjustments (group_id, points, percentage, is_percentage, apply_to_members, reason, adjusted_by)
		VALUES (:group_id, :points, :percentage, :is_percentage, :apply_to_members, :reason, :adjusted_by)
	`, adj)
	if err != nil {
		return fmt.Errorf("failed to create group adjustment: %w", err)
	}
	return nil
}

func (s *BaseStore) AppendOperationLog(entry *models.OperationLog) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO points_log (operation_type, target_type, target_id, group_id, points, percentage, reason, performed_by)
		VALUES (:operation_type, :target_type, :target_id, :group_id, :points, :percentage, :reason, :performed_by)
	`, entry)
	if err != nil {
		return fmt.Errorf("failed to append operation log: %w", err)
	}
	return nil
}

func (s *BaseStore) ListOperationLog(limit int) ([]models.OperationLog, error) {
	var entries []models.OperationLog
	query := s.Converter(`
		SELECT
			pl.id, pl.operation_type, pl.target_type, pl.target_id, pl.group_id,
			pl.points, pl.percentage, pl.reason, pl.performed_by,
			u.name AS performed_by_name,
			pl.created_at
		FROM points_log pl
		LEFT JOIN users u ON pl.performed_by = u.id
		ORDER BY pl.id DESC
		LIMIT ?
	`)

	err := s.DB.Select(&entries, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operation log: %w", err)
	}
	return entries, nil
}

func (s *BaseStore) GetRequest(id int64) (*models.Request, error) {
	var req models.Request
	query := s.Converter(`
		SELECT id, student_id, committee, description, points, status,
			rejection_reason, reviewed_by, week_number, created_at, reviewed_at
		FROM requests
		WHERE id = ?
	`)

	err := s.DB.Get(&req, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &req, nil
}

func (s *BaseStore) ListRequests(status string) ([]models.Request, error) {
	query := `
		SELECT r.id, r.student_id, r.committee, r.description, r.points, r.status,
			r.rejection_reason, r.reviewed_by, r.week_number, r.created_at, r.reviewed_at,
			u.name AS student_name,
			g.name AS group_name,
			rev.name AS reviewer_name
		FROM requests r
		JOIN users u ON r.student_id = u.id
		LEFT JOIN groups g ON u.group_id = g.id
		LEFT JOIN users rev ON r.reviewed_by = rev.id
	`
	args := []interface{}{}
	if status != "" {
		query += " WHERE r.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"

	var requests []models.Request
	err := s.DB.Select(&requests, s.Converter(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

func (s *BaseStore) ListStudentRequests(studentID int64) ([]models.Request, error) {
	var requests []models.Request
	query := s.Converter(`
		SELECT r.id, r.student_id, r.committee, r.description, r.points, r.status,
			r.rejection_reason, r.reviewed_by, r.week_number, r.created_at, r.reviewed_at,
			rev.name AS reviewer_name
		FROM requests r
		LEFT JOIN users rev ON r.reviewed_by = rev.id
		WHERE r.student_id = ?
		ORDER BY r.created_at DESC, r.id DESC
	`)

	err := s.DB.Select(&requests, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student requests: %w", err)
	}
	return requests, nil
}

func (s *BaseStore) CountWeekRequests(studentID, week int64) (int64, error) {
	var count int64
	query := s.Converter(`
		SELECT COUNT(*) FROM requests
		WHERE student_id = ? AND week_number = ?
	`)

	if err := s.DB.Get(&count, query, studentID, week); err != nil {
		return 0, fmt.Errorf("failed to count weekly requests: %w", err)
	}
	return count, nil
}

// ReviewRequest moves a pending request to approved or rejected. The
// transition is terminal: a request that is no longer pending is left
// untouched and reported via the bool.
func (s *BaseStore) ReviewRequest(id int64, status string, reviewerID int64, rejectionReason *string) (bool, error) {
	query := s.Converter(`
		UPDATE requests
		SET status = ?, reviewed_by = ?, reviewed_at = CURRENT_TIMESTAMP, rejection_reason = ?
		WHERE id = ? AND status = 'pending'
	`)

	res, err := s.DB.Exec(query, status, reviewerID, rejectionReason, id)
	if err != nil {
		return false, fmt.Errorf("failed to review request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to review request: %w", err)
	}
	return affected == 1, nil
}

func (s *BaseStore) GetSetting(key string) (string, error) {
	var value sql.NullString
	query := s.Converter(`SELECT value FROM app_settings WHERE key = ?`)

	err := s.DB.Get(&value, query, key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value.String, nil
}

func (s *BaseStore) SetSetting(key, value string) error {
	query := s.Converter(`
		INSERT INTO app_settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)

	if _, err := s.DB.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

func (s *BaseStore) ListSettings() (map[string]string, error) {
	var rows []struct {
		Key   string         `db:"key"`
		Value sql.NullString `db:"value"`
	}
	err := s.DB.Select(&rows, `SELECT key, value FROM app_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value.String
	}
	return settings, nil
}

func (s *BaseStore) CreateNotification(userID int64, title, message string) error {
	query := s.Converter(`
		INSERT INTO notifications (user_id, title, message)
		VALUES (?, ?, ?)
	`)

	if _, err := s.DB.Exec(query, userID, title, message); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *BaseStore) ListNotifications(userID int64, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.Converter(`
		SELECT id, user_id, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`)

	err := s.DB.Select(&notifications, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *BaseStore) MarkNotificationsRead(userID int64) error {
	query := s.Converter(`UPDATE notifications SET is_read = ? WHERE user_id = ?`)
	if _, err := s.DB.Exec(query, true, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *BaseStore) UnreadNotificationCount(userID int64) (int64, error) {
	var count int64
	query := s.Converter(`
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?
	`)

	if err := s.DB.Get(&count, query, userID, false); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *BaseStore) WeeklyReport(week int64) ([]WeeklyReportRow, error) {
	var rows []WeeklyReportRow
	query := s.Converter(`
		SELECT
			u.name AS student_name,
			g.name AS group_name,
			r.committee,
			r.points,
			r.status,
			r.created_at
		FROM requests r
		JOIN users u ON r.student_id = u.id
		LEFT JOIN groups g ON u.group_id = g.id
		WHERE r.week_number = ?
		ORDER BY r.created_at DESC, r.id DESC
	`)

	err := s.DB.Select(&rows, query, week)
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly report: %w", err)
	}
	return rows, nil
}

func (s *BaseStore) OverviewStats() (*Overview, error) {
	var overview Overview
	err := s.DB.Get(&overview, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'student') AS total_students,
			(SELECT COUNT(*) FROM groups) AS total_groups,
			(SELECT COUNT(*) FROM requests) AS total_requests,
			(SELECT COUNT(*) FROM requests WHERE status = 'pending') AS pending_requests,
			(SELECT COUNT(*) FROM requests WHERE status = 'approved') AS approved_requests,
			(SELECT COUNT(*) FROM requests WHERE status = 'rejected') AS rejected_requests
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get overview stats: %w", err)
	}
	return &overview, nil
}
