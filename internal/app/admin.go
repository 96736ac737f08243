package app

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/bensin/internal/models"
	"github.com/shrimpsizemoose/bensin/internal/store"
)

// generateLoginCode picks an unused 4-digit code. With a few hundred
// users the collision retry loop terminates quickly; the attempt cap
// guards the pathological near-full case.
func (s *Service) generateLoginCode() (string, error) {
	for attempt := 0; attempt < 1000; attempt++ {
		code := fmt.Sprintf("%d", 1000+rand.Intn(9000))
		existing, err := s.Store.GetUserByCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique login code")
}

func (s *Service) CreateStudent(name string, groupID *int64) (*models.User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if groupID != nil {
		group, err := s.Store.GetGroup(*groupID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, fmt.Errorf("%w: group %d", ErrNotFound, *groupID)
		}
	}

	code, err := s.generateLoginCode()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:    name,
		Code:    &code,
		Role:    models.RoleStudent,
		GroupID: groupID,
	}
	id, err := s.Store.CreateUser(user)
	if err != nil {
		return nil, err
	}

	go s.Notifier.NewStudent(id, name, code)

	return s.Store.GetUser(id)
}

func (s *Service) CreateSupervisor(name string) (*models.User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}

	code, err := s.generateLoginCode()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name: name,
		Code: &code,
		Role: models.RoleSupervisor,
	}
	id, err := s.Store.CreateUser(user)
	if err != nil {
		return nil, err
	}
	return s.Store.GetUser(id)
}

// UpdateStudent renames a student and/or moves them between groups.
// Moving a student moves their entire point history with them: group
// totals re-sum member totals, so the old group shrinks and the new one
// grows by the student's total.
func (s *Service) UpdateStudent(id int64, name string, groupID *int64) (*models.User, error) {
	student, err := s.Store.GetUser(id)
	if err != nil {
		return nil, err
	}
	if student == nil || student.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: student %d", ErrNotFound, id)
	}
	if name == "" {
		name = student.Name
	}

	var newGroup *models.Group
	if groupID != nil {
		newGroup, err = s.Store.GetGroup(*groupID)
		if err != nil {
			return nil, err
		}
		if newGroup == nil {
			return nil, fmt.Errorf("%w: group %d", ErrNotFound, *groupID)
		}
	}

	if err := s.Store.UpdateStudent(id, name, groupID); err != nil {
		return nil, err
	}

	groupChanged := (student.GroupID == nil) != (groupID == nil) ||
		(student.GroupID != nil && groupID != nil && *student.GroupID != *groupID)
	if groupChanged && newGroup != nil {
		message := fmt.Sprintf("You joined group %q", newGroup.Name)
		if student.GroupName != nil {
			message = fmt.Sprintf("You moved from group %q to group %q", *student.GroupName, newGroup.Name)
		}
		if err := s.Store.CreateNotification(id, "Group change 👥", message); err != nil {
			logger.Error.Printf("Failed to create group change notification: %v", err)
		}
		go s.Notifier.GroupChanged(id, newGroup.Name, student.GroupName)
	}

	return s.Store.GetUser(id)
}

func (s *Service) DeleteStudent(id int64) error {
	student, err := s.Store.GetUser(id)
	if err != nil {
		return err
	}
	if student == nil || student.Role != models.RoleStudent {
		return fmt.Errorf("%w: student %d", ErrNotFound, id)
	}
	return s.Store.DeleteUser(id, models.RoleStudent)
}

func (s *Service) DeleteSupervisor(id int64) error {
	supervisor, err := s.Store.GetUser(id)
	if err != nil {
		return err
	}
	if supervisor == nil || supervisor.Role != models.RoleSupervisor {
		return fmt.Errorf("%w: supervisor %d", ErrNotFound, id)
	}
	return s.Store.DeleteUser(id, models.RoleSupervisor)
}

// SetPointsVisibility hides or reveals a student's own view of their
// points. Totals keep accumulating either way; this is display only.
func (s *Service) SetPointsVisibility(id int64, hidden bool, reason string) error {
	student, err := s.Store.GetUser(id)
	if err != nil {
		return err
	}
	if student == nil || student.Role != models.RoleStudent {
		return fmt.Errorf("%w: student %d", ErrNotFound, id)
	}

	if err := s.Store.SetPointsHidden(id, hidden); err != nil {
		return err
	}

	title := "Points visible again ✅"
	message := "You can see your points again"
	if hidden {
		title = "Points hidden 🚫"
		message = "Your points are temporarily hidden"
		if reason != "" {
			message += ". Reason: " + reason
		}
	}
	if err := s.Store.CreateNotification(id, title, message); err != nil {
		logger.Error.Printf("Failed to create visibility notification: %v", err)
	}
	go s.Notifier.PointsVisibilityChanged(id, hidden, reason)

	return nil
}

func (s *Service) CreateGroup(name string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	id, err := s.Store.CreateGroup(name)
	if err != nil {
		return nil, err
	}
	return s.Store.GetGroup(id)
}

func (s *Service) RenameGroup(id int64, name string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	group, err := s.Store.GetGroup(id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, id)
	}
	if err := s.Store.RenameGroup(id, name); err != nil {
		return nil, err
	}
	return s.Store.GetGroup(id)
}

func (s *Service) DeleteGroup(id int64) error {
	group, err := s.Store.GetGroup(id)
	if err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("%w: group %d", ErrNotFound, id)
	}
	return s.Store.DeleteGroup(id)
}

type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// LoginByCode signs in students and supervisors with their 4-digit code.
func (s *Service) LoginByCode(ctx context.Context, code string) (*LoginResult, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidArgument)
	}
	user, err := s.Store.GetUserByCode(code)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role == models.RoleAdmin {
		return nil, fmt.Errorf("%w: invalid code", ErrNotFound)
	}

	token, err := s.Auth.CreateSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

// LoginAdmin signs in admins with username and password.
func (s *Service) LoginAdmin(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidArgument)
	}
	user, err := s.Store.GetUserByCredentials(username, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrNotFound)
	}

	token, err := s.Auth.CreateSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

func (s *Service) UpdateSetting(key, value string) error {
	switch key {
	case SettingPourManualAdjustments, SettingPourAddOnly, SettingPourApprovedRequests:
		return s.Store.SetSetting(key, value)
	default:
		return fmt.Errorf("%w: unknown setting %q", ErrInvalidArgument, key)
	}
}

func (s *Service) Settings() (map[string]string, error) {
	settings, err := s.Store.ListSettings()
	if err != nil {
		return nil, err
	}
	// Unset keys still show up, as their default.
	for _, key := range []string{SettingPourManualAdjustments, SettingPourAddOnly, SettingPourApprovedRequests} {
		if _, ok := settings[key]; !ok {
			settings[key] = "false"
		}
	}
	return settings, nil
}

func (s *Service) WeeklyReport(week int64) ([]store.WeeklyReportRow, error) {
	if week == 0 {
		week = WeekNumber(nowFunc())
	}
	return s.Store.WeeklyReport(week)
}
