package app

import (
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/bensin/internal/fuel"
	"github.com/shrimpsizemoose/bensin/internal/ledger"
	"github.com/shrimpsizemoose/bensin/internal/metrics"
	"github.com/shrimpsizemoose/bensin/internal/models"
	"github.com/shrimpsizemoose/bensin/internal/store"
)

type StudentStats struct {
	TotalPoints         int64      `json:"total_points"`
	Fuel                fuel.Tanks `json:"fuel"`
	TotalLiters         int64      `json:"totalLiters"`
	WeeklyRequestsCount int64      `json:"weeklyRequestsCount"`
	WeeklyRequestsLimit int64      `json:"weeklyRequestsLimit"`
}

type GroupStats struct {
	store.GroupBreakdown
	Fuel        fuel.Tanks `json:"fuel"`
	TotalLiters int64      `json:"totalLiters"`
}

type GroupDetails struct {
	Group   models.Group    `json:"group"`
	Members []models.Member `json:"members"`
	GroupStats
}

type AdjustStudentResult struct {
	TotalPoints int64      `json:"total_points"`
	Fuel        fuel.Tanks `json:"fuel"`
}

type AdjustGroupResult struct {
	Message string     `json:"message"`
	Stats   GroupStats `json:"stats"`
}

// StudentStats recomputes a student's total and quantizes it for
// display. Totals are never cached, see the store contract.
func (s *Service) StudentStats(studentID int64) (*StudentStats, error) {
	student, err := s.Store.GetUser(studentID)
	if err != nil {
		return nil, err
	}
	if student == nil || student.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: student %d", ErrNotFound, studentID)
	}

	total, err := s.Store.StudentTotal(studentID)
	if err != nil {
		return nil, err
	}

	week := WeekNumber(nowFunc())
	weekly, err := s.Store.CountWeekRequests(studentID, week)
	if err != nil {
		return nil, err
	}

	tanks := fuel.Quantize(total)
	return &StudentStats{
		TotalPoints:         total,
		Fuel:                tanks,
		TotalLiters:         tanks.Liters(),
		WeeklyRequestsCount: weekly,
		WeeklyRequestsLimit: s.Config.Requests.WeeklyLimit,
	}, nil
}

func (s *Service) GroupStats(groupID int64) (*GroupStats, error) {
	group, err := s.Store.GetGroup(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}

	breakdown, err := s.Store.GroupBreakdown(groupID)
	if err != nil {
		return nil, err
	}

	tanks := fuel.Quantize(breakdown.TotalPoints)
	return &GroupStats{
		GroupBreakdown: *breakdown,
		Fuel:           tanks,
		TotalLiters:    tanks.Liters(),
	}, nil
}

func (s *Service) GroupDetails(groupID int64) (*GroupDetails, error) {
	group, err := s.Store.GetGroup(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}

	members, err := s.Store.ListMembers(groupID)
	if err != nil {
		return nil, err
	}

	stats, err := s.GroupStats(groupID)
	if err != nil {
		return nil, err
	}

	return &GroupDetails{
		Group:      *group,
		Members:    members,
		GroupStats: *stats,
	}, nil
}

// AdjustStudentPoints applies a signed manual adjustment to one student
// and, depending on the propagation settings, mirrors it into the
// student's group-direct bucket. Validation happens before the first
// write; everything after the adjustment row is best-effort.
func (s *Service) AdjustStudentPoints(studentID, points int64, action, reason string, actorID *int64) (*AdjustStudentResult, error) {
	if points < 1 {
		return nil, fmt.Errorf("%w: points must be at least 1", ErrInvalidArgument)
	}
	if err := validateAction(action); err != nil {
		return nil, err
	}

	student, err := s.Store.GetUser(studentID)
	if err != nil {
		return nil, err
	}
	if student == nil || student.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: student %d", ErrNotFound, studentID)
	}

	if student.GroupID != nil {
		defer s.lockGroup(*student.GroupID)()
	}

	current, err := s.Store.StudentTotal(studentID)
	if err != nil {
		return nil, err
	}
	if action == ActionSubtract && current < points {
		return nil, fmt.Errorf("%w: cannot subtract %d points: balance is only %d", ErrInsufficientBalance, points, current)
	}

	delta := points
	if action == ActionSubtract {
		delta = -points
	}
	if reason == "" {
		reason = "manual points adjustment"
	}

	if err := s.Store.CreateAdjustment(&models.Adjustment{
		StudentID:  studentID,
		Points:     delta,
		Reason:     reason,
		AdjustedBy: actorID,
	}); err != nil {
		return nil, err
	}

	metrics.AdjustmentsTotal.WithLabelValues("student", action).Inc()
	metrics.PointsAdjusted.WithLabelValues("student", action).Add(float64(points))

	// Propagation mirrors the same signed amount into the group-direct
	// bucket. It never touches member rows, so member-derived and direct
	// sums stay disjoint.
	if student.GroupID != nil && s.propagationPolicy().ShouldPourAdjustment(action) {
		if err := s.Store.CreateGroupAdjustment(&models.GroupAdjustment{
			GroupID:    *student.GroupID,
			Points:     delta,
			Reason:     reason + " (auto-pour)",
			AdjustedBy: actorID,
		}); err != nil {
			logger.Error.Printf("Failed to pour adjustment into group %d: %v", *student.GroupID, err)
		}
	}

	s.logOperation(&models.OperationLog{
		OperationType: action,
		TargetType:    "student",
		TargetID:      studentID,
		GroupID:       student.GroupID,
		Points:        points,
		Reason:        reason,
		PerformedBy:   actorID,
	})

	newTotal, err := s.Store.StudentTotal(studentID)
	if err != nil {
		return nil, err
	}

	s.notifyStudentAdjusted(studentID, points, newTotal, action)

	return &AdjustStudentResult{
		TotalPoints: newTotal,
		Fuel:        fuel.Quantize(newTotal),
	}, nil
}

// AdjustGroupPoints performs a bulk point change on a group. Without
// applyToMembers only the direct bucket moves. With it, the direct
// bucket always takes the full amount and the same amount is fanned out
// over the members: fair shares on add, capacity-limited two-pass
// deduction on subtract.
func (s *Service) AdjustGroupPoints(groupID, points int64, action string, applyToMembers bool, reason string, actorID *int64) (*AdjustGroupResult, error) {
	if points < 1 {
		return nil, fmt.Errorf("%w: points must be at least 1", ErrInvalidArgument)
	}
	if err := validateAction(action); err != nil {
		return nil, err
	}

	group, err := s.Store.GetGroup(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}

	defer s.lockGroup(groupID)()

	if reason == "" {
		if action == ActionAdd {
			reason = "group points bonus"
		} else {
			reason = "group points deduction"
		}
	}

	if applyToMembers {
		if err := s.adjustGroupWithMembers(group, points, action, reason, actorID); err != nil {
			return nil, err
		}
	} else {
		if err := s.adjustGroupDirectOnly(group, points, action, reason, actorID); err != nil {
			return nil, err
		}
	}

	metrics.AdjustmentsTotal.WithLabelValues("group", action).Inc()
	metrics.PointsAdjusted.WithLabelValues("group", action).Add(float64(points))

	s.logOperation(&models.OperationLog{
		OperationType: action,
		TargetType:    "group",
		TargetID:      groupID,
		GroupID:       &groupID,
		Points:        points,
		Reason:        reason,
		PerformedBy:   actorID,
	})

	s.notifyGroupAdjusted(group, points, action, applyToMembers)

	stats, err := s.GroupStats(groupID)
	if err != nil {
		return nil, err
	}

	verb := "added"
	if action == ActionSubtract {
		verb = "deducted"
	}
	scope := "(direct to group)"
	if applyToMembers {
		scope = "(distributed to members)"
	}
	return &AdjustGroupResult{
		Message: fmt.Sprintf("%s %d points %s", verb, points, scope),
		Stats:   *stats,
	}, nil
}

func (s *Service) adjustGroupDirectOnly(group *models.Group, points int64, action, reason string, actorID *int64) error {
	delta := points
	if action == ActionSubtract {
		direct, err := s.Store.GroupDirectTotal(group.ID)
		if err != nil {
			return err
		}
		if points > direct {
			return fmt.Errorf("%w: cannot subtract %d points: direct balance is only %d", ErrInsufficientBalance, points, direct)
		}
		delta = -points
	}

	return s.Store.CreateGroupAdjustment(&models.GroupAdjustment{
		GroupID:    group.ID,
		Points:     delta,
		Reason:     reason,
		AdjustedBy: actorID,
	})
}

func (s *Service) adjustGroupWithMembers(group *models.Group, points int64, action, reason string, actorID *int64) error {
	members, err := s.Store.ListMembers(group.ID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return fmt.Errorf("%w: group %d", ErrNoMembers, group.ID)
	}

	if action == ActionAdd {
		// The direct bucket receives the full amount regardless of
		// member count; the same amount is then split fairly.
		if err := s.Store.CreateGroupAdjustment(&models.GroupAdjustment{
			GroupID:        group.ID,
			Points:         points,
			ApplyToMembers: true,
			Reason:         reason + " (group add)",
			AdjustedBy:     actorID,
		}); err != nil {
			return err
		}

		shares := ledger.Shares(points, len(members))
		for i, member := range members {
			if shares[i] < 1 {
				continue
			}
			if err := s.Store.CreateAdjustment(&models.Adjustment{
				StudentID:  member.ID,
				Points:     shares[i],
				Reason:     reason + " (member add)",
				AdjustedBy: actorID,
			}); err != nil {
				return err
			}
		}
		return nil
	}

	// Subtract: the direct bucket is debited in full, not split, so it
	// must hold the whole amount up front.
	direct, err := s.Store.GroupDirectTotal(group.ID)
	if err != nil {
		return err
	}
	if points > direct {
		return fmt.Errorf("%w: cannot subtract %d points: direct balance is only %d", ErrInsufficientBalance, points, direct)
	}

	if err := s.Store.CreateGroupAdjustment(&models.GroupAdjustment{
		GroupID:        group.ID,
		Points:         -points,
		ApplyToMembers: true,
		Reason:         reason + " (group deduction)",
		AdjustedBy:     actorID,
	}); err != nil {
		return err
	}

	balances := make([]ledger.MemberBalance, len(members))
	for i, member := range members {
		balances[i] = ledger.MemberBalance{StudentID: member.ID, Total: member.TotalPoints}
	}

	plan := ledger.PlanDeductions(balances, points)
	for _, d := range plan.Base {
		if err := s.Store.CreateAdjustment(&models.Adjustment{
			StudentID:  d.StudentID,
			Points:     -d.Amount,
			Reason:     reason + " (member deduction)",
			AdjustedBy: actorID,
		}); err != nil {
			return err
		}
	}
	for _, d := range plan.Extra {
		if err := s.Store.CreateAdjustment(&models.Adjustment{
			StudentID:  d.StudentID,
			Points:     -d.Amount,
			Reason:     reason + " (deduction top-up)",
			AdjustedBy: actorID,
		}); err != nil {
			return err
		}
	}
	if plan.Shortfall > 0 {
		logger.Info.Printf(
			"Group %d deduction under-applied: %d of %d points had no member capacity",
			group.ID, plan.Shortfall, points,
		)
	}
	return nil
}

// AdjustGroupPercentage applies a percentage delta. The group delta is
// always a percentage of the direct bucket, never of the member-derived
// total; member deltas are percentages of each member's own total. The
// subtract path has no shortfall redistribution, unlike the bulk one.
func (s *Service) AdjustGroupPercentage(groupID, percentage int64, action string, applyToMembers bool, reason string, actorID *int64) (*AdjustGroupResult, error) {
	if percentage < 1 || percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be within [1,100], got %d", ErrInvalidArgument, percentage)
	}
	if err := validateAction(action); err != nil {
		return nil, err
	}

	group, err := s.Store.GetGroup(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}

	defer s.lockGroup(groupID)()

	if reason == "" {
		if action == ActionAdd {
			reason = fmt.Sprintf("%d%% bonus", percentage)
		} else {
			reason = fmt.Sprintf("%d%% deduction", percentage)
		}
	}

	members, err := s.Store.ListMembers(groupID)
	if err != nil {
		return nil, err
	}
	direct, err := s.Store.GroupDirectTotal(groupID)
	if err != nil {
		return nil, err
	}
	directDelta := ledger.PercentOf(direct, percentage)

	if action == ActionAdd {
		if directDelta >= 1 {
			if err := s.Store.CreateGroupAdjustment(&models.GroupAdjustment{
				GroupID:        groupID,
				Points:         directDelta,
				Percentage:     percentage,
				IsPercentage:   true,
				ApplyToMembers: applyToMembers,
				Reason:         reason,
				AdjustedBy:     actorID,
			}); err != nil {
				return nil, err
			}
		}
		if applyToMembers {
			for _, member := range members {
				memberDelta := ledger.PercentOf(member.TotalPoints, percentage)
				if memberDelta < 1 {
					continue
				}
				if err := s.Store.CreateAdjustment(&models.Adjustment{
					StudentID:  member.ID,
					Points:     memberDelta,
					Reason:     reason,
					AdjustedBy: actorID,
				}); err != nil {
					return nil, err
				}
			}
		}
	} else {
		deduct := directDelta
		if deduct > direct {
			deduct = direct
		}
		if deduct >= 1 {
			if err := s.Store.CreateGroupAdjustment(&models.GroupAdjustment{
				GroupID:        groupID,
				Points:         -deduct,
				Percentage:     percentage,
				IsPercentage:   true,
				ApplyToMembers: applyToMembers,
				Reason:         reason,
				AdjustedBy:     actorID,
			}); err != nil {
				return nil, err
			}
		}
		if applyToMembers {
			for _, member := range members {
				memberDeduct := ledger.PercentOf(member.TotalPoints, percentage)
				if memberDeduct > member.TotalPoints {
					memberDeduct = member.TotalPoints
				}
				if memberDeduct < 1 {
					continue
				}
				if err := s.Store.CreateAdjustment(&models.Adjustment{
					StudentID:  member.ID,
					Points:     -memberDeduct,
					Reason:     reason,
					AdjustedBy: actorID,
				}); err != nil {
					return nil, err
				}
			}
		}
	}

	metrics.AdjustmentsTotal.WithLabelValues("group", "percentage_"+action).Inc()

	s.logOperation(&models.OperationLog{
		OperationType: "percentage_" + action,
		TargetType:    "group",
		TargetID:      groupID,
		GroupID:       &groupID,
		Percentage:    percentage,
		Reason:        reason,
		PerformedBy:   actorID,
	})

	stats, err := s.GroupStats(groupID)
	if err != nil {
		return nil, err
	}

	verb := "bonus"
	if action == ActionSubtract {
		verb = "deduction"
	}
	return &AdjustGroupResult{
		Message: fmt.Sprintf("applied %d%% %s", percentage, verb),
		Stats:   *stats,
	}, nil
}

// logOperation appends to the audit log. Best-effort: the adjustment
// rows already written must stand even if this fails.
func (s *Service) logOperation(entry *models.OperationLog) {
	if err := s.Store.AppendOperationLog(entry); err != nil {
		logger.Error.Printf("Failed to append operation log: %v", err)
	}
}

func (s *Service) notifyStudentAdjusted(studentID, points, newTotal int64, action string) {
	title := "Points added ➕"
	message := fmt.Sprintf("You earned %d points! Your total is now %d", points, newTotal)
	if action == ActionSubtract {
		title = "Points deducted ➖"
		message = fmt.Sprintf("%d points were deducted. Your total is now %d", points, newTotal)
	}
	if err := s.Store.CreateNotification(studentID, title, message); err != nil {
		logger.Error.Printf("Failed to create notification for student %d: %v", studentID, err)
	}

	go s.Notifier.PointsAdjusted(studentID, points, newTotal, action)
}

func (s *Service) notifyGroupAdjusted(group *models.Group, points int64, action string, applyToMembers bool) {
	members, err := s.Store.ListMembers(group.ID)
	if err != nil {
		logger.Error.Printf("Failed to list members of group %d for notifications: %v", group.ID, err)
		return
	}

	title := "Group earned points 🎉"
	message := fmt.Sprintf("Your group %q received %d points", group.Name, points)
	if action == ActionSubtract {
		title = "Group lost points ⚠️"
		message = fmt.Sprintf("%d points were deducted from your group %q", points, group.Name)
	}
	if applyToMembers {
		message += " (applied to members)"
	}

	memberIDs := make([]int64, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
		if err := s.Store.CreateNotification(member.ID, title, message); err != nil {
			logger.Error.Printf("Failed to create notification for student %d: %v", member.ID, err)
		}
	}

	go s.Notifier.GroupPointsChanged(memberIDs, group.Name, points, action, applyToMembers)
}
