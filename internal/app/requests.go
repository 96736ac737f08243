package app

import (
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/bensin/internal/fuel"
	"github.com/shrimpsizemoose/bensin/internal/metrics"
	"github.com/shrimpsizemoose/bensin/internal/models"
)

type CreateRequestResult struct {
	RequestID           int64 `json:"request_id"`
	WeeklyRequestsCount int64 `json:"weeklyRequestsCount"`
	WeeklyRequestsLimit int64 `json:"weeklyRequestsLimit"`
}

// CreateRequest files a pending task request for a student, enforcing
// the weekly quota. The quota counts every request filed this week
// regardless of its eventual status.
func (s *Service) CreateRequest(req *models.Request) (*CreateRequestResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	student, err := s.Store.GetUser(req.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil || student.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: student %d", ErrNotFound, req.StudentID)
	}

	week := WeekNumber(nowFunc())
	count, err := s.Store.CountWeekRequests(req.StudentID, week)
	if err != nil {
		return nil, err
	}
	limit := s.Config.Requests.WeeklyLimit
	if count >= limit {
		go s.Notifier.WeeklyLimitReached(req.StudentID, limit)
		return nil, fmt.Errorf("%w: weekly request limit of %d reached", ErrInvalidArgument, limit)
	}

	req.Status = models.RequestPending
	req.WeekNumber = week

	id, err := s.Store.CreateRequest(req)
	if err != nil {
		return nil, err
	}

	s.notifyReviewers(student.Name)

	return &CreateRequestResult{
		RequestID:           id,
		WeeklyRequestsCount: count + 1,
		WeeklyRequestsLimit: limit,
	}, nil
}

// ApproveRequest finalizes a pending request. Approval makes the
// request's points part of the student total immediately, because
// totals sum approved requests directly. When the pour-approved setting
// is on, the same amount also lands in the group-direct bucket.
func (s *Service) ApproveRequest(requestID, reviewerID int64) (*models.Request, error) {
	req, err := s.Store.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
	}

	reviewed, err := s.Store.ReviewRequest(requestID, models.RequestApproved, reviewerID, nil)
	if err != nil {
		return nil, err
	}
	if !reviewed {
		return nil, fmt.Errorf("%w: request %d has already been reviewed", ErrInvalidArgument, requestID)
	}

	metrics.RequestReviewsTotal.WithLabelValues(models.RequestApproved).Inc()

	student, err := s.Store.GetUser(req.StudentID)
	if err == nil && student != nil && student.GroupID != nil && s.propagationPolicy().PourApprovedRequests {
		if err := s.Store.CreateGroupAdjustment(&models.GroupAdjustment{
			GroupID:    *student.GroupID,
			Points:     req.Points,
			Reason:     fmt.Sprintf("approved request #%d (auto-pour)", requestID),
			AdjustedBy: &reviewerID,
		}); err != nil {
			logger.Error.Printf("Failed to pour approved request %d into group %d: %v", requestID, *student.GroupID, err)
		}
	}

	grade, ok := fuel.GradeForPoints(req.Points)
	if ok {
		message := fmt.Sprintf("Your request was approved! You earned 1 liter of %s %s", grade.Name, grade.Emoji)
		if err := s.Store.CreateNotification(req.StudentID, "Request approved ✅", message); err != nil {
			logger.Error.Printf("Failed to create approval notification: %v", err)
		}
		go s.Notifier.RequestApproved(req.StudentID, grade.Name, grade.Emoji)
	}

	return s.Store.GetRequest(requestID)
}

func (s *Service) RejectRequest(requestID, reviewerID int64, reason string) (*models.Request, error) {
	req, err := s.Store.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
	}

	var rejectionReason *string
	if reason != "" {
		rejectionReason = &reason
	}

	reviewed, err := s.Store.ReviewRequest(requestID, models.RequestRejected, reviewerID, rejectionReason)
	if err != nil {
		return nil, err
	}
	if !reviewed {
		return nil, fmt.Errorf("%w: request %d has already been reviewed", ErrInvalidArgument, requestID)
	}

	metrics.RequestReviewsTotal.WithLabelValues(models.RequestRejected).Inc()

	message := "Your request was rejected."
	if reason != "" {
		message += " Reason: " + reason
	}
	if err := s.Store.CreateNotification(req.StudentID, "Request rejected ❌", message); err != nil {
		logger.Error.Printf("Failed to create rejection notification: %v", err)
	}
	go s.Notifier.RequestRejected(req.StudentID, reason)

	return s.Store.GetRequest(requestID)
}

// notifyReviewers pings everyone who can review, in-app and by push.
func (s *Service) notifyReviewers(studentName string) {
	var reviewerIDs []int64
	for _, role := range []string{models.RoleSupervisor, models.RoleAdmin} {
		users, err := s.Store.ListUsersByRole(role)
		if err != nil {
			logger.Error.Printf("Failed to list %s users for notification: %v", role, err)
			continue
		}
		for _, u := range users {
			reviewerIDs = append(reviewerIDs, u.ID)
			if err := s.Store.CreateNotification(u.ID, "New task request 📝", fmt.Sprintf("%s submitted a new request", studentName)); err != nil {
				logger.Error.Printf("Failed to create reviewer notification: %v", err)
			}
		}
	}
	go s.Notifier.NewRequest(studentName, reviewerIDs)
}
