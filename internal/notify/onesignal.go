// Package notify delivers push notifications through OneSignal.
// Delivery is fire-and-forget: a failed push is logged and never fails
// the ledger operation that triggered it.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"
)

const oneSignalEndpoint = "https://onesignal.com/api/v1/notifications"

type Notifier struct {
	appID  string
	apiKey string
	client *http.Client
}

// New returns a notifier, or nil when OneSignal keys are not configured.
// All methods are safe to call on a nil notifier.
func New(appID, apiKey string) *Notifier {
	if appID == "" || apiKey == "" {
		logger.Debug.Println("OneSignal not configured, push notifications disabled")
		return nil
	}
	return &Notifier{
		appID:  appID,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type payload struct {
	AppID            string            `json:"app_id"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	Data             map[string]string `json:"data,omitempty"`
	IncludeAliases   *aliases          `json:"include_aliases,omitempty"`
	TargetChannel    string            `json:"target_channel,omitempty"`
	IncludedSegments []string          `json:"included_segments,omitempty"`
}

type aliases struct {
	ExternalID []string `json:"external_id"`
}

// Send pushes one notification to the given user ids, or to everyone
// when none are given.
func (n *Notifier) Send(title, message string, userIDs []int64, data map[string]string) {
	if n == nil {
		return
	}

	p := payload{
		AppID:    n.appID,
		Headings: map[string]string{"en": title},
		Contents: map[string]string{"en": message},
		Data:     data,
	}
	if len(userIDs) > 0 {
		ids := make([]string, len(userIDs))
		for i, id := range userIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		p.IncludeAliases = &aliases{ExternalID: ids}
		p.TargetChannel = "push"
	} else {
		p.IncludedSegments = []string{"All"}
	}

	body, err := json.Marshal(p)
	if err != nil {
		logger.Error.Printf("Failed to marshal push payload: %v", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, oneSignalEndpoint, bytes.NewReader(body))
	if err != nil {
		logger.Error.Printf("Failed to build push request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		logger.Error.Printf("Failed to send push %q: %v", title, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Error.Printf("OneSignal rejected push %q: %s", title, resp.Status)
		return
	}
	logger.Debug.Printf("Push sent: %s", title)
}

func (n *Notifier) RequestApproved(studentID int64, gradeName, gradeEmoji string) {
	n.Send(
		"Request approved ✅",
		fmt.Sprintf("You earned 1 liter of %s %s", gradeName, gradeEmoji),
		[]int64{studentID},
		map[string]string{"type": "request_approved"},
	)
}

func (n *Notifier) RequestRejected(studentID int64, reason string) {
	message := "No reason given"
	if reason != "" {
		message = "Reason: " + reason
	}
	n.Send("Request rejected ❌", message, []int64{studentID}, map[string]string{"type": "request_rejected"})
}

func (n *Notifier) NewRequest(studentName string, reviewerIDs []int64) {
	if len(reviewerIDs) == 0 {
		return
	}
	n.Send(
		"New task request 📝",
		fmt.Sprintf("%s submitted a new request", studentName),
		reviewerIDs,
		map[string]string{"type": "new_request"},
	)
}

func (n *Notifier) PointsAdjusted(studentID, points, newTotal int64, action string) {
	title := "Points added ➕"
	message := fmt.Sprintf("You earned %d points, your total is now %d", points, newTotal)
	if action == "subtract" {
		title = "Points deducted ➖"
		message = fmt.Sprintf("%d points were deducted, your total is now %d", points, newTotal)
	}
	n.Send(title, message, []int64{studentID}, map[string]string{"type": "points_" + action})
}

func (n *Notifier) GroupPointsChanged(memberIDs []int64, groupName string, points int64, action string, appliedToMembers bool) {
	if len(memberIDs) == 0 {
		return
	}
	title := "Group earned points 🎉"
	message := fmt.Sprintf("Your group %q received %d points", groupName, points)
	if action == "subtract" {
		title = "Group lost points ⚠️"
		message = fmt.Sprintf("%d points were deducted from your group %q", points, groupName)
	}
	if appliedToMembers {
		message += " (applied to members)"
	}
	n.Send(title, message, memberIDs, map[string]string{"type": "group_points"})
}

func (n *Notifier) WeeklyLimitReached(studentID int64, limit int64) {
	n.Send(
		"Weekly limit reached ⚠️",
		fmt.Sprintf("You hit the weekly request limit (%d). Try again next week!", limit),
		[]int64{studentID},
		map[string]string{"type": "weekly_limit"},
	)
}

func (n *Notifier) NewStudent(studentID int64, name, code string) {
	n.Send(
		"Welcome aboard! 🎉",
		fmt.Sprintf("Hi %s! Your login code is: %s", name, code),
		[]int64{studentID},
		map[string]string{"type": "new_student"},
	)
}

func (n *Notifier) GroupChanged(studentID int64, newGroup string, oldGroup *string) {
	message := fmt.Sprintf("You joined group %q", newGroup)
	if oldGroup != nil {
		message = fmt.Sprintf("You moved from group %q to group %q", *oldGroup, newGroup)
	}
	n.Send("Group change 👥", message, []int64{studentID}, map[string]string{"type": "group_changed"})
}

func (n *Notifier) PointsVisibilityChanged(studentID int64, hidden bool, reason string) {
	title := "Points visible again ✅"
	message := "You can see your points again"
	if hidden {
		title = "Points hidden 🚫"
		message = "Your points are temporarily hidden"
		if reason != "" {
			message += ". Reason: " + reason
		}
	}
	n.Send(title, message, []int64{studentID}, map[string]string{"type": "points_visibility"})
}
