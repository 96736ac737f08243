package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/bensin/internal/models"
	"github.com/shrimpsizemoose/bensin/internal/store"
	"github.com/shrimpsizemoose/bensin/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &Config{}
	cfg.Requests.WeeklyLimit = 3

	return &Service{
		Config:     cfg,
		Store:      st,
		Auth:       &Auth{},
		groupLocks: make(map[int64]*sync.Mutex),
	}
}

func seedGroup(t *testing.T, s *Service, name string) int64 {
	t.Helper()
	id, err := s.Store.CreateGroup(name)
	require.NoError(t, err)
	return id
}

func seedStudent(t *testing.T, s *Service, name string, groupID *int64, points int64) int64 {
	t.Helper()
	code := name + "-code"
	id, err := s.Store.CreateUser(&models.User{
		Name:    name,
		Code:    &code,
		Role:    models.RoleStudent,
		GroupID: groupID,
	})
	require.NoError(t, err)
	if points != 0 {
		require.NoError(t, s.Store.CreateAdjustment(&models.Adjustment{
			StudentID: id, Points: points, Reason: "seed",
		}))
	}
	return id
}

// breakdown asserts the bucket invariant: total always equals member sum
// plus direct sum.
func breakdown(t *testing.T, s *Service, groupID int64) *store.GroupBreakdown {
	t.Helper()
	b, err := s.Store.GroupBreakdown(groupID)
	require.NoError(t, err)
	assert.Equal(t, b.TotalPoints, b.MembersPoints+b.DirectPoints)
	return b
}

func TestAdjustStudentPoints(t *testing.T) {
	s := newTestService(t)
	studentID := seedStudent(t, s, "amr", nil, 0)

	result, err := s.AdjustStudentPoints(studentID, 5, ActionAdd, "helped at event", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.TotalPoints)
	assert.Equal(t, int64(1), result.Fuel.Ethanol)

	result, err = s.AdjustStudentPoints(studentID, 5, ActionSubtract, "no-show", nil)
	require.NoError(t, err)
	assert.Zero(t, result.TotalPoints)

	total, err := s.Store.StudentTotal(studentID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAdjustStudentPointsInsufficientBalance(t *testing.T) {
	s := newTestService(t)
	studentID := seedStudent(t, s, "amr", nil, 3)

	_, err := s.AdjustStudentPoints(studentID, 10, ActionSubtract, "", nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Contains(t, err.Error(), "cannot subtract 10 points: balance is only 3")

	// Failed subtract writes nothing.
	total, err := s.Store.StudentTotal(studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestAdjustStudentPointsValidation(t *testing.T) {
	s := newTestService(t)
	studentID := seedStudent(t, s, "amr", nil, 0)

	_, err := s.AdjustStudentPoints(studentID, 0, ActionAdd, "", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.AdjustStudentPoints(studentID, 5, "multiply", "", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.AdjustStudentPoints(424242, 5, ActionAdd, "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustStudentPointsPropagation(t *testing.T) {
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	studentID := seedStudent(t, s, "amr", &groupID, 10)

	t.Run("off by default", func(t *testing.T) {
		_, err := s.AdjustStudentPoints(studentID, 4, ActionAdd, "", nil)
		require.NoError(t, err)
		assert.Zero(t, breakdown(t, s, groupID).DirectPoints)
	})

	t.Run("add-only pours adds but not subtracts", func(t *testing.T) {
		require.NoError(t, s.Store.SetSetting(SettingPourAddOnly, "true"))

		_, err := s.AdjustStudentPoints(studentID, 4, ActionAdd, "", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), breakdown(t, s, groupID).DirectPoints)

		_, err = s.AdjustStudentPoints(studentID, 4, ActionSubtract, "", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), breakdown(t, s, groupID).DirectPoints)
	})

	t.Run("manual pours both ways and wins over add-only", func(t *testing.T) {
		require.NoError(t, s.Store.SetSetting(SettingPourManualAdjustments, "true"))

		_, err := s.AdjustStudentPoints(studentID, 2, ActionSubtract, "", nil)
		require.NoError(t, err)
		// 4 - 2: the subtract now mirrors into the direct bucket, once.
		assert.Equal(t, int64(2), breakdown(t, s, groupID).DirectPoints)
	})
}

func TestAdjustGroupPointsDirectOnly(t *testing.T) {
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	seedStudent(t, s, "amr", &groupID, 10)

	result, err := s.AdjustGroupPoints(groupID, 8, ActionAdd, false, "won the quiz", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(8), result.Stats.DirectPoints)
	assert.Equal(t, int64(10), result.Stats.MembersPoints)
	assert.Equal(t, int64(18), result.Stats.TotalPoints)

	// Member totals untouched.
	members, err := s.Store.ListMembers(groupID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), members[0].TotalPoints)
}

func TestAdjustGroupPointsSubtractNeedsDirectBalance(t *testing.T) {
	// Direct=0, members {10,3,0}: the direct bucket is debited in full on
	// subtract, so the whole call fails before any member row is written.
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	first := seedStudent(t, s, "amr", &groupID, 10)
	seedStudent(t, s, "nour", &groupID, 3)
	seedStudent(t, s, "zed", &groupID, 0)

	_, err := s.AdjustGroupPoints(groupID, 9, ActionSubtract, true, "", nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	total, err := s.Store.StudentTotal(first)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Zero(t, breakdown(t, s, groupID).DirectPoints)
}

func TestAdjustGroupPointsSubtractRedistributesShortfall(t *testing.T) {
	// Direct=20, members {10,3,0}, subtract 9 applied to members: direct
	// drops to 11; intended shares {3,3,3}, the broke member contributes
	// nothing and its 3 points land on the member with capacity left.
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	first := seedStudent(t, s, "amr", &groupID, 10)
	second := seedStudent(t, s, "nour", &groupID, 3)
	third := seedStudent(t, s, "zed", &groupID, 0)
	_, err := s.AdjustGroupPoints(groupID, 20, ActionAdd, false, "seed direct", nil)
	require.NoError(t, err)

	result, err := s.AdjustGroupPoints(groupID, 9, ActionSubtract, true, "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(11), result.Stats.DirectPoints)

	firstTotal, err := s.Store.StudentTotal(first)
	require.NoError(t, err)
	secondTotal, err := s.Store.StudentTotal(second)
	require.NoError(t, err)
	thirdTotal, err := s.Store.StudentTotal(third)
	require.NoError(t, err)

	assert.Equal(t, int64(4), firstTotal) // 10 - 3 - 3 top-up
	assert.Zero(t, secondTotal)           // 3 - 3
	assert.Zero(t, thirdTotal)            // no capacity, no row
	assert.Equal(t, int64(9), (10-firstTotal)+(3-secondTotal)+(0-thirdTotal))

	breakdown(t, s, groupID)
}

func TestAdjustGroupPointsAddSplitsFairly(t *testing.T) {
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	first := seedStudent(t, s, "amr", &groupID, 0)
	second := seedStudent(t, s, "nour", &groupID, 0)
	third := seedStudent(t, s, "zed", &groupID, 0)

	result, err := s.AdjustGroupPoints(groupID, 10, ActionAdd, true, "", nil)
	require.NoError(t, err)

	// Direct bucket takes the full amount, members split {4,3,3}.
	assert.Equal(t, int64(10), result.Stats.DirectPoints)
	assert.Equal(t, int64(10), result.Stats.MembersPoints)
	assert.Equal(t, int64(20), result.Stats.TotalPoints)

	for i, id := range []int64{first, second, third} {
		total, err := s.Store.StudentTotal(id)
		require.NoError(t, err)
		want := int64(3)
		if i == 0 {
			want = 4
		}
		assert.Equal(t, want, total)
	}
}

func TestAdjustGroupPointsNoMembers(t *testing.T) {
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")

	_, err := s.AdjustGroupPoints(groupID, 10, ActionAdd, true, "", nil)
	require.ErrorIs(t, err, ErrNoMembers)

	// Checked before any write, including the direct row.
	assert.Zero(t, breakdown(t, s, groupID).DirectPoints)
}

func TestAdjustGroupPercentageDirectBase(t *testing.T) {
	// 50% add on direct=10 moves direct to 15 and leaves members alone.
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	studentID := seedStudent(t, s, "amr", &groupID, 40)
	_, err := s.AdjustGroupPoints(groupID, 10, ActionAdd, false, "seed direct", nil)
	require.NoError(t, err)

	result, err := s.AdjustGroupPercentage(groupID, 50, ActionAdd, false, "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(15), result.Stats.DirectPoints)
	assert.Equal(t, int64(40), result.Stats.MembersPoints)

	total, err := s.Store.StudentTotal(studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), total)
}

func TestAdjustGroupPercentageMemberDeltasUseOwnTotals(t *testing.T) {
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	first := seedStudent(t, s, "amr", &groupID, 10)
	second := seedStudent(t, s, "nour", &groupID, 7)
	_, err := s.AdjustGroupPoints(groupID, 20, ActionAdd, false, "seed direct", nil)
	require.NoError(t, err)

	_, err = s.AdjustGroupPercentage(groupID, 10, ActionAdd, true, "", nil)
	require.NoError(t, err)

	firstTotal, err := s.Store.StudentTotal(first)
	require.NoError(t, err)
	secondTotal, err := s.Store.StudentTotal(second)
	require.NoError(t, err)
	assert.Equal(t, int64(11), firstTotal)
	assert.Equal(t, int64(7), secondTotal) // floor(7*10%)=0, no row

	assert.Equal(t, int64(22), breakdown(t, s, groupID).DirectPoints)
}

func TestAdjustGroupPercentageSubtractHasNoShortfallPass(t *testing.T) {
	// Unlike the bulk subtract, the percentage path never redistributes
	// what a broke member could not contribute. This pins the asymmetry.
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	rich := seedStudent(t, s, "amr", &groupID, 10)
	broke := seedStudent(t, s, "zed", &groupID, 0)
	_, err := s.AdjustGroupPoints(groupID, 10, ActionAdd, false, "seed direct", nil)
	require.NoError(t, err)

	_, err = s.AdjustGroupPercentage(groupID, 50, ActionSubtract, true, "", nil)
	require.NoError(t, err)

	richTotal, err := s.Store.StudentTotal(rich)
	require.NoError(t, err)
	brokeTotal, err := s.Store.StudentTotal(broke)
	require.NoError(t, err)

	// Rich loses exactly 50% of their own total, nothing more.
	assert.Equal(t, int64(5), richTotal)
	assert.Zero(t, brokeTotal)
	assert.Equal(t, int64(5), breakdown(t, s, groupID).DirectPoints)
}

func TestAdjustGroupPercentageValidation(t *testing.T) {
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")

	_, err := s.AdjustGroupPercentage(groupID, 0, ActionAdd, false, "", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.AdjustGroupPercentage(groupID, 101, ActionAdd, false, "", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRequestLifecycle(t *testing.T) {
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	studentID := seedStudent(t, s, "amr", &groupID, 0)
	code := "sup-code"
	reviewerID, err := s.Store.CreateUser(&models.User{Name: "boss", Code: &code, Role: models.RoleSupervisor})
	require.NoError(t, err)

	result, err := s.CreateRequest(&models.Request{
		StudentID:   studentID,
		Committee:   "scientific",
		Description: "ran the physics workshop",
		Points:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.WeeklyRequestsCount)

	req, err := s.ApproveRequest(result.RequestID, reviewerID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, req.Status)

	// Approval counts into the student total immediately.
	total, err := s.Store.StudentTotal(studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	// Terminal transition.
	_, err = s.ApproveRequest(result.RequestID, reviewerID)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.RejectRequest(result.RequestID, reviewerID, "nope")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateRequestWeeklyQuota(t *testing.T) {
	s := newTestService(t)
	studentID := seedStudent(t, s, "amr", nil, 0)

	for i := 0; i < 3; i++ {
		_, err := s.CreateRequest(&models.Request{
			StudentID:   studentID,
			Committee:   "general",
			Description: "helped out",
			Points:      1,
		})
		require.NoError(t, err)
	}

	_, err := s.CreateRequest(&models.Request{
		StudentID:   studentID,
		Committee:   "general",
		Description: "one too many",
		Points:      1,
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateRequestValidation(t *testing.T) {
	s := newTestService(t)
	studentID := seedStudent(t, s, "amr", nil, 0)

	testCases := []struct {
		name string
		req  models.Request
	}{
		{"unknown committee", models.Request{StudentID: studentID, Committee: "gaming", Description: "x", Points: 3}},
		{"points too high", models.Request{StudentID: studentID, Committee: "social", Description: "x", Points: 6}},
		{"points too low", models.Request{StudentID: studentID, Committee: "social", Description: "x", Points: 0}},
		{"no description", models.Request{StudentID: studentID, Committee: "social", Points: 3}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateRequest(&tc.req)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestApproveRequestPoursWhenEnabled(t *testing.T) {
	s := newTestService(t)
	groupID := seedGroup(t, s, "Falcons")
	studentID := seedStudent(t, s, "amr", &groupID, 0)
	code := "sup-code"
	reviewerID, err := s.Store.CreateUser(&models.User{Name: "boss", Code: &code, Role: models.RoleSupervisor})
	require.NoError(t, err)
	require.NoError(t, s.Store.SetSetting(SettingPourApprovedRequests, "true"))

	result, err := s.CreateRequest(&models.Request{
		StudentID:   studentID,
		Committee:   "sports",
		Description: "organized the tournament",
		Points:      4,
	})
	require.NoError(t, err)

	_, err = s.ApproveRequest(result.RequestID, reviewerID)
	require.NoError(t, err)

	b := breakdown(t, s, groupID)
	assert.Equal(t, int64(4), b.MembersPoints)
	assert.Equal(t, int64(4), b.DirectPoints)
	assert.Equal(t, int64(8), b.TotalPoints)
}

func TestStudentStats(t *testing.T) {
	s := newTestService(t)
	studentID := seedStudent(t, s, "amr", nil, 13)

	stats, err := s.StudentStats(studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(13), stats.TotalPoints)
	// 13 = 2x5 + 1x3
	assert.Equal(t, int64(2), stats.Fuel.Ethanol)
	assert.Equal(t, int64(1), stats.Fuel.Fuel95)
	assert.Equal(t, int64(3), stats.TotalLiters)
	assert.Equal(t, int64(3), stats.WeeklyRequestsLimit)
}

func TestLoginByCode(t *testing.T) {
	s := newTestService(t)
	studentID := seedStudent(t, s, "amr", nil, 0)

	student, err := s.Store.GetUser(studentID)
	require.NoError(t, err)

	result, err := s.LoginByCode(context.Background(), *student.Code)
	require.NoError(t, err)
	assert.Equal(t, studentID, result.User.ID)
	// Auth disabled: no token issued.
	assert.Empty(t, result.Token)

	_, err = s.LoginByCode(context.Background(), "0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSettingRejectsUnknownKeys(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.UpdateSetting(SettingPourAddOnly, "true"))
	assert.ErrorIs(t, s.UpdateSetting("definitely_not_a_key", "true"), ErrInvalidArgument)

	settings, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, "true", settings[SettingPourAddOnly])
	assert.Equal(t, "false", settings[SettingPourApprovedRequests])
}

func TestParseSettingBool(t *testing.T) {
	assert.True(t, parseSettingBool("1"))
	assert.True(t, parseSettingBool("TRUE"))
	assert.True(t, parseSettingBool(" yes "))
	assert.True(t, parseSettingBool("on"))
	assert.False(t, parseSettingBool(""))
	assert.False(t, parseSettingBool("0"))
	assert.False(t, parseSettingBool("nope"))
}
