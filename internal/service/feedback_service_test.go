package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

type mockFeedbackRepo struct {
	feedbacks map[string]models.Feedback
	created   *models.Feedback
	deleted   []string
}

func (m *mockFeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = "fb-new"
	}
	if m.feedbacks == nil {
		m.feedbacks = make(map[string]models.Feedback)
	}
	m.feedbacks[feedback.ID] = *feedback
	m.created = feedback
	return nil
}

func (m *mockFeedbackRepo) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	if f, ok := m.feedbacks[id]; ok {
		copied := f
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeedbackRepo) FindDetailByID(ctx context.Context, id string) (*models.FeedbackDetail, error) {
	if f, ok := m.feedbacks[id]; ok {
		return &models.FeedbackDetail{Feedback: f}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeedbackRepo) ExistsByAuthorAndActivity(ctx context.Context, authorID, activityID string) (bool, error) {
	for _, f := range m.feedbacks {
		if f.CreatedBy == authorID && f.ActivityID == activityID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFeedbackRepo) ListByActivity(ctx context.Context, activityID string) ([]models.FeedbackDetail, error) {
	var list []models.FeedbackDetail
	for _, f := range m.feedbacks {
		if f.ActivityID == activityID {
			list = append(list, models.FeedbackDetail{Feedback: f})
		}
	}
	return list, nil
}

func (m *mockFeedbackRepo) ListByAuthor(ctx context.Context, authorID string) ([]models.FeedbackDetail, error) {
	var list []models.FeedbackDetail
	for _, f := range m.feedbacks {
		if f.CreatedBy == authorID {
			list = append(list, models.FeedbackDetail{Feedback: f})
		}
	}
	return list, nil
}

func (m *mockFeedbackRepo) List(ctx context.Context) ([]models.FeedbackDetail, error) {
	var list []models.FeedbackDetail
	for _, f := range m.feedbacks {
		list = append(list, models.FeedbackDetail{Feedback: f})
	}
	return list, nil
}

func (m *mockFeedbackRepo) Update(ctx context.Context, feedback *models.Feedback) error {
	m.feedbacks[feedback.ID] = *feedback
	return nil
}

func (m *mockFeedbackRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.feedbacks, id)
	return nil
}

type mockAttendance struct {
	attended map[string]bool
	records  []models.ParticipantDetail
}

func (m *mockAttendance) HasAttended(ctx context.Context, activityID, userID string) (bool, error) {
	return m.attended[activityID+"/"+userID], nil
}

func (m *mockAttendance) List(ctx context.Context, filter models.ParticipantFilter) ([]models.ParticipantDetail, error) {
	var list []models.ParticipantDetail
	for _, d := range m.records {
		if filter.UserID != "" && d.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		list = append(list, d)
	}
	return list, nil
}

func feedbackFixture() (*FeedbackService, *mockFeedbackRepo, *mockAttendance) {
	repo := &mockFeedbackRepo{feedbacks: map[string]models.Feedback{}}
	activities := &mockActivityReader{activities: map[string]models.Activity{
		"act-1": upcomingActivity("act-1", "imam-1"),
	}}
	attendance := &mockAttendance{attended: map[string]bool{}}
	svc := NewFeedbackService(repo, activities, attendance, nil, nil)
	return svc, repo, attendance
}

func TestFeedbackServiceCreateRequiresAttendance(t *testing.T) {
	svc, repo, _ := feedbackFixture()

	_, err := svc.Create(context.Background(), memberClaims("member-1"), CreateFeedbackRequest{ActivityID: "act-1", Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFeedbackWithoutAttend.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestFeedbackServiceCreate(t *testing.T) {
	svc, repo, attendance := feedbackFixture()
	attendance.attended["act-1/member-1"] = true

	detail, err := svc.Create(context.Background(), memberClaims("member-1"), CreateFeedbackRequest{ActivityID: "act-1", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, detail.Rating)
	assert.Equal(t, "member-1", repo.created.CreatedBy)
}

func TestFeedbackServiceCreateDuplicateRejected(t *testing.T) {
	svc, repo, attendance := feedbackFixture()
	attendance.attended["act-1/member-1"] = true
	repo.feedbacks["fb-1"] = models.Feedback{ID: "fb-1", ActivityID: "act-1", CreatedBy: "member-1", Rating: 3}

	_, err := svc.Create(context.Background(), memberClaims("member-1"), CreateFeedbackRequest{ActivityID: "act-1", Rating: 4})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "feedback already submitted for this activity", appErr.Message)
}

func TestFeedbackServiceCreateRatingBounds(t *testing.T) {
	svc, _, attendance := feedbackFixture()
	attendance.attended["act-1/member-1"] = true

	_, err := svc.Create(context.Background(), memberClaims("member-1"), CreateFeedbackRequest{ActivityID: "act-1", Rating: 6})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceListByActivityVisibility(t *testing.T) {
	svc, repo, attendance := feedbackFixture()
	repo.feedbacks["fb-1"] = models.Feedback{ID: "fb-1", ActivityID: "act-1", CreatedBy: "member-1", Rating: 4}

	// a stranger is refused
	_, err := svc.ListByActivity(context.Background(), memberClaims("member-2"), "act-1")
	require.Error(t, err)
	assert.Equal(t, "feedback is visible to the organizer and attendees only", appErrors.FromError(err).Message)

	// the organizer may read
	list, err := svc.ListByActivity(context.Background(), imamClaims("imam-1"), "act-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// an attendee may read
	attendance.attended["act-1/member-2"] = true
	list, err = svc.ListByActivity(context.Background(), memberClaims("member-2"), "act-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFeedbackServiceUpdateAuthorOnly(t *testing.T) {
	svc, repo, _ := feedbackFixture()
	repo.feedbacks["fb-1"] = models.Feedback{ID: "fb-1", ActivityID: "act-1", CreatedBy: "member-1", Rating: 2}

	rating := 4
	_, err := svc.Update(context.Background(), memberClaims("member-2"), "fb-1", UpdateFeedbackRequest{Rating: &rating})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	detail, err := svc.Update(context.Background(), memberClaims("member-1"), "fb-1", UpdateFeedbackRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 4, detail.Rating)
}

func TestFeedbackServiceDeleteAuthorOrImam(t *testing.T) {
	svc, repo, _ := feedbackFixture()
	repo.feedbacks["fb-1"] = models.Feedback{ID: "fb-1", ActivityID: "act-1", CreatedBy: "member-1", Rating: 2}

	err := svc.Delete(context.Background(), memberClaims("member-2"), "fb-1")
	require.Error(t, err)

	require.NoError(t, svc.Delete(context.Background(), imamClaims("imam-9"), "fb-1"))
	assert.Equal(t, []string{"fb-1"}, repo.deleted)
}

func TestFeedbackServiceMyAttendedActivities(t *testing.T) {
	svc, _, attendance := feedbackFixture()
	attendance.records = []models.ParticipantDetail{
		{Participant: models.Participant{ID: "p-1", UserID: "member-1", Status: models.ParticipationAttended}},
		{Participant: models.Participant{ID: "p-2", UserID: "member-1", Status: models.ParticipationRegistered}},
	}

	list, err := svc.MyAttendedActivities(context.Background(), memberClaims("member-1"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p-1", list[0].ID)
}
