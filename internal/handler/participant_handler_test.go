package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/middleware"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

type participantServiceMock struct {
	registerResp *models.ParticipantDetail
	registerErr  error
	registerReq  service.RegisterParticipantRequest

	bulkUpdated []models.ParticipantDetail
	bulkErrors  []service.BulkItemError
	bulkErr     error

	statsResp *models.ParticipationStats
	statsErr  error

	exportPayload     []byte
	exportContentType string
	exportErr         error
	exportedFormat    string

	listFilter models.ParticipantFilter
}

func (m *participantServiceMock) Register(ctx context.Context, actor *models.JWTClaims, req service.RegisterParticipantRequest) (*models.ParticipantDetail, error) {
	m.registerReq = req
	return m.registerResp, m.registerErr
}

func (m *participantServiceMock) List(ctx context.Context, filter models.ParticipantFilter) ([]models.ParticipantDetail, error) {
	m.listFilter = filter
	return nil, nil
}

func (m *participantServiceMock) Get(ctx context.Context, id string) (*models.ParticipantDetail, error) {
	return nil, appErrors.ErrNotFound
}

func (m *participantServiceMock) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req service.UpdateParticipantStatusRequest) (*models.ParticipantDetail, error) {
	return nil, nil
}

func (m *participantServiceMock) MarkAttended(ctx context.Context, actor *models.JWTClaims, id string) (*models.ParticipantDetail, error) {
	return nil, nil
}

func (m *participantServiceMock) BulkUpdateStatus(ctx context.Context, actor *models.JWTClaims, req service.BulkStatusUpdateRequest) ([]models.ParticipantDetail, []service.BulkItemError, error) {
	return m.bulkUpdated, m.bulkErrors, m.bulkErr
}

func (m *participantServiceMock) Stats(ctx context.Context, activityID string) (*models.ParticipationStats, error) {
	return m.statsResp, m.statsErr
}

func (m *participantServiceMock) CheckParticipation(ctx context.Context, actor *models.JWTClaims, activityID string) (*service.CheckParticipationResult, error) {
	return &service.CheckParticipationResult{}, nil
}

func (m *participantServiceMock) ListByActivity(ctx context.Context, activityID string) ([]models.ParticipantDetail, error) {
	return nil, nil
}

func (m *participantServiceMock) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.ParticipantDetail, error) {
	return nil, nil
}

func (m *participantServiceMock) Retire(ctx context.Context, actor *models.JWTClaims, id string) error {
	return nil
}

func (m *participantServiceMock) ExportRoster(ctx context.Context, actor *models.JWTClaims, activityID, format string) ([]byte, string, error) {
	m.exportedFormat = format
	return m.exportPayload, m.exportContentType, m.exportErr
}

func testClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleParticipant}
}

func TestParticipantHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &participantServiceMock{
		registerResp: &models.ParticipantDetail{
			Participant: models.Participant{ID: "part-1", ActivityID: "act-1", UserID: "user-1", Status: models.ParticipationRegistered},
		},
	}
	handler := NewParticipantHandler(mockSvc)

	payload, _ := json.Marshal(service.RegisterParticipantRequest{ActivityID: "act-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/activity-participants/create/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "act-1", mockSvc.registerReq.ActivityID)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "Participant registered successfully", envelope.Message)
}

func TestParticipantHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewParticipantHandler(&participantServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/activity-participants/create/", bytes.NewBufferString(`{"activity":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
}

func TestParticipantHandlerCreateCapacityError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &participantServiceMock{registerErr: appErrors.ErrCapacityExceeded}
	handler := NewParticipantHandler(mockSvc)

	payload, _ := json.Marshal(service.RegisterParticipantRequest{ActivityID: "act-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/activity-participants/create/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "required number of participants")
}

func TestParticipantHandlerListPassesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &participantServiceMock{}
	handler := NewParticipantHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/activity-participants/all/?activity=act-1&status=registered", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "act-1", mockSvc.listFilter.ActivityID)
	assert.Equal(t, models.ParticipationRegistered, mockSvc.listFilter.Status)
}

func TestParticipantHandlerBulkUpdateMultiStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &participantServiceMock{
		bulkErrors: []service.BulkItemError{{Index: 1, ParticipantID: "part-2", Message: "attended is terminal"}},
	}
	handler := NewParticipantHandler(mockSvc)

	payload, _ := json.Marshal(service.BulkStatusUpdateRequest{Items: []service.BulkStatusUpdateItem{
		{ParticipantID: "part-1", Status: models.ParticipationAttended},
		{ParticipantID: "part-2", Status: models.ParticipationRegistered},
	}})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/activity-participants/bulk-update-status/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.BulkUpdateStatus(c)
	require.Equal(t, http.StatusMultiStatus, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "no changes were applied")
}

func TestParticipantHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &participantServiceMock{
		exportPayload:     []byte("ID,Participant\n"),
		exportContentType: "text/csv",
	}
	handler := NewParticipantHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/activity-participants/export/act-1/?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "activity_id", Value: "act-1"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.exportedFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "roster-act-1.csv")
	assert.Equal(t, "ID,Participant\n", w.Body.String())
}
