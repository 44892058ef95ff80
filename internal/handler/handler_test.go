package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
	"github.com/Jose00521/raffle-stats-service/internal/dto"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
)

type mockQueries struct {
	mock.Mock
}

func (m *mockQueries) CampaignSnapshot(ctx context.Context, campaignID string, day time.Time) (*domain.CampaignDailySnapshot, error) {
	args := m.Called(ctx, campaignID, day)
	if s := args.Get(0); s != nil {
		return s.(*domain.CampaignDailySnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueries) CampaignSnapshotRange(ctx context.Context, campaignID string, from, to time.Time) ([]*domain.CampaignDailySnapshot, error) {
	args := m.Called(ctx, campaignID, from, to)
	if s := args.Get(0); s != nil {
		return s.([]*domain.CampaignDailySnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueries) CreatorSnapshot(ctx context.Context, creatorID string, day time.Time) (*domain.CreatorDailySnapshot, error) {
	args := m.Called(ctx, creatorID, day)
	if s := args.Get(0); s != nil {
		return s.(*domain.CreatorDailySnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueries) CreatorSnapshotRange(ctx context.Context, creatorID string, from, to time.Time) ([]*domain.CreatorDailySnapshot, error) {
	args := m.Called(ctx, creatorID, from, to)
	if s := args.Get(0); s != nil {
		return s.([]*domain.CreatorDailySnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueries) ParticipantSnapshot(ctx context.Context, userID string, day time.Time) (*domain.ParticipantDailySnapshot, error) {
	args := m.Called(ctx, userID, day)
	if s := args.Get(0); s != nil {
		return s.(*domain.ParticipantDailySnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueries) ParticipantSnapshotRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.ParticipantDailySnapshot, error) {
	args := m.Called(ctx, userID, from, to)
	if s := args.Get(0); s != nil {
		return s.([]*domain.ParticipantDailySnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueries) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestHandler(queries repository.SnapshotQueries) *Handler {
	gin.SetMode(gin.TestMode)
	return NewHandler(queries, zap.NewNop())
}

func TestGetCampaignSnapshotByDate(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	queries := new(mockQueries)
	queries.On("CampaignSnapshot", mock.Anything, "camp-1", day).Return(&domain.CampaignDailySnapshot{
		CampaignID:   "camp-1",
		CreatorID:    "creator-1",
		Date:         day,
		TotalNumbers: 100,
		SoldNumbers:  40,
		TotalRevenue: 20000,
	}, nil)

	h := newTestHandler(queries)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/camp-1/snapshots?date=2026-03-10", nil)
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CampaignSnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "camp-1", resp.CampaignID)
	assert.Equal(t, "2026-03-10", resp.Date)
	assert.Equal(t, 40, resp.SoldNumbers)
	assert.Equal(t, int64(20000), resp.TotalRevenue)
}

func TestGetCampaignSnapshotNotFound(t *testing.T) {
	queries := new(mockQueries)
	queries.On("CampaignSnapshot", mock.Anything, "camp-x", mock.Anything).Return(nil, repository.ErrSnapshotNotFound)

	h := newTestHandler(queries)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/camp-x/snapshots?date=2026-03-10", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCampaignSnapshotBadDate(t *testing.T) {
	h := newTestHandler(new(mockQueries))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/camp-1/snapshots?date=10-03-2026", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCreatorSnapshotRange(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	queries := new(mockQueries)
	queries.On("CreatorSnapshotRange", mock.Anything, "creator-1", from, to).Return([]*domain.CreatorDailySnapshot{
		{CreatorID: "creator-1", Date: from, TotalRevenue: 100},
		{CreatorID: "creator-1", Date: to, TotalRevenue: 300},
	}, nil)

	h := newTestHandler(queries)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/creators/creator-1/snapshots?from=2026-03-01&to=2026-03-03", nil)
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []dto.CreatorSnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "2026-03-01", resp[0].Date)
	assert.Equal(t, int64(300), resp[1].TotalRevenue)
}

func TestGetCreatorSnapshotRangeInverted(t *testing.T) {
	h := newTestHandler(new(mockQueries))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/creators/creator-1/snapshots?from=2026-03-05&to=2026-03-01", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetParticipantSnapshotByDate(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	queries := new(mockQueries)
	queries.On("ParticipantSnapshot", mock.Anything, "user-1", day).Return(&domain.ParticipantDailySnapshot{
		UserID:             "user-1",
		Date:               day,
		ParticipationCount: 4,
		TotalSpent:         2000,
		AvgTicketValue:     500,
	}, nil)

	h := newTestHandler(queries)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/participants/user-1/snapshots?date=2026-03-10", nil)
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ParticipantSnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.ParticipationCount)
	assert.InDelta(t, 500.0, resp.AvgTicketValue, 0.001)
	assert.NotNil(t, resp.TopCampaigns)
}

func TestHealthCheck(t *testing.T) {
	queries := new(mockQueries)
	queries.On("Ping", mock.Anything).Return(nil)

	h := newTestHandler(queries)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
