package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/repoinsight/repoinsight/internal/analytics"
	"github.com/repoinsight/repoinsight/internal/github"
	"github.com/repoinsight/repoinsight/internal/models"
)

// MockInsightService is a mock implementation of InsightService
type MockInsightService struct {
	mock.Mock
}

func (m *MockInsightService) Insights(ctx context.Context, repoID int64) (*models.RepositoryInsights, error) {
	args := m.Called(ctx, repoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepositoryInsights), args.Error(1)
}

func (m *MockInsightService) Status() analytics.Snapshot {
	args := m.Called()
	return args.Get(0).(analytics.Snapshot)
}

func setupTestRouter(svc InsightService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return SetupRouter(NewHandler(svc, logger))
}

func sampleInsights() *models.RepositoryInsights {
	return &models.RepositoryInsights{
		Repository: &models.Repository{ID: 7, FullName: "owner/repo"},
		Contributors: []models.ContributorRecord{
			{Registered: &models.RegisteredIdentity{ID: 1, Login: "octocat"}, Contributions: 12},
		},
		Impact: []models.ImpactEntry{
			{IdentityKey: "user:1", DisplayName: "octocat", CommitCount: 3, Percentage: 100},
		},
		Timeline: []models.TimelineBucket{
			{Date: "2024-01-02", Count: 3},
		},
		Languages: []models.LanguageShare{
			{Name: "Go", Bytes: 1000, Percentage: 100, Size: "0.98 KB"},
		},
		FetchedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetInsights(t *testing.T) {
	t.Run("returns full document", func(t *testing.T) {
		svc := new(MockInsightService)
		svc.On("Insights", mock.Anything, int64(7)).Return(sampleInsights(), nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/repositories/7/insights", nil)
		setupTestRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.RepositoryInsights
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(7), resp.Repository.ID)
		assert.Len(t, resp.Contributors, 1)
		assert.Len(t, resp.Impact, 1)
		svc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockInsightService)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/repositories/not-a-number/insights", nil)
		setupTestRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Insights")
	})

	t.Run("repository not found", func(t *testing.T) {
		svc := new(MockInsightService)
		svc.On("Insights", mock.Anything, int64(404)).Return(nil, github.NewRepositoryNotFoundError(404))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/repositories/404/insights", nil)
		setupTestRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("transient upstream failure", func(t *testing.T) {
		svc := new(MockInsightService)
		svc.On("Insights", mock.Anything, int64(7)).Return(nil, errors.New("upstream unavailable"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/repositories/7/insights", nil)
		setupTestRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Failed to fetch repository data", resp.Error)
	})
}

func TestSectionEndpoints(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"contributors", "/api/v1/repositories/7/contributors"},
		{"impact", "/api/v1/repositories/7/impact"},
		{"timeline", "/api/v1/repositories/7/timeline"},
		{"languages", "/api/v1/repositories/7/languages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockInsightService)
			svc.On("Insights", mock.Anything, int64(7)).Return(sampleInsights(), nil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", tt.path, nil)
			setupTestRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			var resp []json.RawMessage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp, 1)
		})
	}
}

func TestGetStatus(t *testing.T) {
	t.Run("ready state", func(t *testing.T) {
		svc := new(MockInsightService)
		svc.On("Status").Return(analytics.Snapshot{
			RepositoryID: 7,
			State:        analytics.StateReady,
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/repositories/7/status", nil)
		setupTestRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(7), resp.RepositoryID)
		assert.Equal(t, "ready", resp.State)
		assert.Empty(t, resp.Error)
	})

	t.Run("failed state carries the error", func(t *testing.T) {
		svc := new(MockInsightService)
		svc.On("Status").Return(analytics.Snapshot{
			RepositoryID: 7,
			State:        analytics.StateFailed,
			Error:        errors.New("upstream unavailable"),
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/repositories/7/status", nil)
		setupTestRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "failed", resp.State)
		assert.Equal(t, "upstream unavailable", resp.Error)
	})
}

func TestHealthz(t *testing.T) {
	svc := new(MockInsightService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	setupTestRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
