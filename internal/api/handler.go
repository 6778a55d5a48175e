package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/repoinsight/repoinsight/internal/analytics"
	"github.com/repoinsight/repoinsight/internal/github"
	"github.com/repoinsight/repoinsight/internal/models"
)

// InsightService is the engine surface the API depends on.
type InsightService interface {
	Insights(ctx context.Context, repoID int64) (*models.RepositoryInsights, error)
	Status() analytics.Snapshot
}

// ErrorResponse is the JSON error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse reports the orchestrator's published state
type StatusResponse struct {
	RepositoryID int64  `json:"repository_id"`
	State        string `json:"state"`
	Error        string `json:"error,omitempty"`
}

type Handler struct {
	insights InsightService
	logger   *logrus.Logger
}

func NewHandler(insights InsightService, logger *logrus.Logger) *Handler {
	return &Handler{
		insights: insights,
		logger:   logger,
	}
}

// GetInsights returns the full derived dashboard document for a repository
func (h *Handler) GetInsights(c *gin.Context) {
	insights, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, insights)
}

// GetContributors returns the merged, de-duplicated contributor collection
func (h *Handler) GetContributors(c *gin.Context) {
	insights, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, insights.Contributors)
}

// GetImpact returns the ranked recent-impact entries
func (h *Handler) GetImpact(c *gin.Context) {
	insights, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, insights.Impact)
}

// GetTimeline returns the per-day commit-count series
func (h *Handler) GetTimeline(c *gin.Context) {
	insights, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, insights.Timeline)
}

// GetLanguages returns the ranked language shares
func (h *Handler) GetLanguages(c *gin.Context) {
	insights, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, insights.Languages)
}

// GetStatus reports the state of the most recent fetch cycle
func (h *Handler) GetStatus(c *gin.Context) {
	snap := h.insights.Status()
	resp := StatusResponse{
		RepositoryID: snap.RepositoryID,
		State:        string(snap.State),
	}
	if snap.Error != nil {
		resp.Error = snap.Error.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) load(c *gin.Context) (*models.RepositoryInsights, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid repository ID"})
		return nil, false
	}

	insights, err := h.insights.Insights(c.Request.Context(), id)
	if err != nil {
		h.respondWithFetchError(c, id, err)
		return nil, false
	}

	return insights, true
}

func (h *Handler) respondWithFetchError(c *gin.Context, id int64, err error) {
	switch {
	case github.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Repository not found"})
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.WithField("repository_id", id).Errorf("Fetch cycle failed: %v", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to fetch repository data"})
	}
}

func isValidationError(err error) bool {
	var ve *github.ValidationError
	return errors.As(err, &ve)
}
