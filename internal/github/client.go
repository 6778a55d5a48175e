package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/repoinsight/repoinsight/internal/models"
)

const defaultBaseURL = "https://api.github.com"

// RateLimitInfo holds information about GitHub API rate limits
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetTime time.Time
	// Add secondary rate limit info
	SecondaryLimitRemaining int
	SecondaryLimitReset     time.Time
}

// GitHubClient represents a client for interacting with the GitHub API
type GitHubClient struct {
	client        *http.Client
	baseURL       string
	token         string
	logger        *logrus.Logger
	rateLimitInfo RateLimitInfo
	// Add backoff configuration
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ClientOption allows configuring the GitHub client
type ClientOption func(*GitHubClient)

// WithRetryConfig configures retry behavior
func WithRetryConfig(maxRetries int, initialBackoff, maxBackoff time.Duration) ClientOption {
	return func(c *GitHubClient) {
		c.maxRetries = maxRetries
		c.initialBackoff = initialBackoff
		c.maxBackoff = maxBackoff
	}
}

// WithBaseURL points the client at a different API root (used by tests)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *GitHubClient) {
		c.baseURL = baseURL
	}
}

// NewGitHubClient creates a new GitHub client with the given token and options
func NewGitHubClient(token string, logger *logrus.Logger, opts ...ClientOption) *GitHubClient {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = 120 * time.Second

	client := &GitHubClient{
		client:         httpClient,
		baseURL:        defaultBaseURL,
		token:          token,
		logger:         logger,
		maxRetries:     3,
		initialBackoff: time.Second,
		maxBackoff:     time.Minute,
	}

	// Apply options
	for _, opt := range opts {
		opt(client)
	}

	return client
}

// updateRateLimitInfo updates the rate limit information from response headers
func (c *GitHubClient) updateRateLimitInfo(resp *http.Response) {
	if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "" {
		c.rateLimitInfo.Limit, _ = strconv.Atoi(limit)
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		c.rateLimitInfo.Remaining, _ = strconv.Atoi(remaining)
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if resetTime, err := strconv.ParseInt(reset, 10, 64); err == nil {
			c.rateLimitInfo.ResetTime = time.Unix(resetTime, 0)
		}
	}

	// Handle secondary rate limits
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if retrySeconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
			c.rateLimitInfo.SecondaryLimitReset = time.Now().Add(time.Duration(retrySeconds) * time.Second)
		}
	}
}

// checkRateLimit checks if we're about to hit rate limits and handles accordingly
func (c *GitHubClient) checkRateLimit() error {
	now := time.Now()

	// Check primary rate limit
	if c.rateLimitInfo.Remaining <= 5 && !c.rateLimitInfo.ResetTime.IsZero() { // Buffer of 5 requests
		waitTime := time.Until(c.rateLimitInfo.ResetTime)
		if waitTime > 0 {
			c.logger.Warnf("Primary rate limit nearly exceeded. Waiting %v before next request", waitTime)
			time.Sleep(waitTime)
		}
	}

	// Check secondary rate limit
	if !c.rateLimitInfo.SecondaryLimitReset.IsZero() && now.Before(c.rateLimitInfo.SecondaryLimitReset) {
		waitTime := time.Until(c.rateLimitInfo.SecondaryLimitReset)
		c.logger.Warnf("Secondary rate limit active. Waiting %v before next request", waitTime)
		time.Sleep(waitTime)
	}

	return nil
}

// doRequestWithBackoff performs an HTTP request with exponential backoff
func (c *GitHubClient) doRequestWithBackoff(req *http.Request, result interface{}) error {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.checkRateLimit(); err != nil {
			return err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = NewGitHubError(0, "request failed", err)
			c.logger.Warnf("Request attempt %d failed: %v", attempt+1, err)
			time.Sleep(backoff)
			backoff = time.Duration(math.Min(float64(backoff*2), float64(c.maxBackoff)))
			continue
		}

		c.updateRateLimitInfo(resp)

		// Handle rate limit responses
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = NewRateLimitError(c.rateLimitInfo.ResetTime, c.rateLimitInfo.Limit, c.rateLimitInfo.Remaining)
			resetTime := c.rateLimitInfo.ResetTime
			if !c.rateLimitInfo.SecondaryLimitReset.IsZero() {
				resetTime = c.rateLimitInfo.SecondaryLimitReset
			}
			waitTime := time.Until(resetTime)
			if waitTime > 0 && waitTime < c.maxBackoff {
				c.logger.Warnf("Rate limit exceeded. Waiting %v before retry", waitTime)
				time.Sleep(waitTime)
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = NewGitHubError(resp.StatusCode, "failed to read response body", err)
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return NewGitHubError(resp.StatusCode, string(body), nil)
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = NewGitHubError(resp.StatusCode, string(body), nil)
			if resp.StatusCode >= 500 {
				// Retry on server errors
				time.Sleep(backoff)
				backoff = time.Duration(math.Min(float64(backoff*2), float64(c.maxBackoff)))
				continue
			}
			return lastErr
		}

		if result != nil {
			if err := json.Unmarshal(body, result); err != nil {
				return NewGitHubError(resp.StatusCode, "failed to decode response", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetRepositoryByID gets repository information from GitHub by its numeric id
func (c *GitHubClient) GetRepositoryByID(ctx context.Context, id int64) (*models.Repository, error) {
	if id <= 0 {
		return nil, NewValidationError("id", "must be positive")
	}

	url := fmt.Sprintf("%s/repositories/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var repo repositoryResponse
	if err := c.doRequestWithBackoff(req, &repo); err != nil {
		var ghErr *GitHubError
		if errors.As(err, &ghErr) && ghErr.StatusCode == http.StatusNotFound {
			return nil, NewRepositoryNotFoundError(id)
		}
		return nil, err
	}

	return &models.Repository{
		ID:              repo.ID,
		FullName:        repo.FullName,
		Description:     repo.Description,
		URL:             repo.HTMLURL,
		Language:        repo.Language,
		ForksCount:      repo.ForksCount,
		StarsCount:      repo.StargazersCount,
		OpenIssuesCount: repo.OpenIssuesCount,
		WatchersCount:   repo.WatchersCount,
		CreatedAt:       repo.CreatedAt,
		UpdatedAt:       repo.UpdatedAt,
	}, nil
}

// GetCommits gets the most recent commits of a repository, newest first
func (c *GitHubClient) GetCommits(ctx context.Context, owner, name string, limit int) ([]models.Commit, error) {
	if owner == "" {
		return nil, NewValidationError("owner", "cannot be empty")
	}
	if name == "" {
		return nil, NewValidationError("name", "cannot be empty")
	}
	if limit <= 0 || limit > 100 {
		return nil, NewValidationError("limit", "must be between 1 and 100")
	}

	baseURL := fmt.Sprintf("%s/repos/%s/%s/commits", c.baseURL, owner, name)
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var commits []commitResponse
	if err := c.doRequestWithBackoff(req, &commits); err != nil {
		return nil, err
	}

	result := make([]models.Commit, 0, len(commits))
	for _, cm := range commits {
		commit := models.Commit{
			SHA:         cm.SHA,
			Message:     cm.Commit.Message,
			AuthorName:  cm.Commit.Author.Name,
			AuthorEmail: cm.Commit.Author.Email,
			CommittedAt: cm.Commit.Committer.Date,
			CommitURL:   cm.HTMLURL,
		}
		if cm.Author != nil {
			commit.Author = &models.RegisteredIdentity{
				ID:        cm.Author.ID,
				Login:     cm.Author.Login,
				AvatarURL: cm.Author.AvatarURL,
				HTMLURL:   cm.Author.HTMLURL,
			}
		}
		result = append(result, commit)
	}

	return result, nil
}

// GetContributorsPage gets one page of a repository's contributor listing,
// anonymous contributors included
func (c *GitHubClient) GetContributorsPage(ctx context.Context, owner, name string, perPage, page int) ([]models.ContributorRecord, error) {
	if owner == "" {
		return nil, NewValidationError("owner", "cannot be empty")
	}
	if name == "" {
		return nil, NewValidationError("name", "cannot be empty")
	}
	if page < 1 {
		return nil, NewValidationError("page", "must be 1-based")
	}

	baseURL := fmt.Sprintf("%s/repos/%s/%s/contributors", c.baseURL, owner, name)
	query := url.Values{}
	query.Set("anon", "1")
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var contributors []contributorResponse
	if err := c.doRequestWithBackoff(req, &contributors); err != nil {
		return nil, err
	}

	result := make([]models.ContributorRecord, 0, len(contributors))
	for _, cr := range contributors {
		record := models.ContributorRecord{Contributions: cr.Contributions}
		if cr.Type == "Anonymous" {
			record.Anonymous = &models.AnonymousIdentity{
				Email: cr.Email,
				Name:  cr.Name,
			}
		} else {
			record.Registered = &models.RegisteredIdentity{
				ID:        cr.ID,
				Login:     cr.Login,
				AvatarURL: cr.AvatarURL,
				HTMLURL:   cr.HTMLURL,
			}
		}
		result = append(result, record)
	}

	return result, nil
}

// GetLanguages gets the language byte counts of a repository
func (c *GitHubClient) GetLanguages(ctx context.Context, owner, name string) (map[string]int64, error) {
	if owner == "" {
		return nil, NewValidationError("owner", "cannot be empty")
	}
	if name == "" {
		return nil, NewValidationError("name", "cannot be empty")
	}

	url := fmt.Sprintf("%s/repos/%s/%s/languages", c.baseURL, owner, name)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	languages := make(map[string]int64)
	if err := c.doRequestWithBackoff(req, &languages); err != nil {
		return nil, err
	}

	return languages, nil
}
