package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoinsight/repoinsight/internal/github"
	"github.com/repoinsight/repoinsight/internal/models"
)

type fakeSource struct {
	getRepository   func(ctx context.Context, id int64) (*models.Repository, error)
	getCommits      func(ctx context.Context, owner, name string, limit int) ([]models.Commit, error)
	getContributors func(ctx context.Context, owner, name string, perPage, page int) ([]models.ContributorRecord, error)
	getLanguages    func(ctx context.Context, owner, name string) (map[string]int64, error)
}

func (f *fakeSource) GetRepositoryByID(ctx context.Context, id int64) (*models.Repository, error) {
	if f.getRepository != nil {
		return f.getRepository(ctx, id)
	}
	return &models.Repository{ID: id, FullName: fmt.Sprintf("owner/repo-%d", id)}, nil
}

func (f *fakeSource) GetCommits(ctx context.Context, owner, name string, limit int) ([]models.Commit, error) {
	if f.getCommits != nil {
		return f.getCommits(ctx, owner, name, limit)
	}
	return []models.Commit{
		{
			SHA:         "abc",
			Author:      &models.RegisteredIdentity{ID: 1, Login: "octocat"},
			CommittedAt: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
		},
	}, nil
}

func (f *fakeSource) GetContributorsPage(ctx context.Context, owner, name string, perPage, page int) ([]models.ContributorRecord, error) {
	if f.getContributors != nil {
		return f.getContributors(ctx, owner, name, perPage, page)
	}
	return []models.ContributorRecord{
		{Registered: &models.RegisteredIdentity{ID: 1, Login: "octocat"}, Contributions: 12},
	}, nil
}

func (f *fakeSource) GetLanguages(ctx context.Context, owner, name string) (map[string]int64, error) {
	if f.getLanguages != nil {
		return f.getLanguages(ctx, owner, name)
	}
	return map[string]int64{"Go": 1000}, nil
}

func newTestService(source DataSource) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewService(source, logger, DefaultOptions())
}

func TestServiceLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("successful cycle publishes ready", func(t *testing.T) {
		svc := newTestService(&fakeSource{})

		insights, err := svc.Load(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, insights)

		assert.Equal(t, int64(7), insights.Repository.ID)
		assert.Len(t, insights.Contributors, 1)
		assert.Len(t, insights.Impact, 1)
		assert.Len(t, insights.Timeline, 1)
		assert.Len(t, insights.Languages, 1)

		snap := svc.Status()
		assert.Equal(t, StateReady, snap.State)
		assert.Equal(t, int64(7), snap.RepositoryID)
		assert.Equal(t, insights, snap.Insights)
	})

	t.Run("unknown repository publishes not found", func(t *testing.T) {
		svc := newTestService(&fakeSource{
			getRepository: func(ctx context.Context, id int64) (*models.Repository, error) {
				return nil, github.NewRepositoryNotFoundError(id)
			},
		})

		_, err := svc.Load(ctx, 404)
		require.Error(t, err)
		assert.True(t, github.IsNotFound(err))

		snap := svc.Status()
		assert.Equal(t, StateNotFound, snap.State)
		assert.Equal(t, int64(404), snap.RepositoryID)
	})

	t.Run("commit window failure fails the whole cycle", func(t *testing.T) {
		upstream := errors.New("upstream unavailable")
		svc := newTestService(&fakeSource{
			getCommits: func(ctx context.Context, owner, name string, limit int) ([]models.Commit, error) {
				return nil, upstream
			},
		})

		_, err := svc.Load(ctx, 7)
		require.Error(t, err)
		assert.ErrorIs(t, err, upstream)

		snap := svc.Status()
		assert.Equal(t, StateFailed, snap.State)
		assert.Nil(t, snap.Insights)
	})

	t.Run("contributor page failure fails the whole cycle", func(t *testing.T) {
		upstream := errors.New("upstream unavailable")
		svc := newTestService(&fakeSource{
			getContributors: func(ctx context.Context, owner, name string, perPage, page int) ([]models.ContributorRecord, error) {
				return nil, upstream
			},
		})

		_, err := svc.Load(ctx, 7)
		require.Error(t, err)
		assert.Equal(t, StateFailed, svc.Status().State)
	})

	t.Run("bad full name fails the cycle", func(t *testing.T) {
		svc := newTestService(&fakeSource{
			getRepository: func(ctx context.Context, id int64) (*models.Repository, error) {
				return &models.Repository{ID: id, FullName: "no-slash"}, nil
			},
		})

		_, err := svc.Load(ctx, 7)
		require.Error(t, err)
		assert.Equal(t, StateFailed, svc.Status().State)
	})

	t.Run("window bounds are passed to the source", func(t *testing.T) {
		var sawLimit int
		svc := newTestService(&fakeSource{
			getCommits: func(ctx context.Context, owner, name string, limit int) ([]models.Commit, error) {
				sawLimit = limit
				return nil, nil
			},
		})

		_, err := svc.Load(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 100, sawLimit)
	})
}

func TestServiceStaleCycleGuard(t *testing.T) {
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})

	svc := newTestService(&fakeSource{
		getRepository: func(ctx context.Context, id int64) (*models.Repository, error) {
			if id == 2 {
				close(started)
				<-release
			}
			return &models.Repository{ID: id, FullName: fmt.Sprintf("owner/repo-%d", id)}, nil
		},
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Slow cycle for repository 2; its result must be discarded.
		_, _ = svc.Load(ctx, 2)
	}()

	<-started
	_, err := svc.Load(ctx, 5)
	require.NoError(t, err)

	close(release)
	wg.Wait()

	snap := svc.Status()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, int64(5), snap.RepositoryID)
	require.NotNil(t, snap.Insights)
	assert.Equal(t, int64(5), snap.Insights.Repository.ID)
}

func TestServiceInsightsReusesReadySnapshot(t *testing.T) {
	ctx := context.Background()

	var repoFetches int
	svc := newTestService(&fakeSource{
		getRepository: func(ctx context.Context, id int64) (*models.Repository, error) {
			repoFetches++
			return &models.Repository{ID: id, FullName: "owner/repo"}, nil
		},
	})

	first, err := svc.Insights(ctx, 7)
	require.NoError(t, err)
	second, err := svc.Insights(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, repoFetches)
	assert.Same(t, first, second)

	// A different id starts a fresh cycle.
	_, err = svc.Insights(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, repoFetches)
	assert.Equal(t, int64(8), svc.Status().RepositoryID)
}
