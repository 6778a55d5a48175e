package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/repoinsight/repoinsight/internal/github"
	"github.com/repoinsight/repoinsight/internal/models"
	"github.com/repoinsight/repoinsight/pkg/utils"
)

// State is the fetch cycle state published to the rendering collaborator.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateNotFound State = "not_found"
	StateFailed   State = "failed"
)

// Snapshot is the engine's published state for the most recent fetch
// cycle. Error holds the cycle's failure for StateFailed/StateNotFound.
type Snapshot struct {
	RepositoryID int64
	State        State
	Insights     *models.RepositoryInsights
	Error        error
}

// DataSource is the external read-only source the engine consumes.
type DataSource interface {
	GetRepositoryByID(ctx context.Context, id int64) (*models.Repository, error)
	GetCommits(ctx context.Context, owner, name string, limit int) ([]models.Commit, error)
	GetContributorsPage(ctx context.Context, owner, name string, perPage, page int) ([]models.ContributorRecord, error)
	GetLanguages(ctx context.Context, owner, name string) (map[string]int64, error)
}

// Options bound the fetch cycle's reads.
type Options struct {
	CommitWindowSize    int
	ContributorPageSize int
	ContributorMaxPages int
}

// DefaultOptions returns the default fetch bounds
func DefaultOptions() Options {
	return Options{
		CommitWindowSize:    100,
		ContributorPageSize: DefaultContributorPageSize,
		ContributorMaxPages: DefaultContributorMaxPages,
	}
}

// Service is the fetch orchestrator. It sequences the external reads for
// one repository, runs the aggregation components over the results, and
// publishes the derived document. All mutation is confined to the cycle
// driving it; a generation counter suppresses stale publications when a
// newer cycle has started.
type Service struct {
	source DataSource
	logger *logrus.Logger
	opts   Options

	mu         sync.RWMutex
	generation uint64
	current    Snapshot
}

// NewService creates a fetch orchestrator over the given data source
func NewService(source DataSource, logger *logrus.Logger, opts Options) *Service {
	if opts.CommitWindowSize <= 0 || opts.CommitWindowSize > 100 {
		opts.CommitWindowSize = 100
	}
	if opts.ContributorPageSize <= 0 {
		opts.ContributorPageSize = DefaultContributorPageSize
	}
	if opts.ContributorMaxPages <= 0 {
		opts.ContributorMaxPages = DefaultContributorMaxPages
	}
	return &Service{
		source:  source,
		logger:  logger,
		opts:    opts,
		current: Snapshot{State: StateIdle},
	}
}

// Status returns the currently published snapshot.
func (s *Service) Status() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Insights returns the derived document for a repository, reusing the
// published snapshot when it is Ready for the same id and running a fresh
// fetch cycle otherwise. Failed and not-found cycles are not cached: a
// revisit re-triggers the cycle.
func (s *Service) Insights(ctx context.Context, repoID int64) (*models.RepositoryInsights, error) {
	s.mu.RLock()
	if s.current.State == StateReady && s.current.RepositoryID == repoID {
		insights := s.current.Insights
		s.mu.RUnlock()
		return insights, nil
	}
	s.mu.RUnlock()

	return s.Load(ctx, repoID)
}

// Load runs one full fetch cycle for a repository: metadata first, then
// the commit window, the contributor pagination loop, and the language
// map with no mutual ordering, then the aggregation components
// synchronously before the terminal state is published. The computed
// document is returned to the caller either way; publication is skipped
// when a newer cycle superseded this one.
func (s *Service) Load(ctx context.Context, repoID int64) (*models.RepositoryInsights, error) {
	gen := s.begin(repoID)

	logger := s.logger.WithFields(logrus.Fields{
		"repository_id": repoID,
		"generation":    gen,
	})
	logger.Info("Starting fetch cycle")

	repo, err := s.source.GetRepositoryByID(ctx, repoID)
	if err != nil {
		state := StateFailed
		if github.IsNotFound(err) {
			state = StateNotFound
		}
		s.publish(gen, Snapshot{RepositoryID: repoID, State: state, Error: err})
		logger.WithError(err).Warn("Fetch cycle ended before repository metadata resolved")
		return nil, err
	}

	owner, name, err := utils.SplitFullName(repo.FullName)
	if err != nil {
		err = fmt.Errorf("unusable repository metadata: %w", err)
		s.publish(gen, Snapshot{RepositoryID: repoID, State: StateFailed, Error: err})
		return nil, err
	}

	var (
		commits      []models.Commit
		contributors []models.ContributorRecord
		languages    map[string]int64
	)

	// The commit window, the contributor loop, and the language map have
	// no ordering dependency on each other; the contributor loop's own
	// pages remain strictly sequential inside MergeContributors.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		commits, err = s.source.GetCommits(gctx, owner, name, s.opts.CommitWindowSize)
		return err
	})
	g.Go(func() error {
		var err error
		contributors, err = MergeContributors(gctx, func(ctx context.Context, perPage, page int) ([]models.ContributorRecord, error) {
			return s.source.GetContributorsPage(ctx, owner, name, perPage, page)
		}, s.opts.ContributorPageSize, s.opts.ContributorMaxPages)
		return err
	})
	g.Go(func() error {
		var err error
		languages, err = s.source.GetLanguages(gctx, owner, name)
		return err
	})

	if err := g.Wait(); err != nil {
		s.publish(gen, Snapshot{RepositoryID: repoID, State: StateFailed, Error: err})
		logger.WithError(err).Error("Fetch cycle failed")
		return nil, err
	}

	insights := &models.RepositoryInsights{
		Repository:   repo,
		Contributors: contributors,
		Impact:       AggregateImpact(commits),
		Timeline:     BucketizeCommits(commits),
		Languages:    NormalizeLanguages(languages),
		FetchedAt:    time.Now().UTC(),
	}

	if !s.publish(gen, Snapshot{RepositoryID: repoID, State: StateReady, Insights: insights}) {
		logger.Info("Fetch cycle superseded; result not published")
		return insights, nil
	}

	logger.WithFields(logrus.Fields{
		"commits":      len(commits),
		"contributors": len(contributors),
		"languages":    len(insights.Languages),
	}).Info("Fetch cycle completed")

	return insights, nil
}

// begin starts a new cycle generation and publishes the Loading state.
func (s *Service) begin(repoID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.current = Snapshot{RepositoryID: repoID, State: StateLoading}
	return s.generation
}

// publish installs a snapshot unless a newer cycle has started since gen.
// A slow, superseded fetch must not overwrite state belonging to a newer
// repository id.
func (s *Service) publish(gen uint64, snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.current = snap
	return true
}
