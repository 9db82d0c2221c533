package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/metrics"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
)

type ElectionStore interface {
	Create(ctx context.Context, e *model.Election) error
	Get(ctx context.Context, tenantID, id uint64) (model.Election, error)
	CreateCandidate(ctx context.Context, c *model.Candidate) error
	GetCandidate(ctx context.Context, id uint64) (model.Candidate, error)
	ListCandidates(ctx context.Context, electionID uint64) ([]model.Candidate, error)
	CreateVote(ctx context.Context, v *model.Vote) error
	CountVotes(ctx context.Context, electionID uint64) (map[uint64]int64, error)
	CreatePosition(ctx context.Context, p *model.Position) error
	GetPosition(ctx context.Context, tenantID, id uint64) (model.Position, error)
	ListPositions(ctx context.Context, tenantID uint64, page repository.Page) ([]model.Position, error)
}

type ElectionService struct {
	store   ElectionStore
	metrics *metrics.Metrics
	clock   clock.Clock
}

func NewElectionService(store ElectionStore, m *metrics.Metrics, clk clock.Clock) *ElectionService {
	return &ElectionService{store: store, metrics: m, clock: clk}
}

func (s *ElectionService) CreateElection(ctx context.Context, e *model.Election) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return invalid("title", "is required")
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return invalid("start_date", "start_date and end_date are required")
	}
	if !e.EndDate.After(e.StartDate) {
		return invalid("end_date", "must be after start_date")
	}
	if e.PositionID != nil {
		_, err := s.store.GetPosition(ctx, e.TenantID, *e.PositionID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPositionNotFound
		}
		if err != nil {
			return err
		}
	}
	return s.store.Create(ctx, e)
}

// CreatePosition adds a board role elections can be held for. Titles are
// unique within a tenant.
func (s *ElectionService) CreatePosition(ctx context.Context, p *model.Position) error {
	p.Title = strings.TrimSpace(p.Title)
	p.TermLength = strings.TrimSpace(p.TermLength)
	if p.Title == "" {
		return invalid("title", "is required")
	}
	err := s.store.CreatePosition(ctx, p)
	if errors.Is(err, repository.ErrConflict) {
		return ErrPositionExists
	}
	return err
}

func (s *ElectionService) ListPositions(ctx context.Context, tenantID uint64, page repository.Page) ([]model.Position, error) {
	return s.store.ListPositions(ctx, tenantID, page)
}

func (s *ElectionService) AddCandidate(ctx context.Context, tenantID uint64, c *model.Candidate) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("name", "is required")
	}
	if _, err := s.election(ctx, tenantID, c.ElectionID); err != nil {
		return err
	}
	return s.store.CreateCandidate(ctx, c)
}

// CastVote records userID's vote for candidateID. A user votes at most once
// per election; a second attempt leaves the counts untouched.
func (s *ElectionService) CastVote(ctx context.Context, tenantID, electionID, userID, candidateID uint64) (model.Vote, error) {
	e, err := s.election(ctx, tenantID, electionID)
	if err != nil {
		return model.Vote{}, err
	}
	if !e.Open(s.clock.Now()) {
		return model.Vote{}, ErrElectionClosed
	}
	c, err := s.store.GetCandidate(ctx, candidateID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Vote{}, ErrCandidateNotFound
	}
	if err != nil {
		return model.Vote{}, err
	}
	if c.ElectionID != e.ID {
		return model.Vote{}, ErrCandidateMismatch
	}

	v := model.Vote{ElectionID: e.ID, CandidateID: c.ID, UserID: userID}
	if err := s.store.CreateVote(ctx, &v); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Vote{}, ErrAlreadyVoted
		}
		return model.Vote{}, err
	}
	s.metrics.VoteCast()
	logger.FromContext(ctx).Info("vote cast",
		zap.Uint64("tenant_id", tenantID), zap.Uint64("election_id", e.ID))
	return v, nil
}

// Results returns the per-candidate tally of an election.
func (s *ElectionService) Results(ctx context.Context, tenantID, electionID uint64) (model.ElectionResults, error) {
	e, err := s.election(ctx, tenantID, electionID)
	if err != nil {
		return model.ElectionResults{}, err
	}
	candidates, err := s.store.ListCandidates(ctx, e.ID)
	if err != nil {
		return model.ElectionResults{}, err
	}
	counts, err := s.store.CountVotes(ctx, e.ID)
	if err != nil {
		return model.ElectionResults{}, err
	}
	entries := Tally(candidates, counts)
	var total int64
	for _, r := range entries {
		total += r.VoteCount
	}
	return model.ElectionResults{ElectionID: e.ID, Title: e.Title, TotalVotes: total, Results: entries}, nil
}

// Tally lists every candidate exactly once, in the given order, with its
// vote count. Candidates without votes get zero. Ties are left as they are.
func Tally(candidates []model.Candidate, counts map[uint64]int64) []model.TallyEntry {
	out := make([]model.TallyEntry, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, model.TallyEntry{CandidateID: c.ID, Name: c.Name, VoteCount: counts[c.ID]})
	}
	return out
}

func (s *ElectionService) election(ctx context.Context, tenantID, id uint64) (model.Election, error) {
	e, err := s.store.Get(ctx, tenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Election{}, ErrElectionNotFound
	}
	return e, err
}
