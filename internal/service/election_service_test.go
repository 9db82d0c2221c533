package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/testutil"
)

func TestTallyIncludesCandidatesWithoutVotes(t *testing.T) {
	candidates := []model.Candidate{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	got := Tally(candidates, map[uint64]int64{1: 2})

	assert.Equal(t, []model.TallyEntry{
		{CandidateID: 1, Name: "A", VoteCount: 2},
		{CandidateID: 2, Name: "B", VoteCount: 0},
	}, got)
}

func TestTallyIgnoresVotesForUnknownCandidates(t *testing.T) {
	got := Tally([]model.Candidate{{ID: 1, Name: "A"}}, map[uint64]int64{1: 1, 7: 4})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].VoteCount)
}

func newElectionFixture(t *testing.T) (*fixture, *ElectionService, model.Election) {
	t.Helper()
	f := newFixture(t)
	svc := NewElectionService(repository.NewElectionRepo(f.db), f.metrics, clock.NewFixed(f.now))
	e := model.Election{
		TenantID:  f.tenantID,
		Title:     "Board 2026",
		StartDate: f.now.Add(-time.Hour),
		EndDate:   f.now.Add(time.Hour),
		IsActive:  true,
	}
	require.NoError(t, svc.CreateElection(context.Background(), &e))
	return f, svc, e
}

func TestCastVoteAndResults(t *testing.T) {
	f, svc, e := newElectionFixture(t)
	ctx := context.Background()

	a := model.Candidate{ElectionID: e.ID, Name: "A"}
	b := model.Candidate{ElectionID: e.ID, Name: "B"}
	require.NoError(t, svc.AddCandidate(ctx, f.tenantID, &a))
	require.NoError(t, svc.AddCandidate(ctx, f.tenantID, &b))

	for _, email := range []string{"v1@example.org", "v2@example.org"} {
		_, err := svc.CastVote(ctx, f.tenantID, e.ID, f.user(t, email).ID, a.ID)
		require.NoError(t, err)
	}

	res, err := svc.Results(ctx, f.tenantID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalVotes)
	assert.Equal(t, []model.TallyEntry{
		{CandidateID: a.ID, Name: "A", VoteCount: 2},
		{CandidateID: b.ID, Name: "B", VoteCount: 0},
	}, res.Results)
}

func TestSecondVoteRejected(t *testing.T) {
	f, svc, e := newElectionFixture(t)
	ctx := context.Background()
	a := model.Candidate{ElectionID: e.ID, Name: "A"}
	b := model.Candidate{ElectionID: e.ID, Name: "B"}
	require.NoError(t, svc.AddCandidate(ctx, f.tenantID, &a))
	require.NoError(t, svc.AddCandidate(ctx, f.tenantID, &b))
	voter := f.user(t, "v@example.org")

	_, err := svc.CastVote(ctx, f.tenantID, e.ID, voter.ID, a.ID)
	require.NoError(t, err)
	_, err = svc.CastVote(ctx, f.tenantID, e.ID, voter.ID, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	res, err := svc.Results(ctx, f.tenantID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TotalVotes)
	assert.Equal(t, int64(1), res.Results[0].VoteCount)
	assert.Equal(t, int64(0), res.Results[1].VoteCount)
}

func TestCastVoteRules(t *testing.T) {
	f, svc, e := newElectionFixture(t)
	ctx := context.Background()
	voter := f.user(t, "v@example.org")

	other := model.Election{TenantID: f.tenantID, Title: "Other", StartDate: e.StartDate, EndDate: e.EndDate, IsActive: true}
	require.NoError(t, svc.CreateElection(ctx, &other))
	foreign := model.Candidate{ElectionID: other.ID, Name: "X"}
	require.NoError(t, svc.AddCandidate(ctx, f.tenantID, &foreign))

	_, err := svc.CastVote(ctx, f.tenantID, e.ID, voter.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrCandidateMismatch)

	_, err = svc.CastVote(ctx, f.tenantID, e.ID, voter.ID, 9999)
	assert.ErrorIs(t, err, ErrCandidateNotFound)

	_, err = svc.CastVote(ctx, f.tenantID, 9999, voter.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrElectionNotFound)

	closed := model.Election{TenantID: f.tenantID, Title: "Past", StartDate: f.now.Add(-48 * time.Hour), EndDate: f.now.Add(-24 * time.Hour), IsActive: true}
	require.NoError(t, svc.CreateElection(ctx, &closed))
	c := model.Candidate{ElectionID: closed.ID, Name: "Late"}
	require.NoError(t, svc.AddCandidate(ctx, f.tenantID, &c))
	_, err = svc.CastVote(ctx, f.tenantID, closed.ID, voter.ID, c.ID)
	assert.ErrorIs(t, err, ErrElectionClosed)
}

func TestCreateElectionValidation(t *testing.T) {
	f, svc, _ := newElectionFixture(t)
	err := svc.CreateElection(context.Background(), &model.Election{TenantID: f.tenantID, Title: "x", StartDate: f.now, EndDate: f.now})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_date", verr.Field)
}

func TestPositionsAndElectionForPosition(t *testing.T) {
	f, svc, _ := newElectionFixture(t)
	ctx := context.Background()

	var verr *ValidationError
	require.ErrorAs(t, svc.CreatePosition(ctx, &model.Position{TenantID: f.tenantID, Title: "  "}), &verr)

	chair := model.Position{TenantID: f.tenantID, Title: "Chair", IsExecutive: true}
	require.NoError(t, svc.CreatePosition(ctx, &chair))
	assert.ErrorIs(t, svc.CreatePosition(ctx, &model.Position{TenantID: f.tenantID, Title: "Chair"}), ErrPositionExists)

	list, err := svc.ListPositions(ctx, f.tenantID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	e := model.Election{TenantID: f.tenantID, Title: "Chair 2026", StartDate: f.now, EndDate: f.now.Add(time.Hour), PositionID: &chair.ID}
	require.NoError(t, svc.CreateElection(ctx, &e))

	other := testutil.InsertTenant(t, f.db, "other", model.PlanProfessional)
	foreign := model.Election{TenantID: other, Title: "Takeover", StartDate: f.now, EndDate: f.now.Add(time.Hour), PositionID: &chair.ID}
	assert.ErrorIs(t, svc.CreateElection(ctx, &foreign), ErrPositionNotFound)
}
