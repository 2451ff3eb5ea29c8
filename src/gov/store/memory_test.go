package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-market/vortex-dao/src/gov/engine"
	"github.com/vortex-market/vortex-dao/src/gov/types"
)

func newProposal(t *testing.T, s *Memory, endsAt time.Time) *types.Proposal {
	t.Helper()
	p := &types.Proposal{
		Title:        "t",
		Description:  "d",
		Type:         types.TypeCustom,
		CreatorID:    "alice",
		Status:       types.StatusActive,
		VotingEndsAt: endsAt,
	}
	require.NoError(t, s.CreateProposal(context.Background(), p))
	return p
}

func TestMemoryGetProposalNotFound(t *testing.T) {
	s := NewMemory()
	_, err := s.GetProposal(context.Background(), 42)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestMemoryRecordVoteAtomicity(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	p := newProposal(t, s, time.Now().Add(time.Hour))

	v := &types.Vote{ProposalID: p.ID, VoterID: "bob", Choice: types.ChoiceYes, VotingPower: 3}
	require.NoError(t, s.RecordVote(ctx, v))

	got, err := s.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.YesVotes)
	assert.Equal(t, 3.0, got.TotalVotes)

	// Duplicate insert fails and leaves the tally untouched.
	err = s.RecordVote(ctx, &types.Vote{ProposalID: p.ID, VoterID: "bob", Choice: types.ChoiceNo, VotingPower: 9})
	assert.ErrorIs(t, err, engine.ErrAlreadyVoted)

	got, err = s.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.TotalVotes)
	assert.Zero(t, got.NoVotes)
}

func TestMemoryRecordVoteOnTerminalProposal(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	p := newProposal(t, s, time.Now().Add(-time.Hour))

	ok, err := s.FinalizeProposal(ctx, p.ID, types.StatusRejected, types.ReasonQuorumNotMet, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	err = s.RecordVote(ctx, &types.Vote{ProposalID: p.ID, VoterID: "bob", Choice: types.ChoiceYes, VotingPower: 1})
	assert.ErrorIs(t, err, engine.ErrVotingClosed)

	// The failed cast must not leave a vote row behind.
	voted, err := s.HasVote(ctx, p.ID, "bob")
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestMemoryFinalizeProposalConditional(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	p := newProposal(t, s, time.Now().Add(-time.Hour))

	at := time.Now()
	ok, err := s.FinalizeProposal(ctx, p.ID, types.StatusApproved, types.ReasonMajorityApproval, at)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second transition no-ops and must not overwrite the first outcome.
	ok, err = s.FinalizeProposal(ctx, p.ID, types.StatusRejected, types.ReasonMajorityRejection, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, got.Status)
	assert.Equal(t, types.ReasonMajorityApproval, got.FinalizationReason)
	require.NotNil(t, got.FinalizedAt)
	assert.True(t, got.FinalizedAt.Equal(at))
}

func TestMemoryDueProposals(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Now()

	past := newProposal(t, s, now.Add(-time.Minute))
	newProposal(t, s, now.Add(time.Hour))
	terminal := newProposal(t, s, now.Add(-time.Hour))
	_, err := s.FinalizeProposal(ctx, terminal.ID, types.StatusRejected, types.ReasonQuorumNotMet, now)
	require.NoError(t, err)

	due, err := s.DueProposals(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, past.ID, due[0].ID)
}

func TestMemoryListProposals(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Now()

	newProposal(t, s, now.Add(time.Hour))
	p2 := newProposal(t, s, now.Add(time.Hour))

	all, err := s.ListProposals(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first, matching the SQL ordering.
	assert.Equal(t, p2.ID, all[0].ID)

	approved, err := s.ListProposals(ctx, types.StatusApproved)
	require.NoError(t, err)
	assert.Empty(t, approved)
}
