package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vortex-market/vortex-dao/src/gov/engine"
	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// Memory is a mutex-guarded in-memory store with the same atomicity
// semantics as the MySQL store. It backs tests and local development.
type Memory struct {
	mu        sync.Mutex
	nextID    uint64
	proposals map[uint64]*types.Proposal
	votes     map[string]*types.Vote
}

func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		proposals: make(map[uint64]*types.Proposal),
		votes:     make(map[string]*types.Vote),
	}
}

func voteKey(proposalID uint64, voterID string) string {
	return fmt.Sprintf("%d/%s", proposalID, voterID)
}

func (s *Memory) CreateProposal(_ context.Context, p *types.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	cp := *p
	s.proposals[p.ID] = &cp
	return nil
}

func (s *Memory) GetProposal(_ context.Context, id uint64) (*types.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: proposal %d", engine.ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (s *Memory) ListProposals(_ context.Context, status string) ([]types.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Memory) HasVote(_ context.Context, proposalID uint64, voterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.votes[voteKey(proposalID, voterID)]
	return ok, nil
}

func (s *Memory) RecordVote(_ context.Context, v *types.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey(v.ProposalID, v.VoterID)
	if _, ok := s.votes[key]; ok {
		return fmt.Errorf("%w: %s on proposal %d", engine.ErrAlreadyVoted, v.VoterID, v.ProposalID)
	}
	p, ok := s.proposals[v.ProposalID]
	if !ok {
		return fmt.Errorf("%w: proposal %d", engine.ErrNotFound, v.ProposalID)
	}
	if p.Status != types.StatusActive {
		return fmt.Errorf("%w: proposal %d no longer active", engine.ErrVotingClosed, v.ProposalID)
	}

	cp := *v
	s.votes[key] = &cp
	switch v.Choice {
	case types.ChoiceYes:
		p.YesVotes += v.VotingPower
	case types.ChoiceNo:
		p.NoVotes += v.VotingPower
	default:
		p.AbstainVotes += v.VotingPower
	}
	p.TotalVotes += v.VotingPower
	return nil
}

func (s *Memory) FinalizeProposal(_ context.Context, id uint64, status, reason string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return false, fmt.Errorf("%w: proposal %d", engine.ErrNotFound, id)
	}
	if p.Status != types.StatusActive {
		return false, nil
	}
	p.Status = status
	p.FinalizationReason = reason
	t := at
	p.FinalizedAt = &t
	return true, nil
}

func (s *Memory) DueProposals(_ context.Context, now time.Time) ([]types.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Proposal
	for _, p := range s.proposals {
		if p.Status == types.StatusActive && p.VotingEndsAt.Before(now) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
