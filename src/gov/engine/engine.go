package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// Config is the governance policy, passed in at construction so tests can
// vary it per case.
type Config struct {
	VotingPeriod     time.Duration
	QuorumThreshold  float64
	Strategy         string
	MinProposeTokens float64
	MinVoteTokens    float64
}

// DefaultConfig mirrors the marketplace defaults: a 7 day window, quorum of
// 100 weight units, token weighted voting.
func DefaultConfig() Config {
	return Config{
		VotingPeriod:     7 * 24 * time.Hour,
		QuorumThreshold:  100,
		Strategy:         StrategyTokenWeighted,
		MinProposeTokens: 100,
		MinVoteTokens:    1,
	}
}

// Executor applies the side effect of an approved proposal. Failures must be
// handled internally; the proposal is already durably approved when Execute
// runs.
type Executor interface {
	Execute(ctx context.Context, p *types.Proposal) error
}

// MirrorQueue receives best-effort audit events after local state has
// committed. Enqueue calls must never block the caller.
type MirrorQueue interface {
	EnqueueProposal(p *types.Proposal)
	EnqueueVote(proposalID uint64, voterID, choice string, power float64)
	EnqueueExecution(proposalID uint64)
}

// FinalizationResult reports the terminal outcome of one proposal.
type FinalizationResult struct {
	ProposalID uint64 `json:"proposal_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
}

// Engine orchestrates proposal creation, vote casting and finalization
// against a single authoritative store.
type Engine struct {
	cfg    Config
	store  Store
	caps   CapabilityProvider
	exec   Executor
	mirror MirrorQueue

	// Now is the clock; tests overwrite it.
	Now func() time.Time
}

func New(cfg Config, store Store, caps CapabilityProvider, exec Executor, mirror MirrorQueue) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  store,
		caps:   caps,
		exec:   exec,
		mirror: mirror,
		Now:    time.Now,
	}
}

// Propose creates a new active proposal. The creator must either hold the
// propose capability or meet the token threshold.
func (e *Engine) Propose(ctx context.Context, creatorID, title, description, ptype string, rawParams []byte) (*types.Proposal, error) {
	if !e.caps.HasProposeCapability(creatorID) && e.caps.TokenBalance(creatorID) < e.cfg.MinProposeTokens {
		return nil, fmt.Errorf("%w: %s may not propose", ErrIneligible, creatorID)
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrInvalidProposal)
	}
	if _, err := DecodeParameters(ptype, rawParams); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}

	now := e.Now()
	p := &types.Proposal{
		Title:        title,
		Description:  description,
		Type:         ptype,
		CreatorID:    creatorID,
		Parameters:   rawParams,
		Status:       types.StatusActive,
		VotingEndsAt: now.Add(e.cfg.VotingPeriod),
		CreatedAt:    now,
	}
	if err := e.store.CreateProposal(ctx, p); err != nil {
		return nil, err
	}

	if e.mirror != nil {
		e.mirror.EnqueueProposal(p)
	}
	return p, nil
}

// CastVote records one vote for voterID on proposalID. Preconditions are
// checked in order: proposal exists and active, window open, no prior vote,
// voter eligible, choice valid. The vote row and tally increment commit as
// one atomic unit in the store.
func (e *Engine) CastVote(ctx context.Context, voterID string, proposalID uint64, choice string) error {
	p, err := e.store.GetProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if p.Status != types.StatusActive {
		return fmt.Errorf("%w: proposal %d is %s", ErrVotingClosed, proposalID, p.Status)
	}
	now := e.Now()
	// A lapsed window rejects votes even before the finalization scan has
	// moved the proposal out of active.
	if !now.Before(p.VotingEndsAt) {
		return fmt.Errorf("%w: voting ended %s", ErrVotingClosed, p.VotingEndsAt.Format(time.RFC3339))
	}
	voted, err := e.store.HasVote(ctx, proposalID, voterID)
	if err != nil {
		return err
	}
	if voted {
		return fmt.Errorf("%w: %s on proposal %d", ErrAlreadyVoted, voterID, proposalID)
	}
	if !e.caps.HasVoteCapability(voterID) && e.caps.TokenBalance(voterID) < e.cfg.MinVoteTokens {
		return fmt.Errorf("%w: %s may not vote", ErrIneligible, voterID)
	}
	switch choice {
	case types.ChoiceYes, types.ChoiceNo, types.ChoiceAbstain:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVote, choice)
	}

	power := ComputePower(e.caps, voterID, e.cfg.Strategy)
	v := &types.Vote{
		ProposalID:  proposalID,
		VoterID:     voterID,
		Choice:      choice,
		VotingPower: power,
		CastAt:      now,
	}
	// The store's unique (proposal, voter) constraint is the real duplicate
	// guard; the HasVote check above only shortcuts the common case.
	if err := e.store.RecordVote(ctx, v); err != nil {
		return err
	}

	if e.mirror != nil {
		e.mirror.EnqueueVote(proposalID, voterID, choice, power)
	}
	return nil
}

// GetProposal returns one proposal by id.
func (e *Engine) GetProposal(ctx context.Context, id uint64) (*types.Proposal, error) {
	return e.store.GetProposal(ctx, id)
}

// ListProposals returns proposals, optionally filtered by status.
func (e *Engine) ListProposals(ctx context.Context, status string) ([]types.Proposal, error) {
	return e.store.ListProposals(ctx, status)
}

// decide evaluates the frozen tally against the decision rule. A tie on
// yes/no rejects.
func (e *Engine) decide(p *types.Proposal) (status, reason string) {
	switch {
	case p.TotalVotes < e.cfg.QuorumThreshold:
		return types.StatusRejected, types.ReasonQuorumNotMet
	case p.YesVotes > p.NoVotes:
		return types.StatusApproved, types.ReasonMajorityApproval
	default:
		return types.StatusRejected, types.ReasonMajorityRejection
	}
}

// Finalize settles a single proposal. Calling it on an already terminal
// proposal is a no-op returning the recorded result.
func (e *Engine) Finalize(ctx context.Context, id uint64) (FinalizationResult, error) {
	p, err := e.store.GetProposal(ctx, id)
	if err != nil {
		return FinalizationResult{}, err
	}
	if p.Status != types.StatusActive {
		return FinalizationResult{ProposalID: p.ID, Status: p.Status, Reason: p.FinalizationReason}, nil
	}
	now := e.Now()
	if now.Before(p.VotingEndsAt) {
		return FinalizationResult{}, fmt.Errorf("proposal %d: voting still open until %s", id, p.VotingEndsAt.Format(time.RFC3339))
	}
	res, ok, err := e.finalize(ctx, p, now)
	if err != nil {
		return FinalizationResult{}, err
	}
	if !ok {
		// Lost the race against a concurrent scan; report what it decided.
		p, err = e.store.GetProposal(ctx, id)
		if err != nil {
			return FinalizationResult{}, err
		}
		return FinalizationResult{ProposalID: p.ID, Status: p.Status, Reason: p.FinalizationReason}, nil
	}
	return res, nil
}

// ScanAndFinalize settles every active proposal whose voting window ended
// before now. It is idempotent and safe to run concurrently with itself and
// with ongoing casts; the conditional status transition in the store makes
// each proposal settle exactly once.
func (e *Engine) ScanAndFinalize(ctx context.Context, now time.Time) ([]FinalizationResult, error) {
	due, err := e.store.DueProposals(ctx, now)
	if err != nil {
		return nil, err
	}

	results := make([]FinalizationResult, 0, len(due))
	for i := range due {
		res, ok, err := e.finalize(ctx, &due[i], now)
		if err != nil {
			log.Printf("gov: finalize proposal %d: %v", due[i].ID, err)
			continue
		}
		if !ok {
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) finalize(ctx context.Context, p *types.Proposal, now time.Time) (FinalizationResult, bool, error) {
	status, reason := e.decide(p)
	ok, err := e.store.FinalizeProposal(ctx, p.ID, status, reason, now)
	if err != nil {
		return FinalizationResult{}, false, err
	}
	if !ok {
		// Another scan already moved this proposal; skip, don't re-process.
		return FinalizationResult{}, false, nil
	}

	if status == types.StatusApproved {
		// The transition is committed; execution is best effort and must not
		// abort the rest of the batch.
		if e.exec != nil {
			if err := e.exec.Execute(ctx, p); err != nil {
				log.Printf("gov: execute proposal %d (%s): %v", p.ID, p.Type, err)
			}
		}
		if e.mirror != nil {
			e.mirror.EnqueueExecution(p.ID)
		}
	}
	return FinalizationResult{ProposalID: p.ID, Status: status, Reason: reason}, true, nil
}
