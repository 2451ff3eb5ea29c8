package engine

import (
	"context"
	"time"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// Store is the authoritative proposal store and vote ledger. Implementations
// must make RecordVote and FinalizeProposal atomic with respect to
// concurrent callers; see the mysql and memory implementations.
type Store interface {
	CreateProposal(ctx context.Context, p *types.Proposal) error

	// GetProposal returns ErrNotFound for unknown ids.
	GetProposal(ctx context.Context, id uint64) (*types.Proposal, error)

	// ListProposals filters by status when status is non-empty.
	ListProposals(ctx context.Context, status string) ([]types.Proposal, error)

	HasVote(ctx context.Context, proposalID uint64, voterID string) (bool, error)

	// RecordVote inserts the vote row and applies its weight to the matching
	// tally bucket and total as one atomic unit. A duplicate
	// (proposal, voter) pair returns ErrAlreadyVoted; a proposal that is no
	// longer active returns ErrVotingClosed. Partial application is a bug.
	RecordVote(ctx context.Context, v *types.Vote) error

	// FinalizeProposal transitions active -> status for the given proposal.
	// It returns false when the proposal was already terminal, which is the
	// idempotency guard for concurrent scans.
	FinalizeProposal(ctx context.Context, id uint64, status, reason string, at time.Time) (bool, error)

	// DueProposals returns active proposals whose voting window ended
	// before now.
	DueProposals(ctx context.Context, now time.Time) ([]types.Proposal, error)
}
