// Package mirror publishes governance events to an external ledger as a
// best-effort audit trail. The local store stays authoritative: mirror
// failures are logged and never unwind local state.
package mirror

import (
	"context"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// Mirror is one external ledger target.
type Mirror interface {
	PublishProposal(ctx context.Context, p *types.Proposal) error
	PublishVote(ctx context.Context, proposalID uint64, voterID, choice string, power float64) error
	PublishExecution(ctx context.Context, proposalID uint64) error
}

// Noop is the mirror used when none is configured.
type Noop struct{}

func (Noop) PublishProposal(context.Context, *types.Proposal) error { return nil }

func (Noop) PublishVote(context.Context, uint64, string, string, float64) error { return nil }

func (Noop) PublishExecution(context.Context, uint64) error { return nil }
