package engine

import "math"

// Voting power strategies.
const (
	StrategyEqual         = "equal"
	StrategyTokenWeighted = "token_weighted"
	StrategyQuadratic     = "quadratic"
	StrategyReputation    = "reputation"
)

// CapabilityProvider answers eligibility and weight lookups for a member.
// Implementations are expected to be fast, synchronous and side-effect free.
type CapabilityProvider interface {
	HasProposeCapability(memberID string) bool
	HasVoteCapability(memberID string) bool
	TokenBalance(memberID string) float64
	// Reputation returns the stored score and whether one exists.
	Reputation(memberID string) (float64, bool)
}

// ValidStrategy reports whether s names a known voting power strategy.
func ValidStrategy(s string) bool {
	switch s {
	case StrategyEqual, StrategyTokenWeighted, StrategyQuadratic, StrategyReputation:
		return true
	}
	return false
}

// ComputePower maps a member onto a non-negative voting weight under the
// given strategy. Quadratic uses a true square root so weight grows
// sub-linearly with holdings. A zero balance yields weight zero, which is
// still a recordable vote.
func ComputePower(caps CapabilityProvider, memberID, strategy string) float64 {
	switch strategy {
	case StrategyTokenWeighted:
		return clampWeight(caps.TokenBalance(memberID))
	case StrategyQuadratic:
		return math.Sqrt(clampWeight(caps.TokenBalance(memberID)))
	case StrategyReputation:
		score, ok := caps.Reputation(memberID)
		if !ok {
			return 1
		}
		return clampWeight(score)
	default:
		// equal, and the fallback for anything unrecognized
		return 1
	}
}

func clampWeight(w float64) float64 {
	if w < 0 || math.IsNaN(w) {
		return 0
	}
	return w
}
