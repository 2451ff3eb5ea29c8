package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vortex-market/vortex-dao/src/gov/capability"
)

func TestComputePower(t *testing.T) {
	caps := capability.NewStatic(map[string]capability.StaticMember{
		"whale":    {Balance: 144, Reputation: 80},
		"minnow":   {Balance: 4},
		"broke":    {Balance: 0},
		"esteemed": {Reputation: 7.5},
	})

	tests := []struct {
		name     string
		member   string
		strategy string
		want     float64
	}{
		{"equal ignores balance", "whale", StrategyEqual, 1},
		{"token weighted is the balance", "whale", StrategyTokenWeighted, 144},
		{"quadratic is the exact square root", "whale", StrategyQuadratic, 12},
		{"quadratic small holder", "minnow", StrategyQuadratic, 2},
		{"reputation uses the stored score", "esteemed", StrategyReputation, 7.5},
		{"reputation defaults to 1 when absent", "minnow", StrategyReputation, 1},
		{"zero balance yields zero weight", "broke", StrategyTokenWeighted, 0},
		{"unknown member has zero weight", "ghost", StrategyTokenWeighted, 0},
		{"unknown strategy falls back to equal", "whale", "plutocratic", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePower(caps, tt.member, tt.strategy))
		})
	}
}

func TestValidStrategy(t *testing.T) {
	for _, s := range []string{StrategyEqual, StrategyTokenWeighted, StrategyQuadratic, StrategyReputation} {
		assert.True(t, ValidStrategy(s), s)
	}
	assert.False(t, ValidStrategy("equal "))
	assert.False(t, ValidStrategy(""))
}
