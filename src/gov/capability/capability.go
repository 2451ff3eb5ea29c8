package capability

import (
	"strings"

	"gorm.io/gorm"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// Roles recognized by the governance engine.
const (
	RoleMember   = "dao_member"
	RoleAdmin    = "dao_admin"
	RoleProposer = "dao_proposer"
	RoleVoter    = "dao_voter"
)

// DB answers capability and weight lookups from the members table. Lookups
// are synchronous and side-effect free; a missing member simply has no
// capabilities and zero balance.
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

func (d *DB) member(addr string) (*types.Member, bool) {
	var m types.Member
	if err := d.db.First(&m, "address = ?", addr).Error; err != nil {
		return nil, false
	}
	return &m, true
}

func hasRole(m *types.Member, role string) bool {
	for _, r := range strings.Split(m.Roles, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

func (d *DB) HasProposeCapability(addr string) bool {
	m, ok := d.member(addr)
	if !ok {
		return false
	}
	return m.IsAdmin || hasRole(m, RoleAdmin) || hasRole(m, RoleProposer)
}

func (d *DB) HasVoteCapability(addr string) bool {
	m, ok := d.member(addr)
	if !ok {
		return false
	}
	return m.IsAdmin || hasRole(m, RoleAdmin) || hasRole(m, RoleMember) || hasRole(m, RoleVoter)
}

func (d *DB) TokenBalance(addr string) float64 {
	m, ok := d.member(addr)
	if !ok {
		return 0
	}
	return m.TokenBalance
}

func (d *DB) Reputation(addr string) (float64, bool) {
	m, ok := d.member(addr)
	if !ok || m.Reputation == 0 {
		return 0, false
	}
	return m.Reputation, true
}
