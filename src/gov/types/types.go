package types

import "time"

// Proposal statuses. A proposal is active the moment it is created and
// moves exactly once into a terminal state.
const (
	StatusActive   = "active"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Proposal types.
const (
	TypeParameterChange = "parameter_change"
	TypeFeatureRequest  = "feature_request"
	TypeFundAllocation  = "fund_allocation"
	TypeMembership      = "membership"
	TypeCustom          = "custom"
)

// Vote choices.
const (
	ChoiceYes     = "yes"
	ChoiceNo      = "no"
	ChoiceAbstain = "abstain"
)

// Finalization reasons.
const (
	ReasonQuorumNotMet      = "quorum_not_met"
	ReasonMajorityApproval  = "majority_approval"
	ReasonMajorityRejection = "majority_rejection"
)

// Governance proposals
type Proposal struct {
	ID           uint64    `gorm:"primaryKey"`
	Title        string    `gorm:"size:255;not null"`
	Description  string    `gorm:"type:text;not null"`
	Type         string    `gorm:"size:32;not null"`
	CreatorID    string    `gorm:"size:128;not null;index"`
	Parameters   []byte    `gorm:"type:json"`
	Status       string    `gorm:"size:16;not null;default:active;index"`
	VotingEndsAt time.Time `gorm:"index;not null"`

	// Weighted tally, maintained atomically with vote inserts.
	// TotalVotes == YesVotes + NoVotes + AbstainVotes at all times.
	YesVotes     float64 `gorm:"not null;default:0"`
	NoVotes      float64 `gorm:"not null;default:0"`
	AbstainVotes float64 `gorm:"not null;default:0"`
	TotalVotes   float64 `gorm:"not null;default:0"`

	FinalizedAt        *time.Time
	FinalizationReason string `gorm:"size:32"`
	CreatedAt          time.Time
}

// One row per (proposal, voter); the unique index is the duplicate-vote
// guard under concurrent casts.
type Vote struct {
	ID          uint64  `gorm:"primaryKey"`
	ProposalID  uint64  `gorm:"not null;uniqueIndex:idx_proposal_voter"`
	VoterID     string  `gorm:"size:128;not null;uniqueIndex:idx_proposal_voter"`
	Choice      string  `gorm:"size:10;not null"`
	VotingPower float64 `gorm:"not null"`
	CastAt      time.Time
}

// DAO members, keyed by wallet address. Roles is a comma separated list
// (dao_member, dao_admin, dao_proposer, dao_voter).
type Member struct {
	Address      string  `gorm:"primaryKey;size:128"`
	Roles        string  `gorm:"size:256"`
	TokenBalance float64 `gorm:"not null;default:0"`
	Reputation   float64 `gorm:"not null;default:0"`
	IsAdmin      bool    `gorm:"default:false"`
}

// Settings
type Setting struct {
	ID    uint16 `gorm:"primaryKey"`
	Name  string `gorm:"size:64;unique;not null"`
	Value string `gorm:"size:256;not null"`
}

// Features approved through feature_request proposals.
type FeatureRequest struct {
	ID          uint64 `gorm:"primaryKey"`
	FeatureName string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	ProposalID  uint64 `gorm:"index;not null"`
	ApprovedAt  time.Time
}

// Allocations approved through fund_allocation proposals. The engine only
// records them; treasury payout happens elsewhere.
type FundAllocation struct {
	ID          uint64  `gorm:"primaryKey"`
	Recipient   string  `gorm:"size:128;not null"`
	Amount      float64 `gorm:"not null"`
	Purpose     string  `gorm:"size:512;not null"`
	Status      string  `gorm:"size:16;not null;default:pending"`
	ProposalID  uint64  `gorm:"index;not null"`
	AllocatedAt time.Time
}
