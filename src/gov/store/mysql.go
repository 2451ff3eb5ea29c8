package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vortex-market/vortex-dao/src/gov/engine"
	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// MySQL is the gorm-backed proposal store and vote ledger. The unique
// (proposal_id, voter_id) index on votes and the conditional status update
// on proposals carry the concurrency guarantees; see RecordVote and
// FinalizeProposal.
type MySQL struct {
	db *gorm.DB
}

func NewMySQL(db *gorm.DB) *MySQL {
	return &MySQL{db: db}
}

func (s *MySQL) CreateProposal(ctx context.Context, p *types.Proposal) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *MySQL) GetProposal(ctx context.Context, id uint64) (*types.Proposal, error) {
	var p types.Proposal
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proposal %d", engine.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func (s *MySQL) ListProposals(ctx context.Context, status string) ([]types.Proposal, error) {
	q := s.db.WithContext(ctx).Order("id desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []types.Proposal
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MySQL) HasVote(ctx context.Context, proposalID uint64, voterID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&types.Vote{}).
		Where("proposal_id = ? AND voter_id = ?", proposalID, voterID).
		Count(&n).Error
	return n > 0, err
}

func tallyColumn(choice string) string {
	switch choice {
	case types.ChoiceYes:
		return "yes_votes"
	case types.ChoiceNo:
		return "no_votes"
	default:
		return "abstain_votes"
	}
}

func (s *MySQL) RecordVote(ctx context.Context, v *types.Vote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s on proposal %d", engine.ErrAlreadyVoted, v.VoterID, v.ProposalID)
			}
			return err
		}

		col := tallyColumn(v.Choice)
		res := tx.Model(&types.Proposal{}).
			Where("id = ? AND status = ?", v.ProposalID, types.StatusActive).
			Updates(map[string]interface{}{
				col:           gorm.Expr(col+" + ?", v.VotingPower),
				"total_votes": gorm.Expr("total_votes + ?", v.VotingPower),
			})
		if res.Error != nil {
			return res.Error
		}
		// Proposal finalized between the engine's check and this commit;
		// rolling back keeps the vote row out as well.
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: proposal %d no longer active", engine.ErrVotingClosed, v.ProposalID)
		}
		return nil
	})
}

func (s *MySQL) FinalizeProposal(ctx context.Context, id uint64, status, reason string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&types.Proposal{}).
		Where("id = ? AND status = ?", id, types.StatusActive).
		Updates(map[string]interface{}{
			"status":              status,
			"finalization_reason": reason,
			"finalized_at":        at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *MySQL) DueProposals(ctx context.Context, now time.Time) ([]types.Proposal, error) {
	var out []types.Proposal
	err := s.db.WithContext(ctx).
		Where("status = ? AND voting_ends_at < ?", types.StatusActive, now).
		Find(&out).Error
	return out, err
}
