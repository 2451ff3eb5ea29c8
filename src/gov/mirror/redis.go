package mirror

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

const streamMirror = "vortexdao.mirror"

// Redis mirrors governance events onto a redis stream for downstream audit
// consumers (chain relayers, explorers).
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) add(ctx context.Context, values map[string]interface{}) error {
	values["event_id"] = uuid.NewString()
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamMirror,
		Values: values,
	}).Result()
	return err
}

func (r *Redis) PublishProposal(ctx context.Context, p *types.Proposal) error {
	return r.add(ctx, map[string]interface{}{
		"kind":        "proposal",
		"proposal_id": p.ID,
		"type":        p.Type,
		"creator":     p.CreatorID,
		"title":       p.Title,
		"ends_at":     p.VotingEndsAt.Unix(),
	})
}

func (r *Redis) PublishVote(ctx context.Context, proposalID uint64, voterID, choice string, power float64) error {
	return r.add(ctx, map[string]interface{}{
		"kind":        "vote",
		"proposal_id": proposalID,
		"voter":       voterID,
		"choice":      choice,
		"power":       power,
	})
}

func (r *Redis) PublishExecution(ctx context.Context, proposalID uint64) error {
	return r.add(ctx, map[string]interface{}{
		"kind":        "execution",
		"proposal_id": proposalID,
	})
}
