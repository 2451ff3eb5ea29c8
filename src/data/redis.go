package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	noncePrefix         = "nonce:"
	streamNotifications = "vortexdao.notifications"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

func SetNonce(ctx context.Context, rdb *redis.Client, addr, nonce string) error {
	return rdb.Set(ctx, noncePrefix+addr, nonce, 5*time.Minute).Err()
}

func GetNonce(ctx context.Context, rdb *redis.Client, addr string) (string, error) {
	return rdb.Get(ctx, noncePrefix+addr).Result()
}

func DelNonce(ctx context.Context, rdb *redis.Client, addr string) error {
	return rdb.Del(ctx, noncePrefix+addr).Err()
}

// PublishNotification emits an operational event (fund allocations approved,
// and the like) onto the notification stream. Delivery to admins happens in
// a separate consumer.
func PublishNotification(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamNotifications,
		Values: payload,
	}).Result()
	return err
}
