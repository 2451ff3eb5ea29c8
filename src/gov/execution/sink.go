package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vortex-market/vortex-dao/src/data"
	"github.com/vortex-market/vortex-dao/src/gov/types"
)

// DBSink lands side effects in MySQL and emits notification events on the
// redis stream.
type DBSink struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewDBSink(db *gorm.DB, rdb *redis.Client) *DBSink {
	return &DBSink{db: db, rdb: rdb}
}

func (s *DBSink) SetSetting(_ context.Context, key, value string) error {
	return data.SetSetting(s.db, key, value)
}

func (s *DBSink) AppendFeature(ctx context.Context, f types.FeatureRequest) error {
	return s.db.WithContext(ctx).Create(&f).Error
}

func (s *DBSink) AppendAllocation(ctx context.Context, a types.FundAllocation) error {
	return s.db.WithContext(ctx).Create(&a).Error
}

func (s *DBSink) AddMemberRole(ctx context.Context, addr, role string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m types.Member
		if err := tx.First(&m, "address = ?", addr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("member %s not found", addr)
			}
			return err
		}
		roles := splitRoles(m.Roles)
		for _, r := range roles {
			if r == role {
				return nil
			}
		}
		roles = append(roles, role)
		return tx.Model(&m).Update("roles", strings.Join(roles, ",")).Error
	})
}

func (s *DBSink) RemoveMemberRole(ctx context.Context, addr, role string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m types.Member
		if err := tx.First(&m, "address = ?", addr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("member %s not found", addr)
			}
			return err
		}
		var kept []string
		for _, r := range splitRoles(m.Roles) {
			if r != role {
				kept = append(kept, r)
			}
		}
		return tx.Model(&m).Update("roles", strings.Join(kept, ",")).Error
	})
}

func (s *DBSink) Notify(ctx context.Context, event map[string]interface{}) error {
	if s.rdb == nil {
		return nil
	}
	return data.PublishNotification(ctx, s.rdb, event)
}

func splitRoles(csv string) []string {
	var out []string
	for _, r := range strings.Split(csv, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
