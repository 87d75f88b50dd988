// Package accesscontrol answers whether an actor may run an elevated
// collection operation. Memberships live in Redis sets maintained by
// the back-office permission tooling.
package accesscontrol

import (
	"context"
	"log/slog"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const aclKeyPrefix = "acl:"

type RedisAccessControl struct {
	client redis.Cmdable
}

func NewRedisAccessControl(client redis.Cmdable) *RedisAccessControl {
	return &RedisAccessControl{client: client}
}

// Authorize checks set membership for acl:<operation>. The system actor
// is always allowed; it only appears on internally triggered work.
func (ac *RedisAccessControl) Authorize(ctx context.Context, actor, operation string) (bool, error) {
	if actor == "" {
		return false, nil
	}
	if actor == consts.ActorSystem {
		return true, nil
	}

	allowed, err := ac.client.SIsMember(ctx, aclKeyPrefix+operation, actor).Result()
	if err != nil {
		logger.CtxError(ctx, "Access control lookup failed", err,
			slog.String("actor", actor),
			slog.String("operation", operation))
		return false, err
	}
	return allowed, nil
}
