package auth

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSessionEnder signs a cashier out by deleting their login session keys.
// The cash session service calls it after a session closes.
type RedisSessionEnder struct {
	R         *redis.Client
	KeyPrefix string
}

// EndSession removes the cashier's session keys.
func (e RedisSessionEnder) EndSession(ctx context.Context, cashierID string) error {
	if e.R == nil {
		return errors.New("auth: redis client not configured")
	}
	if cashierID == "" {
		return errors.New("auth: cashier id is required")
	}
	prefix := e.KeyPrefix
	if prefix == "" {
		prefix = "cashier:session:"
	}
	return e.R.Del(ctx, prefix+cashierID).Err()
}
