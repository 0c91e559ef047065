package tax

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-checkout/internal/lock"
)

// TaskRefresh is the asynq task type for the periodic tax table refresh.
const TaskRefresh = "tax:refresh"

// RefreshLockKey guards the refresh across worker replicas.
const RefreshLockKey = "tax:refresh:lock"

// RefreshHandler adapts Resolver.Refresh into an asynq task handler. The lock
// prevents replicas from hammering the sources at the same tick.
type RefreshHandler struct {
	Resolver *Resolver
	Locker   lock.Locker
	LockTTL  time.Duration
}

// ProcessTask implements asynq.Handler.
func (h RefreshHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	ttl := h.LockTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return h.Locker.WithLock(ctx, RefreshLockKey, ttl, func(ctx context.Context) error {
		return h.Resolver.Refresh(ctx)
	})
}
