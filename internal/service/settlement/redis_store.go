// internal/service/settlement/redis_store.go
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	xerrors "gymflow-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	lockTTL     = 15 * time.Second
	lockRetries = 3
	lockBackoff = 100 * time.Millisecond
	orderTTL    = 30 * time.Minute
	lockKeyFmt  = "billing:lock:%d:%d:%d" // gym, year, month
	orderKeyFmt = "billing:order:%s"      // gateway order id
)

// billMutex serializes settlement per (gym, month, year) across instances
// with a redis SET NX lease. Different bills never contend.
type billMutex struct {
	rdb *redis.Client
}

func (m *billMutex) acquire(ctx context.Context, gymID int64, month, year int) (release func(), err error) {
	key := fmt.Sprintf(lockKeyFmt, gymID, year, month)

	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := m.rdb.SetNX(ctx, key, "1", lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: settlement lock: %v", xerrors.ErrUpstreamUnavailable, err)
		}
		if ok {
			return func() { m.rdb.Del(context.Background(), key) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockBackoff):
		}
	}

	return nil, fmt.Errorf("%w: bill is being settled by another request", xerrors.ErrConflict)
}

// pendingOrder binds a gateway order to the bill it was created for.
type pendingOrder struct {
	BillID    string  `json:"bill_id"`
	GymID     int64   `json:"gym_id"`
	BillMonth int     `json:"bill_month"`
	BillYear  int     `json:"bill_year"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// orderStore keeps pending gateway orders in redis until the confirmation
// callback lands or the TTL expires.
type orderStore struct {
	rdb *redis.Client
}

func (s *orderStore) save(ctx context.Context, orderID string, po pendingOrder) error {
	data, err := json.Marshal(po)
	if err != nil {
		return fmt.Errorf("failed to encode pending order: %w", err)
	}
	if err := s.rdb.Set(ctx, fmt.Sprintf(orderKeyFmt, orderID), data, orderTTL).Err(); err != nil {
		return fmt.Errorf("%w: pending order store: %v", xerrors.ErrUpstreamUnavailable, err)
	}
	return nil
}

func (s *orderStore) get(ctx context.Context, orderID string) (*pendingOrder, error) {
	data, err := s.rdb.Get(ctx, fmt.Sprintf(orderKeyFmt, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: unknown or expired gateway order %s", xerrors.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: pending order store: %v", xerrors.ErrUpstreamUnavailable, err)
	}

	var po pendingOrder
	if err := json.Unmarshal(data, &po); err != nil {
		return nil, fmt.Errorf("failed to decode pending order: %w", err)
	}
	return &po, nil
}

func (s *orderStore) delete(ctx context.Context, orderID string) {
	s.rdb.Del(ctx, fmt.Sprintf(orderKeyFmt, orderID))
}
