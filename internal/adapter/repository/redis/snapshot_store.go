package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// SnapshotStore implements usecase.SnapshotSink using Redis hashes.
// Each account is stored under <prefix><client id>; the set <prefix>index
// lists every client written.
type SnapshotStore struct {
	client    *redis.Client
	prefix    string
	ttl       time.Duration
	precision int32
}

// NewSnapshotStore creates a new SnapshotStore. A zero ttl keeps keys forever.
func NewSnapshotStore(client *redis.Client, prefix string, ttl time.Duration, precision int32) *SnapshotStore {
	return &SnapshotStore{
		client:    client,
		prefix:    prefix,
		ttl:       ttl,
		precision: precision,
	}
}

// Name identifies the sink.
func (s *SnapshotStore) Name() string {
	return "redis"
}

// Write stores all snapshots in a single MULTI/EXEC pipeline.
func (s *SnapshotStore) Write(ctx context.Context, snapshots []domain.AccountSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		members := make([]any, 0, len(snapshots))
		for _, snap := range snapshots {
			key := s.key(snap.ClientID)
			pipe.HSet(ctx, key, map[string]any{
				"available": snap.Available.StringFixed(s.precision),
				"held":      snap.Held.StringFixed(s.precision),
				"total":     snap.Total.StringFixed(s.precision),
				"locked":    strconv.FormatBool(snap.Locked),
			})
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			members = append(members, snap.ClientID)
		}
		pipe.SAdd(ctx, s.indexKey(), members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}

	return nil
}

// Get reads a stored snapshot back.
func (s *SnapshotStore) Get(ctx context.Context, clientID uint16) (domain.AccountSnapshot, error) {
	fields, err := s.client.HGetAll(ctx, s.key(clientID)).Result()
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	if len(fields) == 0 {
		return domain.AccountSnapshot{}, domain.ErrAccountNotFound
	}

	snap := domain.AccountSnapshot{ClientID: clientID}
	if snap.Available, err = decimal.NewFromString(fields["available"]); err != nil {
		return domain.AccountSnapshot{}, fmt.Errorf("invalid available for client %d: %w", clientID, err)
	}
	if snap.Held, err = decimal.NewFromString(fields["held"]); err != nil {
		return domain.AccountSnapshot{}, fmt.Errorf("invalid held for client %d: %w", clientID, err)
	}
	if snap.Total, err = decimal.NewFromString(fields["total"]); err != nil {
		return domain.AccountSnapshot{}, fmt.Errorf("invalid total for client %d: %w", clientID, err)
	}
	if snap.Locked, err = strconv.ParseBool(fields["locked"]); err != nil {
		return domain.AccountSnapshot{}, fmt.Errorf("invalid locked for client %d: %w", clientID, err)
	}

	return snap, nil
}

// Clients returns the ids of every client written so far.
func (s *SnapshotStore) Clients(ctx context.Context) ([]uint16, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint16, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid client id %q in index: %w", m, err)
		}
		ids = append(ids, uint16(id))
	}
	return ids, nil
}

func (s *SnapshotStore) key(clientID uint16) string {
	return s.prefix + strconv.FormatUint(uint64(clientID), 10)
}

func (s *SnapshotStore) indexKey() string {
	return s.prefix + "index"
}
