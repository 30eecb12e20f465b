package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/infra/logger"
)

const boardKey = "chargeq:board"

// Board is the cached read model: every slot with its session plus the
// ordered waiting list.
type Board struct {
	Slots       []model.Slot       `json:"slots"`
	Queue       []model.QueueEntry `json:"queue"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// commands is the subset of redis.Cmdable the cache needs. *redis.Client
// satisfies it; tests substitute an in-memory fake.
type commands interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// BoardSource produces the current board from the primary store.
type BoardSource interface {
	CurrentBoard(ctx context.Context) (Board, error)
}

// BoardCache stores board snapshots in Redis with a TTL so a stalled
// refresher degrades to cache misses instead of stale reads.
type BoardCache struct {
	client commands
	ttl    time.Duration
	log    logger.Logger
}

// NewBoardCache creates a cache over the given client. A zero ttl keeps
// snapshots for one minute.
func NewBoardCache(client *redis.Client, ttl time.Duration, log logger.Logger) *BoardCache {
	return newBoardCache(client, ttl, log)
}

func newBoardCache(client commands, ttl time.Duration, log logger.Logger) *BoardCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &BoardCache{client: client, ttl: ttl, log: log}
}

// Save writes the board snapshot.
func (c *BoardCache) Save(ctx context.Context, b Board) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, boardKey, data, c.ttl).Err()
}

// Get returns the cached board. A miss returns ok=false without error.
func (c *BoardCache) Get(ctx context.Context) (Board, bool, error) {
	result, err := c.client.Get(ctx, boardKey).Result()
	if err == redis.Nil {
		return Board{}, false, nil
	}
	if err != nil {
		return Board{}, false, err
	}
	var b Board
	if err := json.Unmarshal([]byte(result), &b); err != nil {
		return Board{}, false, err
	}
	return b, true, nil
}
