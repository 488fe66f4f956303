package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/items-api/internal/item"
)

var errCacheMiss = errors.New("cache miss")

// cache write modes understood by putScript.
const (
	putFill   = "fill"
	putUpdate = "update"
	putCreate = "create"
)

// fieldDeleted marks a tombstone: the item was deleted and must not be cached
// again until the tombstone expires.
const fieldDeleted = "deleted"

// putScript stores an item hash at KEYS[1] unless the cache already knows better.
// ARGV[1] is the item's updated_at in Unix nanoseconds, ARGV[2] the TTL in
// milliseconds, ARGV[3] the write mode and ARGV[4..] the hash fields.
//
// A fill from a read is refused when a tombstone or an entry at least as new is
// present. An update is refused by a tombstone or a strictly newer entry. A
// create always writes. Returns 1 when the entry was written.
var putScript = redis.NewScript(`
local function older(a, b)
  if #a ~= #b then return #a < #b end
  return a < b
end

local mode = ARGV[3]
if mode ~= 'create' then
  if redis.call('HEXISTS', KEYS[1], 'deleted') == 1 then
    return 0
  end

  local current = redis.call('HGET', KEYS[1], 'updated_at')
  if current then
    if older(ARGV[1], current) then
      return 0
    end
    if mode == 'fill' and current == ARGV[1] then
      return 0
    end
  end
end

redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 4))

local ttl = tonumber(ARGV[2])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end

return 1
`)

// RedisCacheRepository wraps a Repository with Redis caching for single-item reads.
//
// Get is read-through, Create and Update write through, Delete leaves a
// tombstone. Every write is conditional on the item's updated_at so a slow
// read never replaces a newer entry or resurrects a deleted item. Committed
// transactions are applied the same way. Cache failures never fail a call;
// the underlying store stays authoritative.
type RedisCacheRepository struct {
	store  item.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(store item.Repository, client *redis.Client, ttl time.Duration) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "item:",
		ttl:    ttl,
	}
}

// List always reads from the underlying store.
func (r *RedisCacheRepository) List(ctx context.Context) ([]*item.Item, error) {
	return r.store.List(ctx)
}

// Get retrieves an item by id, checking cache first.
func (r *RedisCacheRepository) Get(ctx context.Context, id item.ID) (*item.Item, error) {
	if it, err := r.getFromCache(ctx, id); err == nil {
		return it, nil
	}

	it, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.put(ctx, it, putFill)

	return it, nil
}

func (r *RedisCacheRepository) Create(ctx context.Context, in item.NewItem) (*item.Item, error) {
	it, err := r.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	r.put(ctx, it, putCreate)

	return it, nil
}

func (r *RedisCacheRepository) Update(ctx context.Context, id item.ID, patch item.Patch) (*item.Item, error) {
	it, err := r.store.Update(ctx, id, patch)

	switch {
	case errors.Is(err, item.ErrNotFound):
		r.tombstone(ctx, id)

		return nil, err
	case err != nil:
		return nil, err
	}

	r.put(ctx, it, putUpdate)

	return it, nil
}

func (r *RedisCacheRepository) Delete(ctx context.Context, id item.ID) error {
	err := r.store.Delete(ctx, id)

	// Also on failure: the row may or may not be gone, so reads must go to the store.
	r.tombstone(ctx, id)

	return err
}

// InTransaction runs f on the underlying store. Once the transaction commits,
// the items f updated are written through and the ones it deleted are tombstoned.
func (r *RedisCacheRepository) InTransaction(ctx context.Context, f func(tx item.Queries) error) error {
	tracked := &trackingQueries{}

	err := r.store.InTransaction(ctx, func(tx item.Queries) error {
		tracked.Queries = tx

		return f(tracked)
	})
	if err != nil {
		return err
	}

	for _, it := range tracked.updated {
		r.put(ctx, it, putUpdate)
	}

	for _, id := range tracked.deleted {
		r.tombstone(ctx, id)
	}

	return nil
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

func (r *RedisCacheRepository) key(id item.ID) string {
	return r.prefix + strconv.FormatInt(int64(id), 10)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, id item.ID) (*item.Item, error) {
	result, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, errCacheMiss
	}

	if _, deleted := result[fieldDeleted]; deleted {
		return nil, errCacheMiss
	}

	createdAt, err := strconv.ParseInt(result["created_at"], 10, 64)
	if err != nil {
		return nil, errCacheMiss
	}

	updatedAt, err := strconv.ParseInt(result["updated_at"], 10, 64)
	if err != nil {
		return nil, errCacheMiss
	}

	it := &item.Item{
		ID:        id,
		Name:      result["name"],
		CreatedAt: time.Unix(0, createdAt).UTC(),
		UpdatedAt: time.Unix(0, updatedAt).UTC(),
	}

	if desc, ok := result["description"]; ok {
		it.Description = &desc
	}

	return it, nil
}

func (r *RedisCacheRepository) put(ctx context.Context, it *item.Item, mode string) {
	updatedAt := strconv.FormatInt(it.UpdatedAt.UnixNano(), 10)

	args := []any{
		updatedAt, r.ttl.Milliseconds(), mode,
		"name", it.Name,
		"created_at", strconv.FormatInt(it.CreatedAt.UnixNano(), 10),
		"updated_at", updatedAt,
	}

	if it.Description != nil {
		args = append(args, "description", *it.Description)
	}

	_ = putScript.Run(ctx, r.client, []string{r.key(it.ID)}, args...).Err()
}

func (r *RedisCacheRepository) tombstone(ctx context.Context, id item.ID) {
	key := r.key(id)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fieldDeleted, 1)

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// trackingQueries records what a transaction changed.
type trackingQueries struct {
	item.Queries

	updated []*item.Item
	deleted []item.ID
}

func (t *trackingQueries) Update(ctx context.Context, id item.ID, patch item.Patch) (*item.Item, error) {
	it, err := t.Queries.Update(ctx, id, patch)
	if err == nil {
		t.updated = append(t.updated, it)
	}

	return it, err
}

func (t *trackingQueries) Delete(ctx context.Context, id item.ID) error {
	err := t.Queries.Delete(ctx, id)
	if err == nil {
		t.deleted = append(t.deleted, id)
	}

	return err
}

// Compile-time check.
var _ item.Repository = (*RedisCacheRepository)(nil)
