package reveal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// recordTTL bounds how long a reveal record outlives its event. Events are
// archived well within a week, so expired keys are only ever garbage.
const recordTTL = 7 * 24 * time.Hour

// RedisStore persists reveal records in Redis under
// "reveal:<account_id>:<event_id>" keys as JSON. It satisfies Store.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a RedisStore over the given client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func revealKey(accountID, eventID uint64) string {
	return fmt.Sprintf("reveal:%d:%d", accountID, eventID)
}

// Load fetches and decodes the record for the pair. A missing key is not
// an error; it returns found=false.
func (s *RedisStore) Load(ctx context.Context, accountID, eventID uint64) (Record, bool, error) {
	bs, err := s.rdb.Get(ctx, revealKey(accountID, eventID)).Bytes()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(bs, &rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Save encodes and writes the record with the standard TTL.
func (s *RedisStore) Save(ctx context.Context, accountID, eventID uint64, rec Record) error {
	bs, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, revealKey(accountID, eventID), bs, recordTTL).Err()
}

// Clear deletes all reveal records for the account by scanning the
// account's key prefix.
func (s *RedisStore) Clear(ctx context.Context, accountID uint64) error {
	pattern := fmt.Sprintf("reveal:%d:*", accountID)
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
