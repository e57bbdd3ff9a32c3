package reflection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each user's answers in a list at <prefix>:answers:<uid>.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a RedisStore writing under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Append pushes a to the end of its user's list.
func (s *RedisStore) Append(ctx context.Context, a Answer) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(a.UserID), data).Err(); err != nil {
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

// List returns every answer stored for userID, oldest first.
func (s *RedisStore) List(ctx context.Context, userID string) ([]Answer, error) {
	raw, err := s.client.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out := make([]Answer, 0, len(raw))
	for _, item := range raw {
		var a Answer
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("decode answer: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + ":answers:" + userID
}
