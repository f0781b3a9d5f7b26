package otp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	repo "app/internal/repository"

	"github.com/redis/go-redis/v9"
)

// OTPは論理的に短命な状態なので、行テーブルではなくTTL付きのRedisキーで持つ。
// キーは "otp:<channel>:<正規化済みidentifier>"。SETで上書きされるため
// 「再送は既存の未消費レコードを置き換える」という契約がそのまま満たせる。
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

func (s *RedisStore) Put(ctx context.Context, key string, rec repo.OtpRecord, ttl time.Duration) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, body, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (repo.OtpRecord, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return repo.OtpRecord{}, repo.ErrNotFound
	}
	if err != nil {
		return repo.OtpRecord{}, err
	}

	var rec repo.OtpRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return repo.OtpRecord{}, err
	}
	return rec, nil
}

// 試行回数の加算などでTTLは維持したまま中身だけ差し替える。
func (s *RedisStore) Update(ctx context.Context, key string, rec repo.OtpRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, body, redis.KeepTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
