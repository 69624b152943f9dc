package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"messagely/models"

	"github.com/go-redis/redis/v8"
)

const messageCacheKeyPrefix = "messagely:message:"

// CachedMessageStore - read-through кеш MessageDetail в Redis поверх любого MessageStore.
// Ошибки Redis не ломают запрос: читаем напрямую из хранилища.
type CachedMessageStore struct {
	next   MessageStore
	client *redis.Client
	ttl    time.Duration
}

func NewCachedMessageStore(next MessageStore, client *redis.Client, ttl time.Duration) *CachedMessageStore {
	return &CachedMessageStore{next: next, client: client, ttl: ttl}
}

func messageCacheKey(id int64) string {
	return fmt.Sprintf("%s%d", messageCacheKeyPrefix, id)
}

func (s *CachedMessageStore) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	key := messageCacheKey(id)
	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var detail models.MessageDetail
		if err = json.Unmarshal(data, &detail); err == nil {
			return &detail, nil
		}
		log.Printf("Corrupted cache entry %s: %v", key, err)
	case !errors.Is(err, redis.Nil):
		log.Printf("Redis get %s failed: %v", key, err)
	}

	detail, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		return detail, nil
	}
	if err = s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		log.Printf("Redis set %s failed: %v", key, err)
	}
	return detail, nil
}

func (s *CachedMessageStore) Create(ctx context.Context, fromUsername, toUsername, body string) (*models.SentMessage, error) {
	return s.next.Create(ctx, fromUsername, toUsername, body)
}

func (s *CachedMessageStore) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {
	receipt, err := s.next.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.client.Del(ctx, messageCacheKey(id)).Err(); err != nil {
		log.Printf("Redis del %s failed: %v", messageCacheKey(id), err)
	}
	return receipt, nil
}

func (s *CachedMessageStore) ListFrom(ctx context.Context, username string) ([]models.MessageDetail, error) {
	return s.next.ListFrom(ctx, username)
}

func (s *CachedMessageStore) ListTo(ctx context.Context, username string) ([]models.MessageDetail, error) {
	return s.next.ListTo(ctx, username)
}
