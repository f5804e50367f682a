package shopping

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"recipe-matcher/internal/pkg/common"
)

// MemoryStore 記憶體中的購物清單
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string]*List
}

// NewMemoryStore 建立記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string]*List)}
}

// Get 取得清單副本
func (s *MemoryStore) Get(_ context.Context, id string) (*List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[id]
	if !ok {
		return nil, ErrListNotFound
	}
	return cloneList(l), nil
}

// Save 儲存清單副本
func (s *MemoryStore) Save(_ context.Context, list *List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[list.ID] = cloneList(list)
	return nil
}

// Delete 刪除清單
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[id]; !ok {
		return ErrListNotFound
	}
	delete(s.lists, id)
	return nil
}

func cloneList(l *List) *List {
	out := &List{ID: l.ID, UpdatedAt: l.UpdatedAt, Recipes: append([]string(nil), l.Recipes...)}
	out.Items = make(map[string][]string, len(l.Items))
	for k, v := range l.Items {
		out.Items[k] = append([]string(nil), v...)
	}
	return out
}

// 清單 hash 中的保留欄位，類別欄位以 "category:" 開頭
const (
	fieldRecipes   = "_recipes"
	fieldUpdatedAt = "_updated_at"
	categoryPrefix = "category:"
)

// RedisStore 以 Redis hash 儲存清單，每個類別一個欄位；連線錯誤回傳 ErrServiceUnavailable
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore 建立 Redis 儲存
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "recipe-matcher:shopping:", ttl: ttl}
}

// Get 取得清單
func (s *RedisStore) Get(ctx context.Context, id string) (*List, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+id).Result()
	if err != nil {
		return nil, common.ErrServiceUnavailable.Wrap(fmt.Errorf("failed to get shopping list: %w", err))
	}
	if len(fields) == 0 {
		return nil, ErrListNotFound
	}

	list := &List{ID: id, Items: make(map[string][]string)}
	for field, value := range fields {
		switch {
		case field == fieldRecipes:
			if err := common.ParseJSON(value, &list.Recipes); err != nil {
				return nil, fmt.Errorf("decode shopping list recipes: %w", err)
			}
		case field == fieldUpdatedAt:
			if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
				list.UpdatedAt = t
			}
		case strings.HasPrefix(field, categoryPrefix):
			var items []string
			if err := common.ParseJSON(value, &items); err != nil {
				return nil, fmt.Errorf("decode shopping list category %q: %w", field, err)
			}
			list.Items[strings.TrimPrefix(field, categoryPrefix)] = items
		}
	}
	return list, nil
}

// Save 以交易整份覆寫清單並重設過期時間
func (s *RedisStore) Save(ctx context.Context, list *List) error {
	values := make(map[string]interface{}, len(list.Items)+2)
	recipes, err := common.ToJSON(list.Recipes)
	if err != nil {
		return err
	}
	values[fieldRecipes] = recipes
	values[fieldUpdatedAt] = list.UpdatedAt.Format(time.RFC3339Nano)
	for category, items := range list.Items {
		data, err := common.ToJSON(items)
		if err != nil {
			return err
		}
		values[categoryPrefix+category] = data
	}

	key := s.prefix + list.ID
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return common.ErrServiceUnavailable.Wrap(fmt.Errorf("failed to save shopping list: %w", err))
	}
	return nil
}

// Delete 刪除清單
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.prefix+id).Result()
	if err != nil {
		return common.ErrServiceUnavailable.Wrap(fmt.Errorf("failed to delete shopping list: %w", err))
	}
	if n == 0 {
		return ErrListNotFound
	}
	return nil
}
