// Package cache 提供辨識結果的快取（記憶體或 Redis）
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrCacheMiss 快取中沒有此鍵（或已過期）
var ErrCacheMiss = errors.New("cache miss")

// Stats 快取統計
type Stats struct {
	Store     string  `json:"store"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRatio  float64 `json:"hit_ratio"`
}

// Store 快取介面
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Stats() Stats
	Close() error
}

// Key 以 namespace 與內容的 SHA-256 組成快取鍵
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

func hitRatio(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// shortKey 日誌只輸出鍵的前段
func shortKey(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 && len(key)-i > 13 {
		return key[:i+13]
	}
	return key
}
