package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/metrics"
)

const storeMemory = "memory"

// ManagerOptions 記憶體快取設定
type ManagerOptions struct {
	MaxSize         int
	TTL             time.Duration
	CleanupInterval time.Duration
}

// Manager 記憶體快取，過期淘汰加上最少使用淘汰
type Manager struct {
	opts  ManagerOptions
	now   func() time.Time
	mu    sync.Mutex
	store map[string]cacheEntry
	stats cacheStats

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// cacheEntry 快取條目
type cacheEntry struct {
	value       []byte
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 快取統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewManager 建立記憶體快取並啟動定期清理
func NewManager(opts ManagerOptions) *Manager {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}

	m := &Manager{
		opts:  opts,
		now:   time.Now,
		store: make(map[string]cacheEntry),
		stop:  make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		m.wg.Add(1)
		go m.startCleanup()
	}

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", opts.MaxSize),
		zap.Duration("存活時間", opts.TTL),
		zap.Duration("清理間隔", opts.CleanupInterval),
	)
	return m
}

// Get 取得快取值
func (m *Manager) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.store[key]
	if ok && !m.now().Before(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		ok = false
	}
	if !ok {
		m.stats.misses++
		metrics.RecordCache(storeMemory, false)
		common.LogCacheResult(storeMemory, false)
		return nil, ErrCacheMiss
	}

	// 更新存取統計
	entry.lastAccess = m.now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++

	metrics.RecordCache(storeMemory, true)
	common.LogCacheResult(storeMemory, true)
	return entry.value, nil
}

// Set 寫入快取值，容量已滿時先清理過期項目再淘汰最少使用者
func (m *Manager) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.opts.MaxSize {
		if evicted := m.cleanupLocked(); evicted > 0 {
			common.LogDebug("快取清理執行", zap.Int("清理數量", evicted))
		}
		for len(m.store) >= m.opts.MaxSize {
			m.evictLRU()
		}
	}

	now := m.now()
	m.store[key] = cacheEntry{
		value:      append([]byte(nil), value...),
		expiresAt:  now.Add(m.opts.TTL),
		createdAt:  now,
		lastAccess: now,
	}
	common.LogDebug("快取已儲存", zap.String("鍵", shortKey(key)))
	return nil
}

// startCleanup 定期清理過期快取，直到 Close
func (m *Manager) startCleanup() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

// Cleanup 清理過期項目，回傳清理數量
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanupLocked()
}

func (m *Manager) cleanupLocked() int {
	now := m.now()
	count := 0
	for key, entry := range m.store {
		if !now.Before(entry.expiresAt) {
			delete(m.store, key)
			count++
		}
	}
	m.stats.evictions += int64(count)

	if count > 0 {
		common.LogInfo("已清理過期快取",
			zap.Int("count", count),
			zap.Int64("total_evictions", m.stats.evictions),
			zap.Int("remaining_size", len(m.store)),
		)
	}
	return count
}

// evictLRU 淘汰存取次數最少者，同次數時淘汰最久未存取者
func (m *Manager) evictLRU() {
	var (
		oldestKey    string
		oldestAccess time.Time
		lowestCount  int
	)
	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestCount ||
			(entry.accessCount == lowestCount && entry.lastAccess.Before(oldestAccess)) ||
			(entry.accessCount == lowestCount && entry.lastAccess.Equal(oldestAccess) && key < oldestKey) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("鍵", shortKey(oldestKey)))
	}
}

// Stats 快取統計
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Store:     storeMemory,
		Size:      len(m.store),
		MaxSize:   m.opts.MaxSize,
		Hits:      m.stats.hits,
		Misses:    m.stats.misses,
		Evictions: m.stats.evictions,
		HitRatio:  hitRatio(m.stats.hits, m.stats.misses),
	}
}

// Close 停止清理協程並清空快取
func (m *Manager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
