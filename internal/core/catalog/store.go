package catalog

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"

	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/metrics"
)

// LoaderFunc 產生新快照
type LoaderFunc func() (*Snapshot, error)

// Store 持有目前的快照；重新載入時整份替換，進行中的請求繼續使用舊快照
type Store struct {
	current atomic.Pointer[Snapshot]
	loader  LoaderFunc
	mu      sync.Mutex // 序列化重新載入
}

// NewStore 建立 Store，初次載入失敗時回傳錯誤
func NewStore(loader LoaderFunc) (*Store, error) {
	s := &Store{loader: loader}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore 以固定快照建立 Store（Reload 不會改變內容）
func NewStaticStore(snap *Snapshot) *Store {
	s := &Store{loader: func() (*Snapshot, error) { return snap, nil }}
	s.swap(snap)
	return s
}

// DirLoader 從資料夾載入
func DirLoader(dir string) LoaderFunc {
	return func() (*Snapshot, error) {
		return Load(dir)
	}
}

// Snapshot 目前的快照
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Reload 重新載入並原子替換；失敗時保留舊快照
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loader()
	if err != nil {
		metrics.CatalogReloadsTotal.WithLabelValues("error").Inc()
		return err
	}
	s.swap(snap)
	metrics.CatalogReloadsTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *Store) swap(snap *Snapshot) {
	s.current.Store(snap)
	if snap != nil {
		metrics.CatalogRecipes.Set(float64(len(snap.Recipes())))
	}
}

// WatchSignals 收到 SIGHUP 時重新載入，直到 ctx 結束
func (s *Store) WatchSignals(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				common.LogInfo("收到 SIGHUP，重新載入食譜目錄")
				if err := s.Reload(); err != nil {
					common.LogError("重新載入食譜目錄失敗，沿用舊資料", zap.Error(err))
				}
			}
		}
	}()
}
