package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-matcher/internal/core/cache"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/detection"
	"recipe-matcher/internal/pkg/common"
)

// checkTimeout 單一就緒檢查的期限
const checkTimeout = 2 * time.Second

// CheckFunc 外部依賴檢查（資料庫、Redis）
type CheckFunc func(ctx context.Context) error

// HealthResponse 健康檢查回應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime"`
	Catalog   *catalog.Stats         `json:"catalog,omitempty"`
	Detection bool                   `json:"detection_enabled"`
	Queue     *detection.QueueStatus `json:"queue,omitempty"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
}

// ReadyResponse 就緒檢查回應
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Options 健康檢查所需的依賴，除 Catalog 外皆可為空
type Options struct {
	Version          string
	Catalog          *catalog.Store
	Queue            *detection.Queue
	Cache            cache.Store
	DetectionEnabled bool
	Checks           map[string]CheckFunc
}

// Handler 健康檢查處理器
type Handler struct {
	opts    Options
	started time.Time
}

// NewHandler 建立處理器
func NewHandler(opts Options) *Handler {
	return &Handler{opts: opts, started: time.Now()}
}

// HealthCheck GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.opts.Version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Detection: h.opts.DetectionEnabled,
	}
	if h.opts.Catalog != nil {
		if snap := h.opts.Catalog.Snapshot(); snap != nil {
			stats := snap.Stats()
			resp.Catalog = &stats
		}
	}
	if h.opts.Queue != nil {
		status := h.opts.Queue.Status()
		resp.Queue = &status
	}
	if h.opts.Cache != nil {
		stats := h.opts.Cache.Stats()
		resp.Cache = &stats
	}

	common.LogDebug("Health check request", zap.String("client_ip", c.ClientIP()))
	c.JSON(http.StatusOK, resp)
}

// ReadinessCheck GET /ready：目錄為空或依賴失敗時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}

	resp.Checks["catalog"] = "ok"
	if h.opts.Catalog == nil || h.opts.Catalog.Snapshot() == nil || h.opts.Catalog.Snapshot().Empty() {
		resp.Checks["catalog"] = "empty"
		resp.Status = "not_ready"
	}

	names := make([]string, 0, len(h.opts.Checks))
	for name := range h.opts.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := h.opts.Checks[name](ctx)
		cancel()
		if err != nil {
			common.LogWarn("就緒檢查失敗", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = err.Error()
			resp.Status = "not_ready"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// LivenessCheck GET /live
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
