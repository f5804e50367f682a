package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"recipe-matcher/internal/core/cache"
	"recipe-matcher/internal/core/image"
	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/metrics"
)

// Detection 一次辨識的結果
type Detection struct {
	Ingredients []string     `json:"ingredients"`
	Cached      bool         `json:"cached"`
	Image       *image.Image `json:"image"`
}

// Service 辨識流程：驗證圖片、查快取、排入佇列呼叫辨識器
type Service struct {
	validator *image.Validator
	detector  Detector
	cache     cache.Store
	queue     *Queue
}

// NewService 建立辨識服務；detector 為 nil 表示未啟用，cache 可為 nil
func NewService(validator *image.Validator, detector Detector, store cache.Store, queue *Queue) *Service {
	return &Service{
		validator: validator,
		detector:  detector,
		cache:     store,
		queue:     queue,
	}
}

// Enabled 是否有可用的辨識器
func (s *Service) Enabled() bool {
	return s != nil && s.detector != nil
}

// Detect 辨識圖片中的食材；沒有辨識到任何食材時回傳 ErrNoIngredientsDetected
func (s *Service) Detect(ctx context.Context, imageData string) (*Detection, error) {
	if !s.Enabled() {
		metrics.RecordDetection("disabled", 0)
		return nil, ErrDetectionUnavailable.Wrap(errors.New("detection is disabled"))
	}

	// 驗證圖片
	img, err := s.validator.Prepare(ctx, imageData)
	if err != nil {
		return nil, err
	}

	key := cache.Key("detect", s.detector.Name(), img.DataURI)

	// 檢查快取
	if names, ok := s.lookup(ctx, key); ok {
		metrics.RecordDetection("cached", 0)
		return &Detection{Ingredients: names, Cached: true, Image: img}, nil
	}

	start := time.Now()
	names, err := s.run(ctx, img.DataURI)
	duration := time.Since(start)
	if err != nil {
		return nil, s.classify(err, duration)
	}

	names = cleanNames(names)
	if len(names) == 0 {
		metrics.RecordDetection("empty", duration)
		return nil, ErrNoIngredientsDetected
	}
	metrics.RecordDetection("ok", duration)

	s.store(ctx, key, names)
	return &Detection{Ingredients: names, Image: img}, nil
}

// run 經由佇列呼叫辨識器，未設定佇列時直接呼叫
func (s *Service) run(ctx context.Context, dataURI string) ([]string, error) {
	job := func(ctx context.Context) ([]string, error) {
		return s.detector.Detect(ctx, dataURI)
	}
	if s.queue == nil {
		return job(ctx)
	}
	return s.queue.Submit(ctx, job)
}

// classify 將辨識錯誤轉為對外錯誤
func (s *Service) classify(err error, duration time.Duration) error {
	switch {
	case errors.Is(err, ErrQueueFull):
		metrics.RecordDetection("queue_full", 0)
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.RecordDetection("timeout", duration)
		return common.ErrRequestTimeout.Wrap(err)
	case errors.Is(err, ErrDetectionUnavailable):
		metrics.RecordDetection("breaker_open", 0)
		return err
	case errors.Is(err, ErrNoIngredientsDetected):
		metrics.RecordDetection("empty", duration)
		return err
	default:
		metrics.RecordDetection("error", duration)
		return ErrDetectionUnavailable.Wrap(fmt.Errorf("%s: %w", s.detector.Name(), err))
	}
}

func (s *Service) lookup(ctx context.Context, key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			common.LogWarn("讀取辨識快取失敗", zap.Error(err))
		}
		return nil, false
	}
	var names []string
	if err := common.ParseJSONBytes(data, &names); err != nil || len(names) == 0 {
		return nil, false
	}
	return names, true
}

func (s *Service) store(ctx context.Context, key string, names []string) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(names)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		common.LogWarn("寫入辨識快取失敗", zap.Error(err))
	}
}
