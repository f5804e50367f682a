// Package detection 從食材照片辨識食材名稱
package detection

import (
	"context"
	"strings"

	"recipe-matcher/internal/pkg/common"
)

// 辨識流程的錯誤
var (
	// ErrNoIngredientsDetected 圖片中沒有辨識到食材，不可視為空的比對輸入
	ErrNoIngredientsDetected = common.ErrNoIngredientsDetected
	// ErrDetectionUnavailable 辨識服務未啟用、熔斷或上游失敗
	ErrDetectionUnavailable = common.ErrDetectionUnavailable
	// ErrQueueFull 辨識佇列已滿
	ErrQueueFull = common.ErrQueueFull
)

// Detector 食材辨識器
type Detector interface {
	// Detect 回傳圖片中的原始食材名稱，image 為 data URI
	Detect(ctx context.Context, image string) ([]string, error)
	// Name 辨識器名稱，用於快取鍵與日誌
	Name() string
}

// StaticDetector 回傳固定結果的辨識器，用於離線環境與測試
type StaticDetector struct {
	Ingredients []string
	Err         error
}

// Detect 回傳固定結果
func (d *StaticDetector) Detect(ctx context.Context, _ string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return append([]string(nil), d.Ingredients...), nil
}

// Name 辨識器名稱
func (d *StaticDetector) Name() string {
	return "static"
}

// cleanNames 去除空白與重複（不分大小寫），保留第一次出現的順序
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.Join(strings.Fields(n), " ")
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
