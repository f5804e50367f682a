package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"
)

const detectPrompt = `List every food ingredient visible in this photo. ` +
	`Answer with a JSON array of short English ingredient names only, for example ["egg","tomato","scallion"]. ` +
	`Use singular nouns, no quantities, no brands. Answer [] if there is no food.`

// OpenRouterDetector 透過 OpenRouter 視覺模型辨識食材
type OpenRouterDetector struct {
	client    *resty.Client
	model     string
	maxTokens int
	breaker   *gobreaker.CircuitBreaker[[]string]
}

// chatResponse OpenRouter chat completions 回應
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenRouterDetector 建立 OpenRouter 辨識器
func NewOpenRouterDetector(cfg config.DetectionConfig) *OpenRouterDetector {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", cfg.Referer).
		SetHeader("X-Title", cfg.Title)

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	breaker := gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:        "openrouter-detection",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// 呼叫端取消不算上游失敗
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("辨識熔斷器狀態變更",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OpenRouterDetector{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		breaker:   breaker,
	}
}

// Name 模型名稱
func (d *OpenRouterDetector) Name() string {
	return d.model
}

// Detect 呼叫視覺模型；熔斷器開啟時回傳 ErrDetectionUnavailable
func (d *OpenRouterDetector) Detect(ctx context.Context, image string) ([]string, error) {
	start := time.Now()
	names, err := d.breaker.Execute(func() ([]string, error) {
		return d.call(ctx, image)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrDetectionUnavailable.Wrap(err)
	}
	common.LogDetectionCall(d.model, time.Since(start), len(names), err)
	return names, err
}

// call 發送一次 chat completions 請求
func (d *OpenRouterDetector) call(ctx context.Context, image string) ([]string, error) {
	// 構建請求
	req := map[string]interface{}{
		"model": d.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": detectPrompt},
					{"type": "image_url", "image_url": map[string]string{"url": image}},
				},
			},
		},
		"max_tokens": d.maxTokens,
	}

	// 發送請求
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("OpenRouter API returned status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	// 解析回應
	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("OpenRouter error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenRouter response")
	}

	return ParseIngredientList(result.Choices[0].Message.Content)
}

// ParseIngredientList 從模型輸出取出食材陣列；元素可為字串或含 name 欄位的物件
func ParseIngredientList(content string) ([]string, error) {
	raw, err := common.ExtractJSONArray(content)
	if err != nil {
		return nil, fmt.Errorf("model output has no ingredient list: %w", err)
	}

	var items []json.RawMessage
	if err := common.ParseJSON(raw, &items); err != nil {
		if err := common.ParseJSON(common.QuoteJSONKeys(raw), &items); err != nil {
			return nil, fmt.Errorf("failed to parse ingredient list: %w", err)
		}
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		if item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				names = append(names, s)
			}
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Name != "" {
			names = append(names, obj.Name)
		}
	}
	return cleanNames(names), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
