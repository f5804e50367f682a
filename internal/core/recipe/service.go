// Package recipe 串接目錄、辨識與比對引擎，提供對外的食譜推薦流程
package recipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/detection"
	"recipe-matcher/internal/core/matching"
	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/metrics"
)

// HistoryLogger 記錄食譜瀏覽
type HistoryLogger interface {
	LogView(ctx context.Context, session, recipeID, title string) error
}

// Service 食譜推薦服務
type Service struct {
	catalog      *catalog.Store
	opts         matching.Options
	detection    *detection.Service
	history      HistoryLogger
	defaultLimit int
}

// NewService 建立食譜服務；detection 與 history 可為 nil
func NewService(store *catalog.Store, opts matching.Options, det *detection.Service, history HistoryLogger, defaultLimit int) *Service {
	if defaultLimit < 0 {
		defaultLimit = 0
	}
	return &Service{
		catalog:      store,
		opts:         opts,
		detection:    det,
		history:      history,
		defaultLimit: defaultLimit,
	}
}

// Snapshot 目前的目錄快照
func (s *Service) Snapshot() *catalog.Snapshot {
	return s.catalog.Snapshot()
}

// Normalize 將原始食材字串轉為標準 ID
func (s *Service) Normalize(raw []string) matching.NormalizeResult {
	res := s.catalog.Snapshot().Normalizer().Normalize(raw)
	if n := len(res.Unknown); n > 0 {
		metrics.UnknownIngredientsTotal.Add(float64(n))
		common.LogDebug("無法辨識的食材", zap.Strings("unknown", res.Unknown))
	}
	return res
}

// Detect 辨識圖片中的食材並正規化
func (s *Service) Detect(ctx context.Context, imageData string) (*DetectResult, error) {
	det, err := s.detection.Detect(ctx, imageData)
	if err != nil {
		return nil, err
	}
	return &DetectResult{
		Detected:    det.Ingredients,
		Ingredients: s.Normalize(det.Ingredients),
		Cached:      det.Cached,
		Image:       det.Image,
	}, nil
}

// Suggest 依食材（文字或圖片）與偏好推薦食譜
func (s *Service) Suggest(ctx context.Context, req SuggestRequest) (*SuggestResult, error) {
	raw := append([]string(nil), req.Ingredients...)

	var detected []string
	if req.Image != "" {
		det, err := s.detection.Detect(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		detected = det.Ingredients
		raw = append(raw, detected...)
	}

	snap := s.catalog.Snapshot()
	norm := s.Normalize(raw)

	limit := s.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	opts := s.opts
	opts.Limit = limit
	engine := matching.NewEngine(opts, snap.Category)

	start := time.Now()
	ranking, err := engine.Run(matching.NewAvailableSet(norm.Canonical...), snap.Recipes(), snap.Resolver(), s.resolvePreferences(snap, req.Preferences))
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, matching.ErrEmptyCatalog) {
			metrics.RecordMatch("empty_catalog", 0, nil, duration)
			return nil, common.ErrEmptyCatalog.Wrap(err)
		}
		metrics.RecordMatch("error", 0, nil, duration)
		return nil, err
	}

	filtered := make(map[string]int, len(ranking.Filtered))
	for reason, n := range ranking.Filtered {
		filtered[string(reason)] = n
	}
	outcome := "ok"
	if len(ranking.Results) == 0 {
		outcome = "empty"
	}
	metrics.RecordMatch(outcome, len(ranking.Results), filtered, duration)

	out := &SuggestResult{
		Results:     make([]Suggestion, 0, len(ranking.Results)),
		Ingredients: norm,
		Detected:    detected,
		Considered:  ranking.Considered,
		Filtered:    filtered,
	}
	for _, res := range ranking.Results {
		r, _ := snap.Recipe(res.RecipeID)
		sg := Suggestion{Recipe: summarize(r), Match: res}
		if n, ok := snap.RecipeNutrition(res.RecipeID); ok {
			sg.Nutrition = &n
		}
		if req.Explain {
			exp := engine.Explain(res, snap.Name)
			sg.Explanation = &exp
		}
		out.Results = append(out.Results, sg)
	}

	common.LogInfo("食譜推薦完成",
		zap.Int("ingredients", len(norm.Canonical)),
		zap.Int("unknown", len(norm.Unknown)),
		zap.Int("considered", ranking.Considered),
		zap.Int("returned", len(out.Results)),
		zap.Duration("duration", duration),
	)
	return out, nil
}

// Explain 說明單一食譜與使用者食材的比對結果（不套用過濾）
func (s *Service) Explain(_ context.Context, recipeID string, req ExplainRequest) (*ExplainResult, error) {
	snap := s.catalog.Snapshot()
	r, ok := snap.Recipe(recipeID)
	if !ok {
		return nil, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", recipeID))
	}

	norm := s.Normalize(req.Ingredients)
	engine := matching.NewEngine(s.opts, snap.Category)
	res := engine.MatchOne(matching.NewAvailableSet(norm.Canonical...), r, snap.Resolver(), s.resolvePreferences(snap, req.Preferences))

	return &ExplainResult{
		Recipe:      summarize(r),
		Match:       res,
		Explanation: engine.Explain(res, snap.Name),
		Ingredients: norm,
	}, nil
}

// Detail 食譜詳情與營養，並記錄瀏覽
func (s *Service) Detail(ctx context.Context, session, recipeID string) (*Detail, error) {
	snap := s.catalog.Snapshot()
	r, ok := snap.Recipe(recipeID)
	if !ok {
		return nil, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", recipeID))
	}

	nutrition, _ := snap.RecipeNutrition(recipeID)
	lines := make([]IngredientLine, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		lines = append(lines, IngredientLine{
			ID:        ri.IngredientID,
			Name:      snap.Name(ri.IngredientID),
			Category:  snap.Category(ri.IngredientID),
			Quantity:  ri.Quantity,
			Essential: ri.Essential,
		})
	}

	if s.history != nil {
		if err := s.history.LogView(ctx, session, r.ID, r.Name); err != nil {
			common.LogWarn("記錄瀏覽紀錄失敗", zap.String("recipe", r.ID), zap.Error(err))
		}
	}

	return &Detail{Recipe: r, Ingredients: lines, Nutrition: nutrition}, nil
}

// LocalDishes 地區相符的食譜
func (s *Service) LocalDishes(location string) []Summary {
	dishes := s.catalog.Snapshot().LocalDishes(location)
	out := make([]Summary, 0, len(dishes))
	for _, r := range dishes {
		out = append(out, summarize(r))
	}
	return out
}

// resolvePreferences 將排除的食材轉為標準 ID，無法辨識者保留原字
func (s *Service) resolvePreferences(snap *catalog.Snapshot, prefs *matching.Preference) *matching.Preference {
	if prefs == nil || len(prefs.ExcludedIngredients) == 0 {
		return prefs
	}
	out := *prefs
	out.ExcludedIngredients = make([]string, 0, len(prefs.ExcludedIngredients))
	for _, raw := range prefs.ExcludedIngredients {
		if id, ok := snap.Normalizer().Resolve(raw); ok {
			out.ExcludedIngredients = append(out.ExcludedIngredients, id)
			continue
		}
		out.ExcludedIngredients = append(out.ExcludedIngredients, raw)
	}
	return &out
}
