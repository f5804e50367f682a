package recipe

import (
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/image"
	"recipe-matcher/internal/core/matching"
)

// SuggestRequest 推薦請求；ingredients 與 image 至少需要一個
type SuggestRequest struct {
	Ingredients []string             `json:"ingredients" validate:"max=200,dive,max=100"`
	Image       string               `json:"image,omitempty"`
	Preferences *matching.Preference `json:"preferences,omitempty"`
	Limit       *int                 `json:"limit,omitempty" validate:"omitempty,min=0,max=100"`
	Explain     bool                 `json:"explain,omitempty"`
}

// ExplainRequest 單一食譜說明請求
type ExplainRequest struct {
	Ingredients []string             `json:"ingredients" validate:"max=200,dive,max=100"`
	Preferences *matching.Preference `json:"preferences,omitempty"`
}

// Summary 食譜摘要
type Summary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Region      string   `json:"region,omitempty"`
	TimeMinutes int      `json:"time,omitempty"`
	Skill       string   `json:"skill,omitempty"`
	Diet        []string `json:"diet,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

func summarize(r matching.Recipe) Summary {
	return Summary{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Region:      r.Region,
		TimeMinutes: r.TimeMinutes,
		Skill:       r.Skill,
		Diet:        r.Diet,
		ImageURL:    r.ImageURL,
	}
}

// Suggestion 單一推薦結果
type Suggestion struct {
	Recipe      Summary                  `json:"recipe"`
	Match       matching.MatchResult     `json:"match"`
	Explanation *matching.Explanation    `json:"explanation,omitempty"`
	Nutrition   *catalog.RecipeNutrition `json:"nutrition,omitempty"`
}

// SuggestResult 推薦結果；沒有符合的食譜時 Results 為空陣列
type SuggestResult struct {
	Results     []Suggestion             `json:"results"`
	Ingredients matching.NormalizeResult `json:"ingredients"`
	Detected    []string                 `json:"detected,omitempty"`
	Considered  int                      `json:"considered"`
	Filtered    map[string]int           `json:"filtered"`
}

// DetectResult 辨識結果
type DetectResult struct {
	Detected    []string                 `json:"detected"`
	Ingredients matching.NormalizeResult `json:"ingredients"`
	Cached      bool                     `json:"cached"`
	Image       *image.Image             `json:"image,omitempty"`
}

// ExplainResult 單一食譜說明
type ExplainResult struct {
	Recipe      Summary                  `json:"recipe"`
	Match       matching.MatchResult     `json:"match"`
	Explanation matching.Explanation     `json:"explanation"`
	Ingredients matching.NormalizeResult `json:"ingredients"`
}

// IngredientLine 食譜詳情中的食材
type IngredientLine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  string `json:"quantity,omitempty"`
	Essential bool   `json:"essential"`
}

// Detail 食譜詳情與營養
type Detail struct {
	Recipe      matching.Recipe         `json:"recipe"`
	Ingredients []IngredientLine        `json:"ingredients"`
	Nutrition   catalog.RecipeNutrition `json:"nutrition"`
}
