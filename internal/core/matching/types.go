package matching

import "sort"

// CategoryAny 適用於所有食譜類別的替代規則
const CategoryAny = "any"

// Ingredient 標準食材（不可變的參考資料）
type Ingredient struct {
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name"`
	Synonyms []string `json:"synonyms,omitempty"`
	Category string   `json:"category"`
}

// SubstitutionRule 替代規則：缺少 MissingID 時可用 SubstituteID 代替
type SubstitutionRule struct {
	MissingID    string   `json:"missing" validate:"required"`
	SubstituteID string   `json:"substitute" validate:"required,nefield=MissingID"`
	Score        float64  `json:"score" validate:"gte=0,lte=1"`
	Categories   []string `json:"categories,omitempty"`
}

// appliesTo 檢查規則是否適用於指定的食譜類別
func (r SubstitutionRule) appliesTo(recipeCategory string) bool {
	if len(r.Categories) == 0 {
		return true
	}
	for _, c := range r.Categories {
		c = foldKey(c)
		if c == CategoryAny || c == foldKey(recipeCategory) {
			return true
		}
	}
	return false
}

// Nutrition 營養資訊（每份）
type Nutrition struct {
	Calories float64 `json:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" validate:"gte=0"`
}

// IsZero 是否沒有任何營養資料
func (n Nutrition) IsZero() bool {
	return n.Calories == 0 && n.Protein == 0 && n.Carbs == 0 && n.Fat == 0
}

// RequiredIngredient 食譜所需食材
type RequiredIngredient struct {
	IngredientID string `json:"id" validate:"required"`
	Quantity     string `json:"quantity,omitempty"`
	Essential    bool   `json:"essential"`
}

// Recipe 食譜（每次請求週期內唯讀）
type Recipe struct {
	ID          string               `json:"id" validate:"required"`
	Name        string               `json:"name" validate:"required"`
	Ingredients []RequiredIngredient `json:"ingredients" validate:"dive"`
	Category    string               `json:"category"`
	Region      string               `json:"region"`
	Nutrition   Nutrition            `json:"nutrition"`
	Servings    int                  `json:"servings" validate:"gte=0"`
	TasteTags   []string             `json:"taste_tags,omitempty"`
	Diet        []string             `json:"diet,omitempty"`
	TimeMinutes int                  `json:"time,omitempty" validate:"gte=0"`
	Skill       string               `json:"skill,omitempty"`
	Steps       []string             `json:"steps,omitempty"`
	ImageURL    string               `json:"image_url,omitempty"`
}

// AvailableSet 使用者目前擁有的標準食材 ID 集合
type AvailableSet map[string]struct{}

// NewAvailableSet 由食材 ID 建立集合
func NewAvailableSet(ids ...string) AvailableSet {
	set := make(AvailableSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Has 是否擁有該食材
func (s AvailableSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// With 回傳加入新食材後的副本，原集合不變
func (s AvailableSet) With(ids ...string) AvailableSet {
	out := make(AvailableSet, len(s)+len(ids))
	for id := range s {
		out[id] = struct{}{}
	}
	for _, id := range ids {
		if id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}

// IDs 已排序的食材 ID
func (s AvailableSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Preference 使用者偏好，nil 代表中性權重
type Preference struct {
	Region              string     `json:"region,omitempty"`
	ExcludedIngredients []string   `json:"excluded_ingredients,omitempty"`
	ExcludedCategories  []string   `json:"excluded_categories,omitempty"`
	MacroTargets        *Nutrition `json:"macro_targets,omitempty"`
	Taste               string     `json:"taste,omitempty"`
	Diet                string     `json:"diet,omitempty"`
	MaxTimeMinutes      int        `json:"max_time,omitempty"`
	Skill               string     `json:"skill,omitempty"`
}

// MatchStatus 單一食材的匹配狀態
type MatchStatus string

const (
	StatusAvailable   MatchStatus = "available"
	StatusSubstituted MatchStatus = "substituted"
	StatusOptionalGap MatchStatus = "optional_gap"
	StatusBlockingGap MatchStatus = "blocking_gap"
)

// Substitute 候選替代食材
type Substitute struct {
	ID        string  `json:"id"`
	Score     float64 `json:"score"`
	Available bool    `json:"available"`
}

// IngredientMatch 單一食材的匹配明細
type IngredientMatch struct {
	IngredientID string       `json:"ingredient_id"`
	Quantity     string       `json:"quantity,omitempty"`
	Essential    bool         `json:"essential"`
	Status       MatchStatus  `json:"status"`
	Substitute   *Substitute  `json:"substitute,omitempty"`
	Penalty      float64      `json:"penalty"`
	Alternatives []Substitute `json:"alternatives,omitempty"`
}

// FitComponent 單一偏好元件的分數
type FitComponent struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// MatchResult 單一食譜的匹配結果（每次請求計算，不持久化）
type MatchResult struct {
	RecipeID          string            `json:"recipe_id"`
	Category          string            `json:"category"`
	Region            string            `json:"region"`
	Coverage          float64           `json:"coverage"`
	Lines             []IngredientMatch `json:"lines"`
	Penalty           float64           `json:"penalty"`
	RawScore          float64           `json:"raw_score"`
	PreferenceFit     float64           `json:"preference_fit"`
	Fit               []FitComponent    `json:"fit_components,omitempty"`
	FinalScore        float64           `json:"final_score"`
	SubstitutionCount int               `json:"substitution_count"`
	BlockingCount     int               `json:"blocking_count"`
	Usable            bool              `json:"usable"`
}

// Missing 回傳未直接擁有的食材明細（含替代與缺口）
func (r MatchResult) Missing() []IngredientMatch {
	out := make([]IngredientMatch, 0, len(r.Lines))
	for _, line := range r.Lines {
		if line.Status != StatusAvailable {
			out = append(out, line)
		}
	}
	return out
}
