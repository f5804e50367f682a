package catalog

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-matcher/internal/core/matching"
	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/validation"
)

// CategoryOther 自動註冊食材的類別
const CategoryOther = "other"

// RecipeNutrition 食譜營養（總量與每份）
type RecipeNutrition struct {
	Total      matching.Nutrition `json:"total"`
	PerServing matching.Nutrition `json:"per_serving"`
	Servings   int                `json:"servings"`
	Computed   bool               `json:"computed"`
}

// Stats 目錄統計
type Stats struct {
	Ingredients    int       `json:"ingredients"`
	Recipes        int       `json:"recipes"`
	Rules          int       `json:"substitution_rules"`
	NutritionItems int       `json:"nutrition_items"`
	AutoRegistered int       `json:"auto_registered"`
	LoadedAt       time.Time `json:"loaded_at"`
}

// Snapshot 不可變的參考資料快照，建立後僅供讀取
type Snapshot struct {
	ingredients map[string]matching.Ingredient
	recipes     []matching.Recipe
	recipeIndex map[string]int
	nutrition   map[string]RecipeNutrition
	normalizer  *matching.Normalizer
	resolver    *matching.Resolver
	stats       Stats
}

// NewSnapshot 由原始資料建立快照
// 食譜與替代規則引用的未知食材會以 other 類別自動註冊
func NewSnapshot(ingredients []matching.Ingredient, recipes []matching.Recipe, rules []matching.SubstitutionRule, table *NutritionTable) *Snapshot {
	b := newBuilder(ingredients)

	// 解析食譜中的食材引用
	resolved := make([]matching.Recipe, 0, len(recipes))
	seen := make(map[string]struct{}, len(recipes))
	for _, r := range recipes {
		if err := validation.Struct(&r); err != nil {
			common.LogWarn("略過無效的食譜", zap.String("recipe", r.ID), zap.Error(err))
			continue
		}
		if _, dup := seen[r.ID]; dup {
			common.LogWarn("略過重複的食譜", zap.String("recipe", r.ID))
			continue
		}
		seen[r.ID] = struct{}{}

		out := r
		out.Ingredients = make([]matching.RequiredIngredient, 0, len(r.Ingredients))
		for _, ri := range r.Ingredients {
			ri.IngredientID = b.resolve(ri.IngredientID, "recipe", r.ID)
			if ri.IngredientID != "" {
				out.Ingredients = append(out.Ingredients, ri)
			}
		}
		resolved = append(resolved, out)
	}

	// 解析替代規則
	validRules := make([]matching.SubstitutionRule, 0, len(rules))
	for _, rule := range rules {
		rule.MissingID = b.resolve(rule.MissingID, "substitution", rule.SubstituteID)
		rule.SubstituteID = b.resolve(rule.SubstituteID, "substitution", rule.MissingID)
		if err := validation.Struct(&rule); err != nil {
			common.LogWarn("略過無效的替代規則",
				zap.String("missing", rule.MissingID),
				zap.String("substitute", rule.SubstituteID),
				zap.Error(err),
			)
			continue
		}
		validRules = append(validRules, rule)
	}

	list := b.list()
	s := &Snapshot{
		ingredients: b.byID,
		recipes:     resolved,
		recipeIndex: make(map[string]int, len(resolved)),
		nutrition:   make(map[string]RecipeNutrition, len(resolved)),
		normalizer:  matching.NewNormalizer(list),
		resolver:    matching.NewResolver(validRules),
		stats: Stats{
			Ingredients:    len(list),
			Recipes:        len(resolved),
			Rules:          len(validRules),
			NutritionItems: table.Len(),
			AutoRegistered: b.autoRegistered,
			LoadedAt:       time.Now(),
		},
	}

	for i := range s.recipes {
		r := &s.recipes[i]
		s.recipeIndex[r.ID] = i
		s.nutrition[r.ID] = s.computeNutrition(r, table)
	}
	return s
}

// computeNutrition 食譜沒有營養資料時由營養表加總，並回填每份數值
func (s *Snapshot) computeNutrition(r *matching.Recipe, table *NutritionTable) RecipeNutrition {
	servings := r.Servings
	if servings <= 0 {
		servings = 1
	}
	out := RecipeNutrition{Servings: servings}

	if !r.Nutrition.IsZero() {
		out.PerServing = r.Nutrition
		out.Total = scale(r.Nutrition, float64(servings))
		return out
	}

	for _, ri := range r.Ingredients {
		ing := s.ingredients[ri.IngredientID]
		n, ok := table.Lookup(ing.Name)
		if !ok {
			n, ok = table.Lookup(strings.ReplaceAll(ing.ID, "_", " "))
		}
		if !ok {
			continue
		}
		out.Total = add(out.Total, n)
	}
	out.PerServing = scale(out.Total, 1/float64(servings))
	out.Computed = true
	r.Nutrition = out.PerServing
	return out
}

// Recipes 所有食譜，呼叫端不得修改
func (s *Snapshot) Recipes() []matching.Recipe {
	return s.recipes
}

// Recipe 依 ID 取得食譜
func (s *Snapshot) Recipe(id string) (matching.Recipe, bool) {
	i, ok := s.recipeIndex[id]
	if !ok {
		return matching.Recipe{}, false
	}
	return s.recipes[i], true
}

// RecipeMap 以 ID 為鍵的食譜表
func (s *Snapshot) RecipeMap() map[string]matching.Recipe {
	out := make(map[string]matching.Recipe, len(s.recipes))
	for _, r := range s.recipes {
		out[r.ID] = r
	}
	return out
}

// Ingredient 依 ID 取得食材
func (s *Snapshot) Ingredient(id string) (matching.Ingredient, bool) {
	ing, ok := s.ingredients[id]
	return ing, ok
}

// Name 食材顯示名稱，未知時回傳 ID
func (s *Snapshot) Name(id string) string {
	if ing, ok := s.ingredients[id]; ok && ing.Name != "" {
		return ing.Name
	}
	return id
}

// Category 食材類別
func (s *Snapshot) Category(id string) string {
	if ing, ok := s.ingredients[id]; ok && ing.Category != "" {
		return ing.Category
	}
	return CategoryOther
}

// Normalizer 正規化器
func (s *Snapshot) Normalizer() *matching.Normalizer {
	return s.normalizer
}

// Resolver 替代解析器
func (s *Snapshot) Resolver() *matching.Resolver {
	return s.resolver
}

// LocalDishes 地區與 location 相符的食譜
func (s *Snapshot) LocalDishes(location string) []matching.Recipe {
	loc := matching.Clean(location)
	out := []matching.Recipe{}
	if loc == "" {
		return out
	}
	for _, r := range s.recipes {
		if matching.Clean(r.Region) == loc {
			out = append(out, r)
		}
	}
	return out
}

// RecipeNutrition 食譜營養
func (s *Snapshot) RecipeNutrition(id string) (RecipeNutrition, bool) {
	n, ok := s.nutrition[id]
	return n, ok
}

// Stats 目錄統計
func (s *Snapshot) Stats() Stats {
	return s.stats
}

// Empty 是否沒有任何食譜
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.recipes) == 0
}

// builder 建立快照時追蹤食材表與自動註冊
type builder struct {
	byID           map[string]matching.Ingredient
	normalizer     *matching.Normalizer
	autoRegistered int
}

func newBuilder(ingredients []matching.Ingredient) *builder {
	b := &builder{byID: make(map[string]matching.Ingredient, len(ingredients))}
	for _, ing := range ingredients {
		if err := validation.Struct(&ing); err != nil {
			common.LogWarn("略過無效的食材", zap.String("ingredient", ing.ID), zap.Error(err))
			continue
		}
		if ing.Name == "" {
			ing.Name = strings.ReplaceAll(ing.ID, "_", " ")
		}
		if ing.Category == "" {
			ing.Category = CategoryOther
		}
		b.byID[ing.ID] = ing
	}
	b.normalizer = matching.NewNormalizer(b.list())
	return b
}

// resolve 將食材引用解析為標準 ID，未知者自動註冊
func (b *builder) resolve(ref, owner, ownerID string) string {
	if ref == "" {
		return ""
	}
	if _, ok := b.byID[ref]; ok {
		return ref
	}
	if id, ok := b.normalizer.Resolve(ref); ok {
		return id
	}

	cleaned := matching.Clean(ref)
	if cleaned == "" {
		return ""
	}
	id := strings.ReplaceAll(cleaned, " ", "_")
	if _, ok := b.byID[id]; !ok {
		b.byID[id] = matching.Ingredient{ID: id, Name: cleaned, Category: CategoryOther}
		b.autoRegistered++
		common.LogWarn("自動註冊未知食材",
			zap.String("ingredient", id),
			zap.String(owner, ownerID),
		)
		b.normalizer = matching.NewNormalizer(b.list())
	}
	return id
}

func (b *builder) list() []matching.Ingredient {
	out := make([]matching.Ingredient, 0, len(b.byID))
	for _, ing := range b.byID {
		out = append(out, ing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func add(a, b matching.Nutrition) matching.Nutrition {
	return matching.Nutrition{
		Calories: a.Calories + b.Calories,
		Protein:  a.Protein + b.Protein,
		Carbs:    a.Carbs + b.Carbs,
		Fat:      a.Fat + b.Fat,
	}
}

func scale(n matching.Nutrition, f float64) matching.Nutrition {
	return matching.Nutrition{
		Calories: n.Calories * f,
		Protein:  n.Protein * f,
		Carbs:    n.Carbs * f,
		Fat:      n.Fat * f,
	}
}
