package matching

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyCatalog 食譜目錄為空
var ErrEmptyCatalog = errors.New("recipe catalog is empty")

// FilterReason 食譜被排除的原因
type FilterReason string

const (
	FilterBlocked  FilterReason = "blocked"
	FilterExcluded FilterReason = "excluded"
	FilterUnknown  FilterReason = "unknown_recipe"
)

// 偏好元件名稱
const (
	FitRegion    = "region"
	FitMacro     = "macro"
	FitTaste     = "taste"
	FitDiet      = "diet"
	FitTime      = "time"
	FitSkill     = "skill"
	FitExclusion = "exclusion"
)

var skillLevels = map[string]int{
	"beginner":     1,
	"easy":         1,
	"intermediate": 2,
	"medium":       2,
	"advanced":     3,
	"hard":         3,
	"expert":       3,
}

// Ranking 排序結果與過濾統計
type Ranking struct {
	Results    []MatchResult
	Considered int
	Filtered   map[FilterReason]int
}

// Ranker 依偏好過濾並排序比對結果
type Ranker struct {
	opts       Options
	categoryOf func(id string) string
}

// NewRanker 建立排序器，categoryOf 用於食材類別排除，可為 nil
func NewRanker(opts Options, categoryOf func(id string) string) *Ranker {
	return &Ranker{opts: opts.withDefaults(), categoryOf: categoryOf}
}

// Rank 過濾並排序比對結果
func (rk *Ranker) Rank(results []MatchResult, recipes map[string]Recipe, prefs *Preference) ([]MatchResult, error) {
	ranking, err := rk.RankDetailed(results, recipes, prefs)
	if err != nil {
		return nil, err
	}
	return ranking.Results, nil
}

// RankDetailed 同 Rank，並回傳各原因的過濾數量
func (rk *Ranker) RankDetailed(results []MatchResult, recipes map[string]Recipe, prefs *Preference) (Ranking, error) {
	if len(recipes) == 0 {
		return Ranking{}, ErrEmptyCatalog
	}

	ranking := Ranking{
		Results:    make([]MatchResult, 0, len(results)),
		Considered: len(results),
		Filtered:   make(map[FilterReason]int),
	}
	excl := rk.exclusions(prefs)

	for _, res := range results {
		recipe, ok := recipes[res.RecipeID]
		if !ok {
			ranking.Filtered[FilterUnknown]++
			continue
		}
		if !res.Usable || res.BlockingCount > 0 {
			ranking.Filtered[FilterBlocked]++
			continue
		}

		violates := excl.violatedBy(res)
		if violates && !rk.opts.SoftExclusions {
			ranking.Filtered[FilterExcluded]++
			continue
		}

		rk.applyPreferences(&res, recipe, prefs, excl, violates)
		ranking.Results = append(ranking.Results, res)
	}

	eps := rk.opts.TieEpsilon
	sort.SliceStable(ranking.Results, func(i, j int) bool {
		a, b := ranking.Results[i], ranking.Results[j]
		if sa, sb := bucket(a.FinalScore, eps), bucket(b.FinalScore, eps); sa != sb {
			return sa > sb
		}
		if ca, cb := bucket(a.Coverage, eps), bucket(b.Coverage, eps); ca != cb {
			return ca > cb
		}
		if a.SubstitutionCount != b.SubstitutionCount {
			return a.SubstitutionCount < b.SubstitutionCount
		}
		return a.RecipeID < b.RecipeID
	})

	if rk.opts.Limit > 0 && len(ranking.Results) > rk.opts.Limit {
		ranking.Results = ranking.Results[:rk.opts.Limit]
	}
	return ranking, nil
}

// bucket 將分數量化為 eps 寬的區間，區間相同者視為同分
func bucket(score, eps float64) int64 {
	return int64(math.Round(score / eps))
}

// applyPreferences 計算偏好契合度與最終分數；沒有任何啟用元件時最終分數等於原始分數
func (rk *Ranker) applyPreferences(res *MatchResult, recipe Recipe, prefs *Preference, excl exclusionSet, violates bool) {
	res.Fit = rk.fitComponents(recipe, prefs, excl, violates)
	res.PreferenceFit = rk.weightedFit(res.Fit)
	if len(res.Fit) > 0 {
		res.FinalScore = clamp01(res.RawScore*rk.opts.MatchWeight + res.PreferenceFit*rk.opts.PrefWeight)
		return
	}
	res.FinalScore = res.RawScore
}

type exclusionSet struct {
	ingredients map[string]struct{}
	categories  map[string]struct{}
	categoryOf  func(string) string
}

func (rk *Ranker) exclusions(prefs *Preference) exclusionSet {
	set := exclusionSet{
		ingredients: make(map[string]struct{}),
		categories:  make(map[string]struct{}),
		categoryOf:  rk.categoryOf,
	}
	if prefs == nil {
		return set
	}
	for _, id := range prefs.ExcludedIngredients {
		if id != "" {
			set.ingredients[id] = struct{}{}
		}
	}
	for _, c := range prefs.ExcludedCategories {
		if c = foldKey(c); c != "" {
			set.categories[c] = struct{}{}
		}
	}
	return set
}

func (s exclusionSet) active() bool {
	return len(s.ingredients) > 0 || len(s.categories) > 0
}

func (s exclusionSet) excluded(id string) bool {
	if _, ok := s.ingredients[id]; ok {
		return true
	}
	if len(s.categories) > 0 && s.categoryOf != nil {
		if _, ok := s.categories[foldKey(s.categoryOf(id))]; ok {
			return true
		}
	}
	return false
}

// violatedBy 食譜的必要食材或選用的替代品是否被排除
func (s exclusionSet) violatedBy(res MatchResult) bool {
	if !s.active() {
		return false
	}
	for _, line := range res.Lines {
		if s.excluded(line.IngredientID) {
			return true
		}
		if line.Substitute != nil && s.excluded(line.Substitute.ID) {
			return true
		}
	}
	return false
}

// fitComponents 計算啟用中的偏好元件分數
func (rk *Ranker) fitComponents(recipe Recipe, prefs *Preference, excl exclusionSet, violates bool) []FitComponent {
	if prefs == nil {
		return nil
	}
	var fit []FitComponent

	if prefs.Region != "" {
		fit = append(fit, FitComponent{Name: FitRegion, Score: boolScore(foldKey(prefs.Region) == foldKey(recipe.Region))})
	}
	if score, ok := macroCloseness(recipe.Nutrition, prefs.MacroTargets); ok {
		fit = append(fit, FitComponent{Name: FitMacro, Score: score})
	}
	if prefs.Taste != "" {
		fit = append(fit, FitComponent{Name: FitTaste, Score: boolScore(containsFold(recipe.TasteTags, prefs.Taste))})
	}
	if prefs.Diet != "" {
		fit = append(fit, FitComponent{Name: FitDiet, Score: boolScore(containsFold(recipe.Diet, prefs.Diet))})
	}
	if prefs.MaxTimeMinutes > 0 {
		fit = append(fit, FitComponent{Name: FitTime, Score: timeFit(recipe.TimeMinutes, prefs.MaxTimeMinutes)})
	}
	if prefs.Skill != "" {
		fit = append(fit, FitComponent{Name: FitSkill, Score: skillFit(recipe.Skill, prefs.Skill)})
	}
	if rk.opts.SoftExclusions && excl.active() {
		fit = append(fit, FitComponent{Name: FitExclusion, Score: boolScore(!violates)})
	}
	return fit
}

func (rk *Ranker) weight(name string) float64 {
	w := rk.opts.Weights
	switch name {
	case FitRegion:
		return w.Region
	case FitMacro:
		return w.Macro
	case FitTaste:
		return w.Taste
	case FitDiet:
		return w.Diet
	case FitTime:
		return w.Time
	case FitSkill:
		return w.Skill
	case FitExclusion:
		return w.Exclusion
	}
	return 0
}

// weightedFit 啟用元件的加權平均
func (rk *Ranker) weightedFit(fit []FitComponent) float64 {
	var sum, total float64
	for _, c := range fit {
		w := rk.weight(c.Name)
		if w <= 0 {
			continue
		}
		sum += w * c.Score
		total += w
	}
	if total == 0 {
		return 0
	}
	return clamp01(sum / total)
}

// macroCloseness 1 減去各目標相對距離（上限 1）的平均
func macroCloseness(actual Nutrition, target *Nutrition) (float64, bool) {
	if target == nil {
		return 0, false
	}
	pairs := [][2]float64{
		{actual.Calories, target.Calories},
		{actual.Protein, target.Protein},
		{actual.Carbs, target.Carbs},
		{actual.Fat, target.Fat},
	}
	var dist float64
	n := 0
	for _, p := range pairs {
		if p[1] <= 0 {
			continue
		}
		dist += math.Min(1, math.Abs(p[0]-p[1])/math.Max(p[1], 1))
		n++
	}
	if n == 0 {
		return 0, false
	}
	return clamp01(1 - dist/float64(n)), true
}

// timeFit 在上限內為 1，超過後線性遞減，兩倍上限時為 0
func timeFit(minutes, limit int) float64 {
	if minutes <= 0 {
		return 0.5
	}
	if minutes <= limit {
		return 1
	}
	return clamp01(1 - float64(minutes-limit)/float64(limit))
}

// skillFit 食譜難度不高於使用者程度為 1，每高一級扣 0.5
func skillFit(recipeSkill, userSkill string) float64 {
	r, rok := skillLevels[foldKey(recipeSkill)]
	u, uok := skillLevels[foldKey(userSkill)]
	switch {
	case !rok:
		return 0.5
	case !uok:
		return boolScore(foldKey(recipeSkill) == foldKey(userSkill))
	case r <= u:
		return 1
	default:
		return clamp01(1 - 0.5*float64(r-u))
	}
}

func containsFold(values []string, want string) bool {
	want = foldKey(want)
	for _, v := range values {
		if foldKey(v) == want {
			return true
		}
	}
	return false
}

func boolScore(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
