package matching

// Matcher 計算單一食譜的覆蓋率與原始分數（不考慮偏好）
type Matcher struct {
	resolver *Resolver
	opts     Options
}

// NewMatcher 建立比對器
func NewMatcher(resolver *Resolver, opts Options) *Matcher {
	return &Matcher{resolver: resolver, opts: opts.withDefaults()}
}

// Match 將食譜與使用者擁有的食材比對
func (m *Matcher) Match(recipe Recipe, available AvailableSet) MatchResult {
	result := MatchResult{
		RecipeID: recipe.ID,
		Category: recipe.Category,
		Region:   recipe.Region,
		Lines:    make([]IngredientMatch, 0, len(recipe.Ingredients)),
	}

	required := dedupeIngredients(recipe.Ingredients)
	if len(required) == 0 {
		result.Coverage = 1
		result.RawScore = 1
		result.Usable = true
		return result
	}

	covered := 0
	for _, ri := range required {
		line := IngredientMatch{
			IngredientID: ri.IngredientID,
			Quantity:     ri.Quantity,
			Essential:    ri.Essential,
		}

		switch {
		case available.Has(ri.IngredientID):
			line.Status = StatusAvailable
			covered++
		default:
			if sub, ok := m.resolver.Best(ri.IngredientID, available, recipe.Category); ok {
				line.Status = StatusSubstituted
				line.Substitute = &sub
				line.Penalty = 1 - sub.Score
				covered++
				result.SubstitutionCount++
				break
			}
			if ri.Essential {
				line.Status = StatusBlockingGap
				line.Penalty = 1
				result.BlockingCount++
			} else {
				line.Status = StatusOptionalGap
				line.Penalty = m.opts.OptionalGapPenalty
			}
			if m.opts.SuggestPurchases {
				line.Alternatives = m.resolver.FindSubstitutes(ri.IngredientID, available, recipe.Category, true)
			}
		}

		result.Penalty += line.Penalty
		result.Lines = append(result.Lines, line)
	}

	total := float64(len(required))
	result.Coverage = clamp01(float64(covered) / total)
	result.RawScore = clamp01(result.Coverage - result.Penalty/total)
	result.Usable = result.BlockingCount == 0
	return result
}

// MatchAll 依序比對所有食譜
func (m *Matcher) MatchAll(recipes []Recipe, available AvailableSet) []MatchResult {
	results := make([]MatchResult, 0, len(recipes))
	for _, recipe := range recipes {
		results = append(results, m.Match(recipe, available))
	}
	return results
}

// dedupeIngredients 合併重複食材，任一筆為必要即視為必要
func dedupeIngredients(in []RequiredIngredient) []RequiredIngredient {
	out := make([]RequiredIngredient, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, ri := range in {
		if ri.IngredientID == "" {
			continue
		}
		if i, ok := pos[ri.IngredientID]; ok {
			out[i].Essential = out[i].Essential || ri.Essential
			continue
		}
		pos[ri.IngredientID] = len(out)
		out = append(out, ri)
	}
	return out
}
