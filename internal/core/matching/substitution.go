package matching

import "sort"

// Resolver 替代食材解析器，索引建立後唯讀
type Resolver struct {
	index map[string][]SubstitutionRule
	count int
}

// NewResolver 由替代規則建立索引
func NewResolver(rules []SubstitutionRule) *Resolver {
	r := &Resolver{index: make(map[string][]SubstitutionRule)}
	for _, rule := range rules {
		if rule.MissingID == "" || rule.SubstituteID == "" || rule.MissingID == rule.SubstituteID {
			continue
		}
		r.index[rule.MissingID] = append(r.index[rule.MissingID], rule)
		r.count++
	}
	return r
}

// Rules 規則數量
func (r *Resolver) Rules() int {
	if r == nil {
		return 0
	}
	return r.count
}

// FindSubstitutes 找出缺少食材的可用替代品
// includeAbsent 為 true 時也回傳使用者目前沒有的替代品（用於購物建議）
func (r *Resolver) FindSubstitutes(missingID string, available AvailableSet, recipeCategory string, includeAbsent bool) []Substitute {
	if r == nil {
		return []Substitute{}
	}

	// 同一候選只取最高分的適用規則
	best := make(map[string]float64)
	for _, rule := range r.index[missingID] {
		if !rule.appliesTo(recipeCategory) {
			continue
		}
		if !includeAbsent && !available.Has(rule.SubstituteID) {
			continue
		}
		if score, ok := best[rule.SubstituteID]; !ok || rule.Score > score {
			best[rule.SubstituteID] = rule.Score
		}
	}

	out := make([]Substitute, 0, len(best))
	for id, score := range best {
		out = append(out, Substitute{ID: id, Score: clamp01(score), Available: available.Has(id)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Best 回傳最佳可用替代品
func (r *Resolver) Best(missingID string, available AvailableSet, recipeCategory string) (Substitute, bool) {
	subs := r.FindSubstitutes(missingID, available, recipeCategory, false)
	if len(subs) == 0 {
		return Substitute{}, false
	}
	return subs[0], true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
