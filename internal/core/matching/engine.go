package matching

// Engine 比對與排序的組合入口，純函式、無 I/O
type Engine struct {
	opts       Options
	categoryOf func(id string) string
}

// NewEngine 建立引擎，categoryOf 可為 nil
func NewEngine(opts Options, categoryOf func(id string) string) *Engine {
	return &Engine{opts: opts.withDefaults(), categoryOf: categoryOf}
}

// Options 目前使用的參數
func (e *Engine) Options() Options {
	return e.opts
}

// MatchAndRank 比對所有食譜後依偏好排序
func (e *Engine) MatchAndRank(available AvailableSet, recipes []Recipe, resolver *Resolver, prefs *Preference) ([]MatchResult, error) {
	ranking, err := e.Run(available, recipes, resolver, prefs)
	if err != nil {
		return nil, err
	}
	return ranking.Results, nil
}

// Run 同 MatchAndRank，並回傳過濾統計
func (e *Engine) Run(available AvailableSet, recipes []Recipe, resolver *Resolver, prefs *Preference) (Ranking, error) {
	if len(recipes) == 0 {
		return Ranking{}, ErrEmptyCatalog
	}

	byID := make(map[string]Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	results := NewMatcher(resolver, e.opts).MatchAll(recipes, available)
	return NewRanker(e.opts, e.categoryOf).RankDetailed(results, byID, prefs)
}

// MatchOne 比對單一食譜並套用偏好分數（不過濾），用於說明
func (e *Engine) MatchOne(available AvailableSet, recipe Recipe, resolver *Resolver, prefs *Preference) MatchResult {
	res := NewMatcher(resolver, e.opts).Match(recipe, available)
	rk := NewRanker(e.opts, e.categoryOf)
	excl := rk.exclusions(prefs)
	rk.applyPreferences(&res, recipe, prefs, excl, excl.violatedBy(res))
	return res
}

// Explain 產生說明
func (e *Engine) Explain(result MatchResult, names func(id string) string) Explanation {
	return Explain(result, names)
}
