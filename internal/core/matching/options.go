package matching

// FitWeights 各偏好元件的權重。0（未設定）的欄位使用預設權重，負值停用該元件
type FitWeights struct {
	Region    float64 `mapstructure:"region"`
	Macro     float64 `mapstructure:"macro"`
	Taste     float64 `mapstructure:"taste"`
	Diet      float64 `mapstructure:"diet"`
	Time      float64 `mapstructure:"time"`
	Skill     float64 `mapstructure:"skill"`
	Exclusion float64 `mapstructure:"exclusion"`
}

// Options 比對與排序參數
type Options struct {
	OptionalGapPenalty float64    `mapstructure:"optional_gap_penalty"`
	MatchWeight        float64    `mapstructure:"match_weight"`
	PrefWeight         float64    `mapstructure:"pref_weight"`
	TieEpsilon         float64    `mapstructure:"tie_epsilon"`
	SoftExclusions     bool       `mapstructure:"soft_exclusions"`
	SuggestPurchases   bool       `mapstructure:"suggest_purchases"`
	Limit              int        `mapstructure:"limit"`
	Weights            FitWeights `mapstructure:"weights"`
}

// DefaultOptions 預設參數
func DefaultOptions() Options {
	return Options{
		OptionalGapPenalty: 0.1,
		MatchWeight:        0.7,
		PrefWeight:         0.3,
		TieEpsilon:         1e-6,
		Weights: FitWeights{
			Region:    1,
			Macro:     1,
			Taste:     1,
			Diet:      1,
			Time:      1,
			Skill:     1,
			Exclusion: 1,
		},
	}
}

// withDefaults 將不合法的數值替換為預設值
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.OptionalGapPenalty < 0 || o.OptionalGapPenalty > 1 {
		o.OptionalGapPenalty = d.OptionalGapPenalty
	}
	if o.MatchWeight < 0 || o.PrefWeight < 0 || o.MatchWeight+o.PrefWeight == 0 {
		o.MatchWeight, o.PrefWeight = d.MatchWeight, d.PrefWeight
	}
	if o.TieEpsilon <= 0 {
		o.TieEpsilon = d.TieEpsilon
	}
	if o.Limit < 0 {
		o.Limit = 0
	}
	o.Weights = o.Weights.withDefaults(d.Weights)
	return o
}

// withDefaults 逐欄補上預設權重，負值保留以停用元件
func (w FitWeights) withDefaults(d FitWeights) FitWeights {
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&w.Region, d.Region)
	fill(&w.Macro, d.Macro)
	fill(&w.Taste, d.Taste)
	fill(&w.Diet, d.Diet)
	fill(&w.Time, d.Time)
	fill(&w.Skill, d.Skill)
	fill(&w.Exclusion, d.Exclusion)
	return w
}
