package matching

import "fmt"

// SubstitutionNote 替代說明
type SubstitutionNote struct {
	Missing    string  `json:"missing"`
	Substitute string  `json:"substitute"`
	Score      float64 `json:"score"`
}

// MissingNote 缺少食材說明
type MissingNote struct {
	Ingredient   string   `json:"ingredient"`
	Essential    bool     `json:"essential"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Explanation 人類可讀的排序說明
type Explanation struct {
	RecipeID      string             `json:"recipe_id"`
	Coverage      float64            `json:"coverage"`
	RawScore      float64            `json:"raw_score"`
	PreferenceFit float64            `json:"preference_fit"`
	FinalScore    float64            `json:"final_score"`
	Available     []string           `json:"available"`
	Substituted   []SubstitutionNote `json:"substituted"`
	Missing       []MissingNote      `json:"missing"`
	Reasons       []string           `json:"reasons"`
}

// Explain 產生比對結果的說明，names 將食材 ID 轉為顯示名稱（可為 nil）
func Explain(result MatchResult, names func(id string) string) Explanation {
	name := func(id string) string {
		if names == nil {
			return id
		}
		if n := names(id); n != "" {
			return n
		}
		return id
	}

	exp := Explanation{
		RecipeID:      result.RecipeID,
		Coverage:      result.Coverage,
		RawScore:      result.RawScore,
		PreferenceFit: result.PreferenceFit,
		FinalScore:    result.FinalScore,
		Available:     []string{},
		Substituted:   []SubstitutionNote{},
		Missing:       []MissingNote{},
		Reasons:       []string{},
	}

	covered := 0
	for _, line := range result.Lines {
		switch line.Status {
		case StatusAvailable:
			covered++
			exp.Available = append(exp.Available, name(line.IngredientID))
		case StatusSubstituted:
			covered++
			note := SubstitutionNote{Missing: name(line.IngredientID), Score: line.Substitute.Score}
			note.Substitute = name(line.Substitute.ID)
			exp.Substituted = append(exp.Substituted, note)
		case StatusOptionalGap, StatusBlockingGap:
			note := MissingNote{Ingredient: name(line.IngredientID), Essential: line.Status == StatusBlockingGap}
			for _, alt := range line.Alternatives {
				note.Alternatives = append(note.Alternatives, name(alt.ID))
			}
			exp.Missing = append(exp.Missing, note)
		}
	}

	if len(result.Lines) == 0 {
		exp.Reasons = append(exp.Reasons, "recipe needs no listed ingredients")
	} else {
		exp.Reasons = append(exp.Reasons, fmt.Sprintf("you have %d of %d ingredients (coverage %.0f%%)",
			covered, len(result.Lines), result.Coverage*100))
	}
	for _, s := range exp.Substituted {
		exp.Reasons = append(exp.Reasons, fmt.Sprintf("use %s instead of %s (substitution score %.2f)",
			s.Substitute, s.Missing, s.Score))
	}
	for _, m := range exp.Missing {
		reason := fmt.Sprintf("optional ingredient missing: %s", m.Ingredient)
		if m.Essential {
			reason = fmt.Sprintf("essential ingredient missing: %s", m.Ingredient)
		}
		exp.Reasons = append(exp.Reasons, reason)
	}
	for _, c := range result.Fit {
		exp.Reasons = append(exp.Reasons, fitReason(c))
	}
	if !result.Usable {
		exp.Reasons = append(exp.Reasons, "cannot be cooked without buying the essential ingredients")
	}
	return exp
}

func fitReason(c FitComponent) string {
	switch c.Name {
	case FitRegion:
		if c.Score >= 1 {
			return "matches your preferred region"
		}
		return "from a different region than preferred"
	case FitExclusion:
		if c.Score >= 1 {
			return "avoids your excluded ingredients"
		}
		return "contains an ingredient you prefer to avoid"
	}
	return fmt.Sprintf("%s preference fit %.2f", c.Name, c.Score)
}
