package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RankerTestSuite struct {
	suite.Suite
	engine    *Engine
	resolver  *Resolver
	recipes   []Recipe
	available AvailableSet
}

func (s *RankerTestSuite) SetupTest() {
	s.engine = NewEngine(DefaultOptions(), testCategoryOf)
	s.resolver = NewResolver(testRules())
	soup := Recipe{ID: "tomato_soup", Category: "soup", Ingredients: []RequiredIngredient{
		{IngredientID: "tomato", Essential: true},
		{IngredientID: "milk"},
	}}
	s.recipes = []Recipe{pancakes(), omelette(), friedRice(), soup}
	s.available = NewAvailableSet("flour", "sugar", "banana", "rice", "tofu", "scallion")
}

func (s *RankerTestSuite) ids(results []MatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.RecipeID)
	}
	return out
}

func (s *RankerTestSuite) TestNoPreferences() {
	s.Run("BlockedRecipe_ShouldBeExcluded", func() {
		// Act
		results, err := s.engine.MatchAndRank(s.available, s.recipes, s.resolver, nil)

		// Assert
		s.Require().NoError(err)
		s.Equal([]string{"pancakes", "fried_rice", "omelette"}, s.ids(results))
	})

	s.Run("FinalScore_ShouldEqualRawScore", func() {
		results, err := s.engine.MatchAndRank(s.available, s.recipes, s.resolver, &Preference{})

		s.Require().NoError(err)
		for _, r := range results {
			s.Equal(r.RawScore, r.FinalScore)
			s.Empty(r.Fit)
		}
	})
}

func (s *RankerTestSuite) TestRegionPreference() {
	s.Run("MatchingRegion_ShouldMoveRecipeUp", func() {
		// Arrange
		prefs := &Preference{Region: "Taiwan"}

		// Act
		results, err := s.engine.MatchAndRank(s.available, s.recipes, s.resolver, prefs)

		// Assert
		s.Require().NoError(err)
		s.Require().Len(results, 3)
		s.Equal("fried_rice", results[0].RecipeID)
		s.InDelta(1.0, results[0].PreferenceFit, 1e-9)
		s.InDelta(0.8667*0.7+0.3, results[0].FinalScore, 1e-3)
		s.InDelta(0.9333*0.7, results[1].FinalScore, 1e-3)
	})
}

func (s *RankerTestSuite) TestExclusions() {
	s.Run("ExcludedSubstitute_ShouldFilterRecipe", func() {
		prefs := &Preference{ExcludedIngredients: []string{"tofu"}}

		results, err := s.engine.MatchAndRank(s.available, s.recipes, s.resolver, prefs)

		s.Require().NoError(err)
		s.Equal([]string{"pancakes", "omelette"}, s.ids(results))
		s.Equal(results[0].RawScore, results[0].FinalScore)
	})

	s.Run("ExcludedCategory_ShouldFilterRecipe", func() {
		prefs := &Preference{ExcludedCategories: []string{"Dairy"}}

		results, err := s.engine.MatchAndRank(s.available, s.recipes, s.resolver, prefs)

		s.Require().NoError(err)
		s.Equal([]string{"fried_rice"}, s.ids(results))
	})

	s.Run("SoftExclusion_ShouldScoreZeroInsteadOfFiltering", func() {
		opts := DefaultOptions()
		opts.SoftExclusions = true
		engine := NewEngine(opts, testCategoryOf)
		prefs := &Preference{ExcludedIngredients: []string{"tofu"}}

		results, err := engine.MatchAndRank(s.available, s.recipes, s.resolver, prefs)

		s.Require().NoError(err)
		s.Require().Len(results, 3)
		s.Equal("pancakes", results[0].RecipeID)
		s.InDelta(0.9333*0.7+0.3, results[0].FinalScore, 1e-3)
		s.Equal("fried_rice", results[1].RecipeID)
		s.Equal(0.0, results[1].PreferenceFit)
		s.Equal("omelette", results[2].RecipeID)
	})
}

func (s *RankerTestSuite) TestEdgeCases() {
	s.Run("EmptyCatalog_ShouldReturnError", func() {
		_, err := s.engine.MatchAndRank(s.available, nil, s.resolver, nil)
		s.ErrorIs(err, ErrEmptyCatalog)
	})

	s.Run("AllFiltered_ShouldReturnEmptySlice", func() {
		results, err := s.engine.MatchAndRank(NewAvailableSet(), []Recipe{omelette()}, s.resolver, nil)

		s.Require().NoError(err)
		s.NotNil(results)
		s.Empty(results)
	})

	s.Run("Limit_ShouldTruncate", func() {
		opts := DefaultOptions()
		opts.Limit = 1
		results, err := NewEngine(opts, nil).MatchAndRank(s.available, s.recipes, s.resolver, nil)

		s.Require().NoError(err)
		s.Equal([]string{"pancakes"}, s.ids(results))
	})

	s.Run("Deterministic_ShouldReturnSameOrder", func() {
		prefs := &Preference{Region: "american", MaxTimeMinutes: 20}
		first, err := s.engine.MatchAndRank(s.available, s.recipes, s.resolver, prefs)
		s.Require().NoError(err)
		second, err := s.engine.MatchAndRank(s.available, s.recipes, s.resolver, prefs)
		s.Require().NoError(err)

		s.Equal(first, second)
	})

	s.Run("FilterStats_ShouldCountReasons", func() {
		ranking, err := s.engine.Run(s.available, s.recipes, s.resolver, &Preference{ExcludedIngredients: []string{"tofu"}})

		s.Require().NoError(err)
		s.Equal(4, ranking.Considered)
		s.Equal(1, ranking.Filtered[FilterBlocked])
		s.Equal(1, ranking.Filtered[FilterExcluded])
	})
}

func TestRankerSuite(t *testing.T) {
	suite.Run(t, new(RankerTestSuite))
}

func TestRanker_TieBreak(t *testing.T) {
	rules := []SubstitutionRule{
		{MissingID: "a", SubstituteID: "s1", Score: 0.45},
		{MissingID: "b", SubstituteID: "s2", Score: 1},
	}
	recipes := []Recipe{
		// 覆蓋率 0.5，原始分數 0.45
		{ID: "aa_partial", Ingredients: []RequiredIngredient{{IngredientID: "c", Essential: true}, {IngredientID: "g"}}},
		// 覆蓋率 1，原始分數 0.45
		{ID: "zz_full", Ingredients: []RequiredIngredient{{IngredientID: "a", Essential: true}}},
		// 原始分數 1，一次替代
		{ID: "r_subbed", Ingredients: []RequiredIngredient{{IngredientID: "c"}, {IngredientID: "b"}}},
		// 原始分數 1，無替代
		{ID: "s_plain", Ingredients: []RequiredIngredient{{IngredientID: "c"}}},
		{ID: "s_copy", Ingredients: []RequiredIngredient{{IngredientID: "c"}}},
	}

	results, err := NewEngine(DefaultOptions(), nil).MatchAndRank(
		NewAvailableSet("c", "s1", "s2"), recipes, NewResolver(rules), nil)

	require.NoError(t, err)
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.RecipeID)
	}
	assert.Equal(t, []string{"s_copy", "s_plain", "r_subbed", "zz_full", "aa_partial"}, ids)
}

func TestRanker_NearTiesIndependentOfCatalogOrder(t *testing.T) {
	rules := []SubstitutionRule{
		{MissingID: "x_a", SubstituteID: "s", Score: 0.5},
		{MissingID: "x_b", SubstituteID: "s", Score: 0.5000007},
		{MissingID: "x_c", SubstituteID: "s", Score: 0.5000014},
	}
	a := Recipe{ID: "a", Ingredients: []RequiredIngredient{{IngredientID: "x_a", Essential: true}}}
	b := Recipe{ID: "b", Ingredients: []RequiredIngredient{{IngredientID: "x_b", Essential: true}}}
	c := Recipe{ID: "c", Ingredients: []RequiredIngredient{{IngredientID: "x_c", Essential: true}}}

	orders := [][]Recipe{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	engine := NewEngine(DefaultOptions(), nil)
	for _, order := range orders {
		results, err := engine.MatchAndRank(NewAvailableSet("s"), order, NewResolver(rules), nil)
		require.NoError(t, err)

		ids := make([]string, 0, len(results))
		for _, r := range results {
			ids = append(ids, r.RecipeID)
		}
		// b 與 c 落在同一區間，依 ID 排序；a 分數較低排最後
		assert.Equal(t, []string{"b", "c", "a"}, ids, "order %s%s%s", order[0].ID, order[1].ID, order[2].ID)
	}
}

func TestOptions_PartialWeights(t *testing.T) {
	opts := Options{Weights: FitWeights{Region: 2, Taste: -1}}.withDefaults()

	assert.Equal(t, FitWeights{Region: 2, Macro: 1, Taste: -1, Diet: 1, Time: 1, Skill: 1, Exclusion: 1}, opts.Weights)

	rk := NewRanker(Options{Weights: FitWeights{Region: 2, Taste: -1}}, nil)
	fit := []FitComponent{
		{Name: FitRegion, Score: 1},
		{Name: FitTime, Score: 0},
		{Name: FitTaste, Score: 0},
	}
	// 時間沿用預設權重 1，口味已停用
	assert.InDelta(t, 2.0/3.0, rk.weightedFit(fit), 1e-9)
}

func TestFitFunctions(t *testing.T) {
	t.Run("macro closeness", func(t *testing.T) {
		score, ok := macroCloseness(Nutrition{Calories: 500, Protein: 20}, &Nutrition{Calories: 400, Protein: 20})
		assert.True(t, ok)
		assert.InDelta(t, 0.875, score, 1e-9)

		_, ok = macroCloseness(Nutrition{Calories: 500}, &Nutrition{})
		assert.False(t, ok)
	})

	t.Run("time falloff", func(t *testing.T) {
		assert.Equal(t, 1.0, timeFit(30, 30))
		assert.InDelta(t, 0.5, timeFit(45, 30), 1e-9)
		assert.Equal(t, 0.0, timeFit(90, 30))
		assert.Equal(t, 0.5, timeFit(0, 30))
	})

	t.Run("skill fit", func(t *testing.T) {
		assert.Equal(t, 1.0, skillFit("easy", "advanced"))
		assert.Equal(t, 0.5, skillFit("intermediate", "beginner"))
		assert.Equal(t, 0.0, skillFit("advanced", "beginner"))
		assert.Equal(t, 0.5, skillFit("", "beginner"))
	})
}
