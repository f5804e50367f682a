package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase and trim", in: "  Sugar  ", want: "sugar"},
		{name: "collapse whitespace", in: "green \t  onion", want: "green onion"},
		{name: "zero width and nbsp", in: "\u200bplain\u00a0flour\ufeff", want: "plain flour"},
		{name: "surrounding quotes", in: `"tomato!"`, want: "tomato"},
		{name: "quantity and unit", in: "2 cups Flour", want: "flour"},
		{name: "fraction and unit", in: "1/2 tbsp sugar", want: "sugar"},
		{name: "mixed fraction", in: "1 1/2 cups of milk", want: "milk"},
		{name: "multiplier", in: "3 x eggs", want: "eggs"},
		{name: "bare count", in: "3 eggs", want: "eggs"},
		{name: "full width", in: "\uff32\uff29\uff23\uff25", want: "rice"},
		{name: "only punctuation", in: "...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(testIngredients())

	t.Run("resolves names synonyms and plurals", func(t *testing.T) {
		got := n.Normalize([]string{"2 cups Flour", "Eggs", "green onions", "White Sugar", "Oat Milk"})

		assert.Equal(t, []string{"egg", "flour", "oat_milk", "scallion", "sugar"}, got.Canonical)
		assert.Empty(t, got.Unknown)
		assert.Empty(t, got.Suggestions)
	})

	t.Run("unknown term is reported not matched", func(t *testing.T) {
		got := n.Normalize([]string{"xyzzy123"})

		assert.Empty(t, got.Canonical)
		assert.Equal(t, []string{"xyzzy123"}, got.Unknown)
		assert.Empty(t, got.Suggestions)
	})

	t.Run("close misspelling gets a suggestion", func(t *testing.T) {
		got := n.Normalize([]string{"tomatoe"})

		assert.Empty(t, got.Canonical)
		require.Equal(t, []string{"tomatoe"}, got.Unknown)
		assert.Equal(t, "tomato", got.Suggestions["tomatoe"])
	})

	t.Run("duplicates collapse and blanks are skipped", func(t *testing.T) {
		got := n.Normalize([]string{"egg", "EGG", "eggs", "", "   "})

		assert.Equal(t, []string{"egg"}, got.Canonical)
		assert.Empty(t, got.Unknown)
	})

	t.Run("unknown keeps the original wording", func(t *testing.T) {
		got := n.Normalize([]string{"  Dragon Fruit ", "dragon fruit!", "!!!", "2", "Tomatoe"})

		assert.Empty(t, got.Canonical)
		assert.Equal(t, []string{"!!!", "2", "Dragon Fruit", "Tomatoe"}, got.Unknown)
		assert.Equal(t, "tomato", got.Suggestions["Tomatoe"])
		assert.NotContains(t, got.Suggestions, "!!!")
	})

	t.Run("canonical ids are idempotent", func(t *testing.T) {
		first := n.Normalize([]string{"Plain Flour", "spring onion", "1 banana", "milk"})
		second := n.Normalize(first.Canonical)

		assert.Equal(t, first.Canonical, second.Canonical)
		assert.Empty(t, second.Unknown)
	})

	t.Run("deterministic", func(t *testing.T) {
		in := []string{"tofu", "pork", "rice", "banana", "unknown thing"}
		assert.Equal(t, n.Normalize(in), n.Normalize(in))
	})
}

func TestNormalizer_Resolve(t *testing.T) {
	n := NewNormalizer(testIngredients())

	id, ok := n.Resolve("Spring Onions")
	assert.True(t, ok)
	assert.Equal(t, "scallion", id)

	_, ok = n.Resolve("dragon fruit")
	assert.False(t, ok)
}
