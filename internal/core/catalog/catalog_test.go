package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-matcher/internal/core/matching"
)

const ingredientsJSON = `[
  {"id": "flour", "name": "Flour", "category": "grain"},
  {"id": "egg", "name": "Egg", "category": "dairy"},
  {"id": "banana", "name": "Banana", "category": "fruit"},
  {"id": "tomato", "name": "Tomato", "category": "vegetable"}
]`

const recipesJSON = `[
  {
    "id": "banana_bread",
    "name": "Banana Bread",
    "category": "baking",
    "region": "American",
    "servings": 2,
    "ingredients": [
      {"id": "flour", "quantity": "2 cups"},
      {"id": "Eggs"},
      {"id": "banana", "essential": false},
      "Baking Soda"
    ]
  },
  {
    "id": "tomato_salad",
    "name": "Tomato Salad",
    "category": "salad",
    "region": "italian",
    "servings": 1,
    "nutrition": {"calories": 120, "protein": 2, "carbs": 10, "fat": 8},
    "ingredients": ["tomato"]
  }
]`

const substitutionsJSON = `[
  {"missing": "egg", "substitute": "banana", "score": 0.8, "categories": ["any"]},
  {"missing": "egg", "substitute": "tomato", "score": 1.7},
  {"missing": "egg", "substitute": "Eggs", "score": 0.5}
]`

const nutritionCSV = "\ufeffingredient_name,calories_100g,protein_100g,carbs_100g,fat_100g\n" +
	"flour,364,10,76,1\n" +
	"eggs,155,13,1.1,11\n" +
	"banana,89,1.1,23,0.3\n" +
	"broken,abc,1,1,1\n"

func writeCatalog(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func fullCatalog(t *testing.T) string {
	return writeCatalog(t, map[string]string{
		IngredientsFile:   ingredientsJSON,
		RecipesFile:       recipesJSON,
		SubstitutionsFile: substitutionsJSON,
		NutritionFile:     nutritionCSV,
	})
}

func TestLoad(t *testing.T) {
	snap, err := Load(fullCatalog(t))
	require.NoError(t, err)

	t.Run("recipes and ingredient references", func(t *testing.T) {
		require.Len(t, snap.Recipes(), 2)
		bread, ok := snap.Recipe("banana_bread")
		require.True(t, ok)

		ids := make([]string, 0, len(bread.Ingredients))
		for _, ri := range bread.Ingredients {
			ids = append(ids, ri.IngredientID)
		}
		assert.Equal(t, []string{"flour", "egg", "banana", "baking_soda"}, ids)
		assert.True(t, bread.Ingredients[0].Essential)
		assert.Equal(t, "2 cups", bread.Ingredients[0].Quantity)
		assert.False(t, bread.Ingredients[2].Essential)
		assert.True(t, bread.Ingredients[3].Essential)
	})

	t.Run("unknown ingredient is auto registered", func(t *testing.T) {
		ing, ok := snap.Ingredient("baking_soda")
		require.True(t, ok)
		assert.Equal(t, CategoryOther, ing.Category)
		assert.Equal(t, 1, snap.Stats().AutoRegistered)

		id, ok := snap.Normalizer().Resolve("baking soda")
		assert.True(t, ok)
		assert.Equal(t, "baking_soda", id)
	})

	t.Run("invalid rules are rejected", func(t *testing.T) {
		assert.Equal(t, 1, snap.Stats().Rules)
		subs := snap.Resolver().FindSubstitutes("egg", matching.NewAvailableSet("banana", "tomato"), "baking", false)
		assert.Equal(t, []matching.Substitute{{ID: "banana", Score: 0.8, Available: true}}, subs)
	})

	t.Run("nutrition is computed per serving", func(t *testing.T) {
		n, ok := snap.RecipeNutrition("banana_bread")
		require.True(t, ok)
		assert.True(t, n.Computed)
		assert.InDelta(t, 364+155+89, n.Total.Calories, 1e-9)
		assert.InDelta(t, (364+155+89)/2.0, n.PerServing.Calories, 1e-9)

		bread, _ := snap.Recipe("banana_bread")
		assert.InDelta(t, n.PerServing.Protein, bread.Nutrition.Protein, 1e-9)
	})

	t.Run("explicit nutrition is kept", func(t *testing.T) {
		n, ok := snap.RecipeNutrition("tomato_salad")
		require.True(t, ok)
		assert.False(t, n.Computed)
		assert.Equal(t, 120.0, n.PerServing.Calories)
		assert.Equal(t, 120.0, n.Total.Calories)
	})

	t.Run("local dishes", func(t *testing.T) {
		dishes := snap.LocalDishes("  american ")
		require.Len(t, dishes, 1)
		assert.Equal(t, "banana_bread", dishes[0].ID)
		assert.Empty(t, snap.LocalDishes("mars"))
		assert.Empty(t, snap.LocalDishes(""))
	})

	t.Run("names and categories", func(t *testing.T) {
		assert.Equal(t, "Egg", snap.Name("egg"))
		assert.Equal(t, "saffron", snap.Name("saffron"))
		assert.Equal(t, "dairy", snap.Category("egg"))
		assert.Equal(t, CategoryOther, snap.Category("saffron"))
	})
}

func TestLoad_MissingFiles(t *testing.T) {
	snap, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := writeCatalog(t, map[string]string{RecipesFile: `[{"id": "x",`})

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), RecipesFile)
}

func TestLoad_UnknownField(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "misspelled recipe field", file: RecipesFile, body: `[{"id": "x", "name": "X", "servngs": 2, "ingredients": ["egg"]}]`},
		{name: "misspelled ingredient ref field", file: RecipesFile, body: `[{"id": "x", "name": "X", "ingredients": [{"id": "egg", "esential": false}]}]`},
		{name: "misspelled substitution field", file: SubstitutionsFile, body: `[{"missing": "egg", "substitue": "banana", "score": 0.5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCatalog(t, map[string]string{tt.file: tt.body})

			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.file)
		})
	}
}

func TestParseNutritionCSV(t *testing.T) {
	t.Run("skips invalid rows and resolves plurals", func(t *testing.T) {
		table, err := ParseNutritionCSV(strings.NewReader(nutritionCSV))
		require.NoError(t, err)

		assert.Equal(t, 3, table.Len())
		n, ok := table.Lookup("Egg")
		require.True(t, ok)
		assert.Equal(t, 155.0, n.Calories)

		n, ok = table.Lookup("bananas")
		require.True(t, ok)
		assert.Equal(t, 89.0, n.Calories)

		_, ok = table.Lookup("broken")
		assert.False(t, ok)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := ParseNutritionCSV(strings.NewReader("ingredient_name,calories_100g\nflour,364\n"))
		assert.Error(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		table, err := ParseNutritionCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
	})
}

func TestStore_Reload(t *testing.T) {
	dir := fullCatalog(t)
	store, err := NewStore(DirLoader(dir))
	require.NoError(t, err)

	first := store.Snapshot()
	require.Len(t, first.Recipes(), 2)

	t.Run("swaps in a new snapshot", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, RecipesFile), []byte(`[{"id":"solo","name":"Solo","ingredients":["egg"]}]`), 0o644))

		require.NoError(t, store.Reload())

		assert.Len(t, store.Snapshot().Recipes(), 1)
		// 舊快照不受影響
		assert.Len(t, first.Recipes(), 2)
	})

	t.Run("failed reload keeps the previous snapshot", func(t *testing.T) {
		before := store.Snapshot()
		require.NoError(t, os.WriteFile(filepath.Join(dir, RecipesFile), []byte(`not json`), 0o644))

		assert.Error(t, store.Reload())
		assert.Same(t, before, store.Snapshot())
	})
}

func TestNewStore_LoaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewStore(func() (*Snapshot, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
