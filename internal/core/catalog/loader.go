package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"recipe-matcher/internal/core/matching"
	"recipe-matcher/internal/pkg/common"
)

// 目錄中的檔案名稱
const (
	IngredientsFile   = "ingredients.json"
	RecipesFile       = "recipes.json"
	SubstitutionsFile = "substitutions.json"
	NutritionFile     = "nutrition.csv"
)

// ingredientRef 食譜中的食材，可為字串或物件；未指定 essential 時視為必要
type ingredientRef struct {
	matching.RequiredIngredient
}

func (r *ingredientRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := common.ParseJSONBytes(data, &id); err != nil {
			return err
		}
		r.IngredientID = id
		r.Essential = true
		return nil
	}

	var obj struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Quantity  string `json:"quantity"`
		Essential *bool  `json:"essential"`
	}
	if err := common.ParseJSONBytesStrict(data, &obj); err != nil {
		return err
	}
	r.IngredientID = obj.ID
	if r.IngredientID == "" {
		r.IngredientID = obj.Name
	}
	r.Quantity = obj.Quantity
	r.Essential = obj.Essential == nil || *obj.Essential
	return nil
}

type recipeRecord struct {
	matching.Recipe
	Ingredients []ingredientRef `json:"ingredients"`
}

// Load 讀取目錄下的參考資料並建立快照；缺少的檔案以空資料處理，未知欄位視為錯誤
func Load(dir string) (*Snapshot, error) {
	var ingredients []matching.Ingredient
	if err := readJSON(filepath.Join(dir, IngredientsFile), &ingredients); err != nil {
		return nil, err
	}

	var records []recipeRecord
	if err := readJSON(filepath.Join(dir, RecipesFile), &records); err != nil {
		return nil, err
	}
	recipes := make([]matching.Recipe, 0, len(records))
	for _, rec := range records {
		r := rec.Recipe
		r.Ingredients = make([]matching.RequiredIngredient, 0, len(rec.Ingredients))
		for _, ref := range rec.Ingredients {
			r.Ingredients = append(r.Ingredients, ref.RequiredIngredient)
		}
		recipes = append(recipes, r)
	}

	var rules []matching.SubstitutionRule
	if err := readJSON(filepath.Join(dir, SubstitutionsFile), &rules); err != nil {
		return nil, err
	}

	table, err := readNutrition(filepath.Join(dir, NutritionFile))
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(ingredients, recipes, rules, table)
	stats := snap.Stats()
	common.LogInfo(common.MsgCatalogReady,
		zap.String("dir", dir),
		zap.Int("ingredients", stats.Ingredients),
		zap.Int("recipes", stats.Recipes),
		zap.Int("rules", stats.Rules),
		zap.Int("nutrition_items", stats.NutritionItems),
		zap.Int("auto_registered", stats.AutoRegistered),
	)
	return snap, nil
}

func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		common.LogWarn("找不到目錄檔案，使用空資料", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := common.DecodeJSONStrict(f, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func readNutrition(path string) (*NutritionTable, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		common.LogWarn("找不到營養資料檔，不計算營養", zap.String("path", path))
		return NewNutritionTable(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := ParseNutritionCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}
