package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"recipe-matcher/internal/core/matching"
	"recipe-matcher/internal/pkg/common"
)

// 營養表必要欄位
var nutritionColumns = []string{"ingredient_name", "calories_100g", "protein_100g", "carbs_100g", "fat_100g"}

// NutritionTable 每 100g 營養資料，鍵為清理後的食材名稱
type NutritionTable struct {
	items map[string]matching.Nutrition
}

// NewNutritionTable 由名稱與營養資料建立表格
func NewNutritionTable(items map[string]matching.Nutrition) *NutritionTable {
	t := &NutritionTable{items: make(map[string]matching.Nutrition, len(items))}
	for name, n := range items {
		if key := matching.Clean(name); key != "" {
			t.items[key] = n
		}
	}
	return t
}

// ParseNutritionCSV 解析營養 CSV，數值錯誤的列會略過
func ParseNutritionCSV(r io.Reader) (*NutritionTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return NewNutritionTable(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read nutrition header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range nutritionColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("nutrition csv missing column %q", c)
		}
	}

	t := &NutritionTable{items: make(map[string]matching.Nutrition)}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read nutrition line %d: %w", line, err)
		}

		name := matching.Clean(field(record, cols["ingredient_name"]))
		if name == "" {
			continue
		}
		var n matching.Nutrition
		var parseErr error
		values := []*float64{&n.Calories, &n.Protein, &n.Carbs, &n.Fat}
		for i, c := range nutritionColumns[1:] {
			if *values[i], parseErr = parseFloat(field(record, cols[c])); parseErr != nil {
				break
			}
		}
		if parseErr != nil {
			common.LogWarn("略過無效的營養資料列", zap.Int("line", line), zap.String("ingredient", name), zap.Error(parseErr))
			continue
		}
		t.items[name] = n
	}
	return t, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %v", v)
	}
	return v, nil
}

// Lookup 依名稱查詢，依序嘗試原字、單數、複數
func (t *NutritionTable) Lookup(name string) (matching.Nutrition, bool) {
	if t == nil || len(t.items) == 0 {
		return matching.Nutrition{}, false
	}
	key := matching.Clean(name)
	if key == "" {
		return matching.Nutrition{}, false
	}
	for _, k := range []string{key, inflection.Singular(key), inflection.Plural(key)} {
		if n, ok := t.items[k]; ok {
			return n, true
		}
	}
	return matching.Nutrition{}, false
}

// Len 項目數
func (t *NutritionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}
