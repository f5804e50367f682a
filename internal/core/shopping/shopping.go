// Package shopping 依選定的食譜整理待購食材清單
package shopping

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-matcher/internal/core/matching"
	"recipe-matcher/internal/pkg/common"
)

// ErrListNotFound 找不到購物清單
var ErrListNotFound = common.ErrNotFound.Wrap(errors.New("shopping list not found"))

// Catalog 建立清單所需的目錄查詢，*catalog.Snapshot 即符合
type Catalog interface {
	Recipe(id string) (matching.Recipe, bool)
	Name(id string) string
	Category(id string) string
}

// List 依類別分組的購物清單
type List struct {
	ID        string              `json:"id"`
	Items     map[string][]string `json:"items"`
	Recipes   []string            `json:"recipes"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Count 清單中的食材數
func (l *List) Count() int {
	n := 0
	for _, items := range l.Items {
		n += len(items)
	}
	return n
}

// Store 購物清單儲存
type Store interface {
	Get(ctx context.Context, id string) (*List, error)
	Save(ctx context.Context, list *List) error
	Delete(ctx context.Context, id string) error
}

// Build 收集食譜中不在 available 的食材，依類別分組並排序去重
func Build(cat Catalog, recipes []matching.Recipe, available matching.AvailableSet) map[string][]string {
	grouped := make(map[string]map[string]struct{})
	for _, r := range recipes {
		for _, ri := range r.Ingredients {
			if available.Has(ri.IngredientID) {
				continue
			}
			category := cat.Category(ri.IngredientID)
			if grouped[category] == nil {
				grouped[category] = make(map[string]struct{})
			}
			grouped[category][cat.Name(ri.IngredientID)] = struct{}{}
		}
	}
	return flatten(grouped)
}

// Merge 合併兩份分組清單
func Merge(a, b map[string][]string) map[string][]string {
	grouped := make(map[string]map[string]struct{}, len(a)+len(b))
	for _, src := range []map[string][]string{a, b} {
		for category, items := range src {
			if grouped[category] == nil {
				grouped[category] = make(map[string]struct{}, len(items))
			}
			for _, it := range items {
				if it = strings.TrimSpace(it); it != "" {
					grouped[category][it] = struct{}{}
				}
			}
		}
	}
	return flatten(grouped)
}

func flatten(grouped map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(grouped))
	for category, set := range grouped {
		if len(set) == 0 {
			continue
		}
		items := make([]string, 0, len(set))
		for it := range set {
			items = append(items, it)
		}
		sort.Strings(items)
		out[category] = items
	}
	return out
}

// Service 購物清單服務
type Service struct {
	store Store
	now   func() time.Time
}

// NewService 建立購物清單服務
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Get 取得清單
func (s *Service) Get(ctx context.Context, id string) (*List, error) {
	return s.store.Get(ctx, id)
}

// AddRecipes 將食譜缺少的食材合併進清單；listID 為空時建立新清單
func (s *Service) AddRecipes(ctx context.Context, cat Catalog, listID string, recipeIDs []string, available matching.AvailableSet) (*List, error) {
	recipes := make([]matching.Recipe, 0, len(recipeIDs))
	for _, id := range recipeIDs {
		r, ok := cat.Recipe(id)
		if !ok {
			return nil, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", id))
		}
		recipes = append(recipes, r)
	}

	list := &List{ID: listID, Items: map[string][]string{}}
	if listID == "" {
		list.ID = common.GenerateUUID()
	} else {
		existing, err := s.store.Get(ctx, listID)
		switch {
		case err == nil:
			list = existing
		case errors.Is(err, ErrListNotFound):
		default:
			return nil, err
		}
	}

	list.Items = Merge(list.Items, Build(cat, recipes, available))
	list.Recipes = mergeIDs(list.Recipes, recipeIDs)
	list.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, list); err != nil {
		return nil, fmt.Errorf("save shopping list: %w", err)
	}

	common.LogInfo("購物清單已更新",
		zap.String("list_id", list.ID),
		zap.Int("recipes", len(list.Recipes)),
		zap.Int("items", list.Count()),
	)
	return list, nil
}

// Clear 刪除清單
func (s *Service) Clear(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func mergeIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range append(append([]string(nil), a...), b...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
