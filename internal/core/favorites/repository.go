package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/validation"
)

// ErrFavoriteNotFound 收藏不存在
var ErrFavoriteNotFound = common.ErrNotFound.Wrap(errors.New("favorite not found"))

// DefaultHistoryLimit 每個 session 保留的瀏覽紀錄數
const DefaultHistoryLimit = 50

// SaveInput 收藏請求
type SaveInput struct {
	RecipeID string   `json:"recipe_id" validate:"required,notblank,max=128"`
	Note     string   `json:"note" validate:"max=1000"`
	Rating   *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Tags     []string `json:"tags" validate:"max=20,dive,notblank,max=40"`
}

// Repository 收藏與瀏覽紀錄
type Repository struct {
	db           *gorm.DB
	historyLimit int
	now          func() time.Time
}

// NewRepository 建立 Repository，資料表需已遷移
func NewRepository(db *gorm.DB, historyLimit int) *Repository {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Repository{db: db, historyLimit: historyLimit, now: time.Now}
}

// Save 新增或更新收藏；title 與 imageURL 取自目錄
func (r *Repository) Save(ctx context.Context, session string, in SaveInput, title, imageURL string) (*Favorite, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	session = sessionOrDefault(session)

	var fav Favorite
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("session_id = ? AND recipe_id = ?", session, in.RecipeID).First(&fav).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		fav.SessionID = session
		fav.RecipeID = in.RecipeID
		fav.Title = title
		fav.ImageURL = imageURL
		fav.Note = strings.TrimSpace(in.Note)
		fav.Rating = in.Rating
		fav.Tags = normalizeTags(in.Tags)
		return tx.Save(&fav).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save favorite: %w", err)
	}

	common.LogInfo("收藏已儲存", zap.String("session", session), zap.String("recipe", in.RecipeID))
	return &fav, nil
}

// List 收藏清單，最近更新者在前
func (r *Repository) List(ctx context.Context, session string) ([]Favorite, error) {
	favs := []Favorite{}
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionOrDefault(session)).
		Order("updated_at DESC").Order("id DESC").
		Find(&favs).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favs, nil
}

// Remove 移除收藏
func (r *Repository) Remove(ctx context.Context, session, recipeID string) error {
	res := r.db.WithContext(ctx).
		Where("session_id = ? AND recipe_id = ?", sessionOrDefault(session), recipeID).
		Delete(&Favorite{})
	if res.Error != nil {
		return fmt.Errorf("remove favorite: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// LogView 記錄一次瀏覽；同一食譜只保留最新一筆，超過上限的舊紀錄刪除
func (r *Repository) LogView(ctx context.Context, session, recipeID, title string) error {
	if recipeID == "" {
		return nil
	}
	session = sessionOrDefault(session)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ? AND recipe_id = ?", session, recipeID).Delete(&HistoryEntry{}).Error; err != nil {
			return err
		}
		entry := HistoryEntry{SessionID: session, RecipeID: recipeID, Title: title, ViewedAt: r.now().UTC()}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		keep := tx.Model(&HistoryEntry{}).Select("id").
			Where("session_id = ?", session).
			Order("viewed_at DESC").Order("id DESC").
			Limit(r.historyLimit)
		return tx.Where("session_id = ? AND id NOT IN (?)", session, keep).Delete(&HistoryEntry{}).Error
	})
	if err != nil {
		return fmt.Errorf("log recipe view: %w", err)
	}
	return nil
}

// History 瀏覽紀錄，最近者在前
func (r *Repository) History(ctx context.Context, session string) ([]HistoryEntry, error) {
	entries := []HistoryEntry{}
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionOrDefault(session)).
		Order("viewed_at DESC").Order("id DESC").
		Limit(r.historyLimit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

func sessionOrDefault(session string) string {
	session = strings.TrimSpace(session)
	if session == "" {
		return DefaultSession
	}
	return session
}

// normalizeTags 去除空白並去重，保留順序
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
