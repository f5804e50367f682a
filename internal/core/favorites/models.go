// Package favorites 保存使用者收藏的食譜與瀏覽紀錄
package favorites

import "time"

// DefaultSession 未帶 session 標頭時使用的 session
const DefaultSession = "default"

// Favorite 收藏的食譜
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	SessionID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_favorite_session_recipe" json:"-"`
	RecipeID  string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_favorite_session_recipe" json:"recipe_id"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	ImageURL  string    `gorm:"type:text" json:"image_url,omitempty"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	Tags      []string  `gorm:"serializer:json" json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 資料表名稱
func (Favorite) TableName() string {
	return "favorites"
}

// HistoryEntry 瀏覽紀錄，每個 session 每個食譜只保留最新一筆
type HistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	SessionID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_history_session_recipe;index:idx_history_session_viewed" json:"-"`
	RecipeID  string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_history_session_recipe" json:"recipe_id"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	ViewedAt  time.Time `gorm:"not null;index:idx_history_session_viewed" json:"viewed_on"`
}

// TableName 資料表名稱
func (HistoryEntry) TableName() string {
	return "cooking_history"
}

// Models 需要 AutoMigrate 的資料表
func Models() []interface{} {
	return []interface{}{&Favorite{}, &HistoryEntry{}}
}
