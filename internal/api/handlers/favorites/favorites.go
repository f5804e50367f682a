package favorites

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-matcher/internal/api/handlers"
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/catalog"
	favoritesRepo "recipe-matcher/internal/core/favorites"
	"recipe-matcher/internal/pkg/common"
)

// SnapshotSource 提供目前的目錄快照
type SnapshotSource interface {
	Snapshot() *catalog.Snapshot
}

// ListResponse 收藏清單
type ListResponse struct {
	Favorites []favoritesRepo.Favorite `json:"favorites"`
}

// HistoryResponse 瀏覽紀錄
type HistoryResponse struct {
	History []favoritesRepo.HistoryEntry `json:"history"`
}

// Handler 收藏與瀏覽紀錄處理器
type Handler struct {
	repo    *favoritesRepo.Repository
	catalog SnapshotSource
}

// NewHandler 建立處理器
func NewHandler(repo *favoritesRepo.Repository, catalog SnapshotSource) *Handler {
	return &Handler{repo: repo, catalog: catalog}
}

// HandleList GET /api/v1/favorites
func (h *Handler) HandleList(c *gin.Context) {
	favs, err := h.repo.List(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Favorites: favs})
}

// HandleSave POST /api/v1/favorites
func (h *Handler) HandleSave(c *gin.Context) {
	var in favoritesRepo.SaveInput
	if !handlers.BindJSON(c, &in) {
		return
	}

	r, ok := h.catalog.Snapshot().Recipe(in.RecipeID)
	if !ok {
		handlers.WriteError(c, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", in.RecipeID)))
		return
	}

	fav, err := h.repo.Save(c.Request.Context(), middleware.SessionID(c), in, r.Name, r.ImageURL)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, fav)
}

// HandleRemove DELETE /api/v1/favorites/:id
func (h *Handler) HandleRemove(c *gin.Context) {
	if err := h.repo.Remove(c.Request.Context(), middleware.SessionID(c), c.Param("id")); err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleHistory GET /api/v1/history
func (h *Handler) HandleHistory(c *gin.Context) {
	entries, err := h.repo.History(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{History: entries})
}
