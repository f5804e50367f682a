package shopping

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-matcher/internal/api/handlers"
	"recipe-matcher/internal/core/matching"
	recipeService "recipe-matcher/internal/core/recipe"
	shoppingService "recipe-matcher/internal/core/shopping"
	"recipe-matcher/internal/pkg/common"
)

// AddRequest 加入購物清單的請求；list_id 為空時建立新清單
type AddRequest struct {
	ListID      string   `json:"list_id" validate:"omitempty,max=64"`
	RecipeIDs   []string `json:"recipe_ids" validate:"required,min=1,max=50,dive,notblank"`
	Ingredients []string `json:"ingredients" validate:"max=200,dive,max=100"`
}

// Handler 購物清單處理器
type Handler struct {
	shopping *shoppingService.Service
	recipes  *recipeService.Service
}

// NewHandler 建立處理器
func NewHandler(shopping *shoppingService.Service, recipes *recipeService.Service) *Handler {
	return &Handler{shopping: shopping, recipes: recipes}
}

// HandleGet GET /api/v1/shopping-list?id=
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := listID(c)
	if !ok {
		return
	}

	list, err := h.shopping.Get(c.Request.Context(), id)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// HandleAdd POST /api/v1/shopping-list
func (h *Handler) HandleAdd(c *gin.Context) {
	var req AddRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	norm := h.recipes.Normalize(req.Ingredients)
	list, err := h.shopping.AddRecipes(c.Request.Context(), h.recipes.Snapshot(), req.ListID, req.RecipeIDs,
		matching.NewAvailableSet(norm.Canonical...))
	if err != nil {
		handlers.WriteError(c, err)
		return
	}

	common.LogInfo("購物清單請求完成",
		zap.String("request_id", requestid.Get(c)),
		zap.String("list_id", list.ID),
		zap.Int("items", list.Count()),
	)
	c.JSON(http.StatusOK, list)
}

// HandleClear DELETE /api/v1/shopping-list?id=
func (h *Handler) HandleClear(c *gin.Context) {
	id, ok := listID(c)
	if !ok {
		return
	}

	if err := h.shopping.Clear(c.Request.Context(), id); err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		common.WriteError(c, common.ErrInvalidRequest, "id is required")
		return "", false
	}
	return id, true
}
