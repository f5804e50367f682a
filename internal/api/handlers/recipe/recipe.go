package recipe

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-matcher/internal/api/handlers"
	"recipe-matcher/internal/api/middleware"
	recipeService "recipe-matcher/internal/core/recipe"
	"recipe-matcher/internal/pkg/common"
)

// Handler 食材與食譜相關處理器
type Handler struct {
	service *recipeService.Service
}

// NewHandler 建立處理器
func NewHandler(service *recipeService.Service) *Handler {
	return &Handler{service: service}
}

// LocalDishesResponse 地方料理回應
type LocalDishesResponse struct {
	Location string                  `json:"location"`
	Results  []recipeService.Summary `json:"results"`
}

// HandleSuggest POST /api/v1/recipes/suggest
func (h *Handler) HandleSuggest(c *gin.Context) {
	var req recipeService.SuggestRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	if len(req.Ingredients) == 0 && strings.TrimSpace(req.Image) == "" {
		common.WriteError(c, common.ErrInvalidRequest, "ingredients or image is required")
		return
	}

	common.LogInfo("開始處理食譜推薦請求",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("ingredients", len(req.Ingredients)),
		zap.String("image_type", imageKind(req.Image)),
		zap.Bool("explain", req.Explain),
	)

	res, err := h.service.Suggest(c.Request.Context(), req)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleExplain POST /api/v1/recipes/:id/explain
func (h *Handler) HandleExplain(c *gin.Context) {
	var req recipeService.ExplainRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Explain(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleDetail GET /api/v1/recipes/:id
func (h *Handler) HandleDetail(c *gin.Context) {
	res, err := h.service.Detail(c.Request.Context(), middleware.SessionID(c), c.Param("id"))
	if err != nil {
		handlers.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleLocalDishes GET /api/v1/recipes/local?location=
func (h *Handler) HandleLocalDishes(c *gin.Context) {
	location := strings.TrimSpace(c.Query("location"))
	if location == "" {
		common.WriteError(c, common.ErrInvalidRequest, "location is required")
		return
	}

	c.JSON(http.StatusOK, LocalDishesResponse{
		Location: location,
		Results:  h.service.LocalDishes(location),
	})
}
