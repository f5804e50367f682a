package recipe

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-matcher/internal/api/handlers"
	"recipe-matcher/internal/pkg/common"
)

// NormalizeRequest 食材正規化請求
type NormalizeRequest struct {
	Ingredients []string `json:"ingredients" validate:"max=200,dive,max=100"`
}

// DetectRequest 食材辨識請求
type DetectRequest struct {
	Image string `json:"image" validate:"required,notblank"`
}

// HandleNormalize POST /api/v1/ingredients/normalize
func (h *Handler) HandleNormalize(c *gin.Context) {
	var req NormalizeRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	c.JSON(http.StatusOK, h.service.Normalize(req.Ingredients))
}

// HandleDetect POST /api/v1/ingredients/detect
func (h *Handler) HandleDetect(c *gin.Context) {
	var req DetectRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	common.LogInfo("開始處理食材辨識請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("image_type", imageKind(req.Image)),
	)

	res, err := h.service.Detect(c.Request.Context(), req.Image)
	if err != nil {
		handlers.WriteError(c, err)
		return
	}

	common.LogInfo("食材辨識成功",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("detected", len(res.Detected)),
		zap.Bool("cached", res.Cached),
	)
	c.JSON(http.StatusOK, res)
}
