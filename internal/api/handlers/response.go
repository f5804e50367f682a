// Package handlers 提供各處理器共用的請求解析與錯誤回應
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/validation"
)

// ValidationResponse 欄位驗證失敗的回應
type ValidationResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields"`
}

// BindJSON 解析 JSON 並以 validator 驗證；失敗時已寫出回應並回傳 false
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.WriteError(c, common.ErrRequestTooLarge, err.Error())
			return false
		}
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Get(c)),
		)
		common.WriteError(c, common.ErrInvalidRequest, err.Error())
		return false
	}
	if err := validation.Struct(dst); err != nil {
		WriteError(c, err)
		return false
	}
	return true
}

// WriteError 依錯誤類型寫出回應：驗證錯誤為 400，CustomError 依其狀態碼，其他為 500
func WriteError(c *gin.Context, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, ValidationResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: common.ErrInvalidRequest.Message,
			Fields:  verr.Fields,
		})
		return
	}

	if ce, ok := common.AsCustomError(err); ok && ce.Status < http.StatusInternalServerError {
		common.LogDebug("請求失敗", zap.String("code", ce.Code), zap.Error(err), zap.String("request_id", requestid.Get(c)))
	} else {
		common.LogError("請求失敗", zap.Error(err), zap.String("path", c.Request.URL.Path), zap.String("request_id", requestid.Get(c)))
	}
	common.WriteErrorFrom(c, err)
}
