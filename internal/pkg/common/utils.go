package common

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 產生 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteError 將錯誤寫成統一的 JSON 回應
func WriteError(c *gin.Context, err *CustomError, details string) {
	resp := ErrorResponse{Code: err.Code, Message: err.Message}
	if gin.Mode() == gin.DebugMode {
		resp.Details = details
	}
	c.AbortWithStatusJSON(err.Status, resp)
}

// WriteErrorFrom 將任意錯誤轉為 CustomError 後回應，無法辨識者視為內部錯誤
func WriteErrorFrom(c *gin.Context, err error) {
	if ce, ok := AsCustomError(err); ok {
		WriteError(c, ce, detailOf(ce))
		return
	}
	WriteError(c, ErrInternalError, err.Error())
}

func detailOf(ce *CustomError) string {
	if ce.Err != nil {
		return ce.Err.Error()
	}
	return ""
}
