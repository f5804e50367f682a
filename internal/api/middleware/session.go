package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionHeader 用戶端識別標頭，收藏與瀏覽紀錄以此分隔
const SessionHeader = "X-Session-ID"

const sessionKey = "session_id"

// maxSessionLen 超過長度的識別碼視為無效
const maxSessionLen = 128

// Session 讀取 X-Session-ID，缺少時使用 fallback
func Session(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" || len(id) > maxSessionLen {
			id = fallback
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

// SessionID 取出目前請求的識別碼
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
