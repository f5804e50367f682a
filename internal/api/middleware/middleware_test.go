package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-matcher/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute, 2)
	rl.now = func() time.Time { return now }

	t.Run("per ip quota", func(t *testing.T) {
		assert.True(t, rl.Allow("1.1.1.1"))
		assert.True(t, rl.Allow("1.1.1.1"))
		assert.False(t, rl.Allow("1.1.1.1"))
		assert.True(t, rl.Allow("2.2.2.2"))
		assert.Equal(t, 2, rl.Size())
	})

	t.Run("tokens refill over the window", func(t *testing.T) {
		now = now.Add(time.Minute)
		assert.True(t, rl.Allow("1.1.1.1"))
	})

	t.Run("idle limiters are removed", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		assert.Equal(t, 2, rl.Cleanup())
		assert.Equal(t, 0, rl.Size())
	})

	rl.Stop()
	rl.Stop()
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, 1)
	r := gin.New()
	r.Use(RateLimit(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "", nil).Code)

	w := perform(r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), common.ErrCodeTooManyRequests)
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodySizeLimit(10))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodPost, "/", "small", nil).Code)

	w := perform(r, http.MethodPost, "/", strings.Repeat("x", 20), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := perform(r, http.MethodGet, "/slow", "", nil)
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeRequestTimeout)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/fast", "", nil).Code)
}

func TestSession(t *testing.T) {
	r := gin.New()
	r.Use(Session("default"))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionID(c)) })

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"header present", "abc", "abc"},
		{"header trimmed", "  abc  ", "abc"},
		{"missing header", "", "default"},
		{"too long", strings.Repeat("a", 200), "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, "/", "", map[string]string{SessionHeader: tt.header})
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), Logger())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeInternalError)
}
