package common

import (
	"errors"
	"net/http"
)

// ErrorResponse API 錯誤回應
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"` // 僅在 debug 模式顯示
}

// CustomError 帶有錯誤代碼與 HTTP 狀態碼的錯誤
type CustomError struct {
	Code    string
	Message string
	Err     error
	Status  int
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Wrap 以相同代碼包裝原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{Code: e.Code, Message: e.Message, Status: e.Status, Err: err}
}

// NewError 建立自訂錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// AsCustomError 取出錯誤鏈中的 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// 錯誤代碼
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE" // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503

	ErrCodeEmptyCatalog          = "EMPTY_CATALOG"
	ErrCodeNoIngredientsDetected = "NO_INGREDIENTS_DETECTED"
	ErrCodeDetectionUnavailable  = "DETECTION_UNAVAILABLE"
	ErrCodeRecipeNotFound        = "RECIPE_NOT_FOUND"
	ErrCodeQueueFull             = "QUEUE_FULL"
)

// 預定義錯誤
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)
	ErrRequestTooLarge = NewError(ErrCodeRequestTooLarge, "請求體過大", http.StatusRequestEntityTooLarge, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "伺服器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)

	// 業務錯誤
	ErrInvalidImageFormat    = NewError("INVALID_IMAGE_FORMAT", "無效的圖片格式", http.StatusBadRequest, nil)
	ErrInvalidImageSize      = NewError("INVALID_IMAGE_SIZE", "圖片大小超出限制", http.StatusBadRequest, nil)
	ErrInvalidImageType      = NewError("INVALID_IMAGE_TYPE", "不支援的圖片類型", http.StatusBadRequest, nil)
	ErrEmptyCatalog          = NewError(ErrCodeEmptyCatalog, "食譜目錄為空", http.StatusServiceUnavailable, nil)
	ErrNoIngredientsDetected = NewError(ErrCodeNoIngredientsDetected, "圖片中沒有辨識到食材", http.StatusUnprocessableEntity, nil)
	ErrDetectionUnavailable  = NewError(ErrCodeDetectionUnavailable, "食材辨識服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrRecipeNotFound        = NewError(ErrCodeRecipeNotFound, "找不到食譜", http.StatusNotFound, nil)
	ErrQueueFull             = NewError(ErrCodeQueueFull, "辨識佇列已滿", http.StatusServiceUnavailable, nil)
)
