// Package image 驗證上傳的食材照片，並統一轉為 data URI
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp" // 支援 WebP

	"recipe-matcher/internal/pkg/common"
)

// 支援的圖片格式
var supportedFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Image 驗證後的圖片
type Image struct {
	DataURI string `json:"-"`
	Format  string `json:"format"`
	Bytes   int    `json:"bytes"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Validator 圖片驗證器
type Validator struct {
	maxSizeBytes int64
	client       *resty.Client
}

// NewValidator 建立圖片驗證器，fetchTimeout 用於下載 URL 圖片
func NewValidator(maxSizeBytes int64, fetchTimeout time.Duration) *Validator {
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Validator{
		maxSizeBytes: maxSizeBytes,
		client:       resty.New().SetTimeout(fetchTimeout),
	}
}

// Prepare 驗證 base64 data URI 或 http(s) URL 圖片，回傳 data URI 形式
func (v *Validator) Prepare(ctx context.Context, imageData string) (*Image, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("image data is empty"))
	}

	var (
		raw []byte
		err error
	)
	// 檢查是否為 URL
	if strings.HasPrefix(imageData, "http://") || strings.HasPrefix(imageData, "https://") {
		raw, err = v.download(ctx, imageData)
	} else {
		raw, err = decodeDataURI(imageData)
	}
	if err != nil {
		return nil, err
	}

	return v.inspect(raw)
}

// download 下載圖片
func (v *Validator) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := v.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to download image: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to download image: status code %d", resp.StatusCode()))
	}
	return resp.Body(), nil
}

// decodeDataURI 解析 data:image/...;base64,...
func decodeDataURI(imageData string) ([]byte, error) {
	if !strings.HasPrefix(imageData, "data:image/") {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("invalid image data format"))
	}

	header, payload, ok := strings.Cut(imageData, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("invalid base64 data format"))
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode base64 data: %w", err))
	}
	return decoded, nil
}

// inspect 檢查大小與格式
func (v *Validator) inspect(raw []byte) (*Image, error) {
	// 檢查檔案大小
	if v.maxSizeBytes > 0 && int64(len(raw)) > v.maxSizeBytes {
		return nil, common.ErrInvalidImageSize.Wrap(fmt.Errorf("image size %d exceeds maximum limit of %d bytes", len(raw), v.maxSizeBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode image: %w", err))
	}

	mime, ok := supportedFormats[format]
	if !ok {
		return nil, common.ErrInvalidImageType.Wrap(fmt.Errorf("unsupported image format: %s", format))
	}

	return &Image{
		DataURI: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(raw)),
		Format:  format,
		Bytes:   len(raw),
		Width:   cfg.Width,
		Height:  cfg.Height,
	}, nil
}
