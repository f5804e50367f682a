package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-matcher/internal/pkg/common"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURI(mime string, raw []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var ce *common.CustomError
	require.True(t, errors.As(err, &ce), "expected CustomError, got %v", err)
	assert.Equal(t, code, ce.Code)
}

func TestValidator_Prepare(t *testing.T) {
	raw := pngBytes(t, 4, 3)
	v := NewValidator(int64(len(raw)), time.Second)
	ctx := context.Background()

	t.Run("data uri", func(t *testing.T) {
		img, err := v.Prepare(ctx, dataURI("image/png", raw))
		require.NoError(t, err)
		assert.Equal(t, "png", img.Format)
		assert.Equal(t, 4, img.Width)
		assert.Equal(t, 3, img.Height)
		assert.Equal(t, len(raw), img.Bytes)
	})

	t.Run("declared mime is replaced by detected format", func(t *testing.T) {
		img, err := v.Prepare(ctx, dataURI("image/jpeg", raw))
		require.NoError(t, err)
		assert.Equal(t, dataURI("image/png", raw), img.DataURI)
	})

	t.Run("too large", func(t *testing.T) {
		small := NewValidator(10, time.Second)
		_, err := small.Prepare(ctx, dataURI("image/png", raw))
		assertCode(t, err, "INVALID_IMAGE_SIZE")
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for _, in := range []string{
			"",
			"not an image",
			"data:image/png;base64",
			"data:image/png,abc",
			"data:image/png;base64,%%%",
			dataURI("image/png", []byte("plain text")),
		} {
			_, err := v.Prepare(ctx, in)
			assertCode(t, err, "INVALID_IMAGE_FORMAT")
		}
	})
}

func TestValidator_PrepareURL(t *testing.T) {
	raw := pngBytes(t, 2, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	v := NewValidator(1<<20, time.Second)

	img, err := v.Prepare(context.Background(), srv.URL+"/fridge.png")
	require.NoError(t, err)
	assert.Equal(t, dataURI("image/png", raw), img.DataURI)

	_, err = v.Prepare(context.Background(), srv.URL+"/missing")
	assertCode(t, err, "INVALID_IMAGE_FORMAT")
}
