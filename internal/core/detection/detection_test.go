package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"recipe-matcher/internal/core/cache"
	imagepkg "recipe-matcher/internal/core/image"
	"recipe-matcher/internal/infrastructure/config"
)

func testImage(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func chatReply(content string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return body
}

func TestParseIngredientList(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{name: "plain array", content: `["egg","Tomato"]`, want: []string{"egg", "Tomato"}},
		{name: "wrapped in prose", content: "Sure! ```json\n[\"egg\", \"scallion\"]\n```", want: []string{"egg", "scallion"}},
		{name: "objects with name", content: `[{"name":"rice"},{"name":"egg","count":2}]`, want: []string{"rice", "egg"}},
		{name: "unquoted keys", content: `[{name:"rice"}]`, want: []string{"rice"}},
		{name: "duplicates and blanks", content: `["Egg"," egg ","", "  "]`, want: []string{"Egg"}},
		{name: "empty array", content: `[]`, want: []string{}},
		{name: "no array", content: "no food here", wantErr: true},
		{name: "broken array", content: `["egg",`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIngredientList(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type OpenRouterTestSuite struct {
	suite.Suite
	server   *httptest.Server
	status   atomic.Int32
	content  atomic.Value
	requests atomic.Int32
	lastBody []byte
	mu       sync.Mutex
}

func (s *OpenRouterTestSuite) SetupTest() {
	s.status.Store(http.StatusOK)
	s.content.Store(`["egg","rice"]`)
	s.requests.Store(0)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.lastBody = body
		s.mu.Unlock()

		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(int(s.status.Load()))
		_, _ = w.Write(chatReply(s.content.Load().(string)))
	}))
}

func (s *OpenRouterTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *OpenRouterTestSuite) detector() *OpenRouterDetector {
	return NewOpenRouterDetector(config.DetectionConfig{
		APIKey:             "test-key",
		BaseURL:            s.server.URL,
		Model:              "vision-test",
		MaxTokens:          100,
		Timeout:            2 * time.Second,
		BreakerMaxFailures: 2,
		BreakerTimeout:     time.Minute,
	})
}

func TestOpenRouterTestSuite(t *testing.T) {
	suite.Run(t, new(OpenRouterTestSuite))
}

func (s *OpenRouterTestSuite) TestDetect() {
	s.Run("Success_ShouldReturnNamesAndSendImage", func() {
		// Arrange
		d := s.detector()

		// Act
		names, err := d.Detect(context.Background(), "data:image/png;base64,AAAA")

		// Assert
		s.Require().NoError(err)
		s.Equal([]string{"egg", "rice"}, names)
		s.Equal("vision-test", d.Name())

		s.mu.Lock()
		defer s.mu.Unlock()
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []map[string]interface{} `json:"content"`
			} `json:"messages"`
		}
		s.Require().NoError(json.Unmarshal(s.lastBody, &req))
		s.Equal("vision-test", req.Model)
		s.Require().Len(req.Messages, 1)
		s.Require().Len(req.Messages[0].Content, 2)
		s.Equal("image_url", req.Messages[0].Content[1]["type"])
	})

	s.Run("UpstreamError_ShouldReturnError", func() {
		s.status.Store(http.StatusBadGateway)
		_, err := s.detector().Detect(context.Background(), "data:image/png;base64,AAAA")
		s.Error(err)
		s.False(errors.Is(err, ErrDetectionUnavailable))
	})
}

func (s *OpenRouterTestSuite) TestBreaker() {
	s.Run("ConsecutiveFailures_ShouldOpenBreaker", func() {
		// Arrange
		s.status.Store(http.StatusInternalServerError)
		d := s.detector()
		ctx := context.Background()

		// Act
		_, err1 := d.Detect(ctx, "x")
		_, err2 := d.Detect(ctx, "x")
		before := s.requests.Load()
		_, err3 := d.Detect(ctx, "x")

		// Assert
		s.Error(err1)
		s.Error(err2)
		s.ErrorIs(err3, ErrDetectionUnavailable)
		s.Equal(before, s.requests.Load(), "open breaker must not reach upstream")
	})
}

func TestQueue(t *testing.T) {
	t.Run("runs jobs", func(t *testing.T) {
		q := NewQueue(2, 4)
		defer q.Close()

		names, err := q.Submit(context.Background(), func(ctx context.Context) ([]string, error) {
			return []string{"egg"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"egg"}, names)
		assert.Equal(t, int64(1), q.Status().ProcessedCount)
	})

	t.Run("rejects when full", func(t *testing.T) {
		q := NewQueue(1, 1)
		defer q.Close()

		started := make(chan struct{})
		release := make(chan struct{})
		blocking := func(ctx context.Context) ([]string, error) {
			close(started)
			<-release
			return []string{"a"}, nil
		}
		waiting := func(ctx context.Context) ([]string, error) {
			return []string{"b"}, nil
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = q.Submit(context.Background(), blocking)
		}()
		<-started
		go func() {
			defer wg.Done()
			_, _ = q.Submit(context.Background(), waiting)
		}()
		require.Eventually(t, func() bool { return q.Status().QueueLength == 1 }, time.Second, time.Millisecond)

		_, err := q.Submit(context.Background(), waiting)
		assert.ErrorIs(t, err, ErrQueueFull)

		close(release)
		wg.Wait()
	})

	t.Run("caller cancellation", func(t *testing.T) {
		q := NewQueue(1, 1)
		defer q.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := q.Submit(ctx, func(ctx context.Context) ([]string, error) {
			return nil, ctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed queue", func(t *testing.T) {
		q := NewQueue(1, 1)
		q.Close()
		_, err := q.Submit(context.Background(), func(ctx context.Context) ([]string, error) { return nil, nil })
		assert.ErrorIs(t, err, ErrQueueClosed)
	})
}

type countingDetector struct {
	StaticDetector
	calls atomic.Int32
}

func (d *countingDetector) Detect(ctx context.Context, img string) ([]string, error) {
	d.calls.Add(1)
	return d.StaticDetector.Detect(ctx, img)
}

func TestService_Detect(t *testing.T) {
	validator := imagepkg.NewValidator(1<<20, time.Second)
	ctx := context.Background()
	img := testImage(t)

	t.Run("cleans names and caches results", func(t *testing.T) {
		det := &countingDetector{StaticDetector: StaticDetector{Ingredients: []string{"Egg", " egg", "rice "}}}
		store := cache.NewManager(cache.ManagerOptions{MaxSize: 10, TTL: time.Minute})
		defer store.Close()
		queue := NewQueue(1, 2)
		defer queue.Close()
		svc := NewService(validator, det, store, queue)

		first, err := svc.Detect(ctx, img)
		require.NoError(t, err)
		assert.Equal(t, []string{"Egg", "rice"}, first.Ingredients)
		assert.False(t, first.Cached)
		assert.Equal(t, "png", first.Image.Format)

		second, err := svc.Detect(ctx, img)
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.Equal(t, first.Ingredients, second.Ingredients)
		assert.Equal(t, int32(1), det.calls.Load())
	})

	t.Run("nothing detected", func(t *testing.T) {
		svc := NewService(validator, &StaticDetector{Ingredients: []string{" "}}, nil, nil)
		_, err := svc.Detect(ctx, img)
		assert.ErrorIs(t, err, ErrNoIngredientsDetected)
	})

	t.Run("detector failure is unavailable", func(t *testing.T) {
		svc := NewService(validator, &StaticDetector{Err: errors.New("boom")}, nil, nil)
		_, err := svc.Detect(ctx, img)
		assert.ErrorIs(t, err, ErrDetectionUnavailable)
	})

	t.Run("disabled", func(t *testing.T) {
		svc := NewService(validator, nil, nil, nil)
		assert.False(t, svc.Enabled())
		_, err := svc.Detect(ctx, img)
		assert.ErrorIs(t, err, ErrDetectionUnavailable)
	})

	t.Run("invalid image", func(t *testing.T) {
		svc := NewService(validator, &StaticDetector{Ingredients: []string{"egg"}}, nil, nil)
		_, err := svc.Detect(ctx, "not-an-image")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrDetectionUnavailable))
	})
}
