package detection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/metrics"
)

// ErrQueueClosed 佇列已關閉
var ErrQueueClosed = errors.New("detection queue is closed")

// Job 佇列中的工作
type Job func(ctx context.Context) ([]string, error)

// Result 工作結果
type Result struct {
	Ingredients []string
	Err         error
}

type request struct {
	ctx    context.Context
	job    Job
	result chan Result
}

// QueueStatus 佇列狀態
type QueueStatus struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Queue 固定數量 worker 的辨識佇列，滿載時立即拒絕
type Queue struct {
	queue     chan *request
	done      chan struct{}
	workers   int
	maxSize   int
	processed atomic.Int64

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewQueue 建立佇列並啟動 worker
func NewQueue(workers, maxSize int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	q := &Queue{
		queue:   make(chan *request, maxSize),
		done:    make(chan struct{}),
		workers: workers,
		maxSize: maxSize,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	common.LogInfo("辨識佇列已啟動", zap.Int("workers", workers), zap.Int("max_queue_size", maxSize))
	return q
}

// Submit 提交工作並等待結果；佇列已滿回傳 ErrQueueFull
func (q *Queue) Submit(ctx context.Context, job Job) ([]string, error) {
	select {
	case <-q.done:
		return nil, ErrQueueClosed
	default:
	}

	req := &request{ctx: ctx, job: job, result: make(chan Result, 1)}
	select {
	case q.queue <- req:
		metrics.QueueDepth.Set(float64(len(q.queue)))
	default:
		common.LogWarn("辨識佇列已滿", zap.Int("max_queue_size", q.maxSize))
		return nil, ErrQueueFull
	}

	select {
	case res := <-req.result:
		return res.Ingredients, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		select {
		case res := <-req.result:
			return res.Ingredients, res.Err
		default:
			return nil, ErrQueueClosed
		}
	}
}

// worker 處理佇列中的工作
func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			q.drain()
			return
		case req := <-q.queue:
			q.run(req)
		}
	}
}

func (q *Queue) run(req *request) {
	metrics.QueueDepth.Set(float64(len(q.queue)))
	if err := req.ctx.Err(); err != nil {
		req.result <- Result{Err: err}
		return
	}
	names, err := req.job(req.ctx)
	q.processed.Add(1)
	req.result <- Result{Ingredients: names, Err: err}
}

// drain 關閉後拒絕尚未處理的工作
func (q *Queue) drain() {
	for {
		select {
		case req := <-q.queue:
			req.result <- Result{Err: ErrQueueClosed}
		default:
			return
		}
	}
}

// Status 佇列狀態
func (q *Queue) Status() QueueStatus {
	return QueueStatus{
		QueueLength:    len(q.queue),
		ProcessedCount: q.processed.Load(),
		MaxQueueSize:   q.maxSize,
		Workers:        q.workers,
	}
}

// Close 停止 worker，等待進行中的工作結束
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
	q.wg.Wait()
	metrics.QueueDepth.Set(0)
}
