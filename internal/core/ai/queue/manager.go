package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 隊列已滿
	ErrQueueFull = errors.New("queue is full")
	// ErrQueueClosed 隊列已關閉
	ErrQueueClosed = errors.New("queue manager is closed")
)

// Job 隊列中的工作
type Job func(ctx context.Context) error

// request 隊列請求
type request struct {
	ctx    context.Context
	job    Job
	result chan error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 固定數量 worker 的工作池
type Manager struct {
	cfg       config.QueueConfig
	queue     chan *request
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	processed atomic.Int64
	failed    atomic.Int64
}

// NewManager 創建並啟動工作池
func NewManager(cfg config.QueueConfig) *Manager {
	m := &Manager{
		cfg:   cfg,
		queue: make(chan *request, cfg.MaxSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	common.LogInfo("工作池已啟動",
		zap.Int("workers", cfg.Workers),
		zap.Int("max_queue_size", cfg.MaxSize),
	)
	return m
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for req := range m.queue {
		err := m.run(req)
		if err != nil {
			m.failed.Add(1)
		}
		m.processed.Add(1)
		req.result <- err
	}
	common.LogDebug("worker stopped", zap.Int("worker", id))
}

// run 執行單一工作，panic 轉為錯誤
func (m *Manager) run(req *request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	if err := req.ctx.Err(); err != nil {
		return err
	}
	return req.job(req.ctx)
}

// Enqueue 將工作加入隊列，回傳結果通道（緩衝 1）
func (m *Manager) Enqueue(ctx context.Context, job Job) (<-chan error, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrQueueClosed
	}

	req := &request{ctx: ctx, job: job, result: make(chan error, 1)}

	select {
	case m.queue <- req:
		return req.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, ErrQueueFull
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: m.processed.Load(),
		FailedCount:    m.failed.Load(),
		MaxQueueSize:   m.cfg.MaxSize,
		Workers:        m.cfg.Workers,
	}
}

// Close 停止接收新工作並等待現有工作完成
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
}
