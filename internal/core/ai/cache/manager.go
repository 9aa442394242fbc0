package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"

	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/pkg/common"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Store 模型回應快取
type Store interface {
	// Get 未命中時回傳 common.ErrCacheMiss
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Backend() string
	Close() error
}

// Key 以模型、階段與 prompt 生成快取鍵
func Key(model, stage, prompt string) string {
	h := sha256.Sum256([]byte(model + "\x00" + stage + "\x00" + prompt))
	return "llm:" + strings.ToLower(stage) + ":" + hex.EncodeToString(h[:])
}

// CacheManager 行程內 TTL LRU 快取
type CacheManager struct {
	lru    *expirable.LRU[string, string]
	hits   atomic.Int64
	misses atomic.Int64
	evicts atomic.Int64
}

// NewManager 創建新的緩存管理器；快取關閉時回傳 nil
func NewManager(cfg config.CacheConfig) *CacheManager {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil
	}

	m := &CacheManager{}
	m.lru = expirable.NewLRU[string, string](cfg.MaxSize, func(string, string) {
		m.evicts.Add(1)
	}, cfg.TTL)

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
	)
	return m
}

// Get 獲取緩存值
func (m *CacheManager) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.lru.Get(key); ok {
		m.hits.Add(1)
		return v, nil
	}
	m.misses.Add(1)
	return "", common.ErrCacheMiss
}

// Set 設置緩存值
func (m *CacheManager) Set(_ context.Context, key, value string) error {
	m.lru.Add(key, value)
	return nil
}

// Backend 後端名稱
func (m *CacheManager) Backend() string {
	return "memory"
}

// GetStats 獲取緩存統計信息
func (m *CacheManager) GetStats() map[string]interface{} {
	hits, misses := m.hits.Load(), m.misses.Load()
	ratio := 0.0
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return map[string]interface{}{
		"size":      m.lru.Len(),
		"hits":      hits,
		"misses":    misses,
		"evictions": m.evicts.Load(),
		"hit_ratio": ratio,
	}
}

// Close 關閉緩存管理器
func (m *CacheManager) Close() error {
	m.lru.Purge()
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.hits.Load()),
		zap.Int64("未命中次數", m.misses.Load()),
	)
	return nil
}
