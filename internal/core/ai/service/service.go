package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-co2-estimator/internal/core/ai/cache"
	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/pkg/common"
	"food-co2-estimator/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Service AI 服務：統一 prompt、快取與逾時
type Service struct {
	provider    provider.Provider
	cache       cache.Store
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

// Option 服務選項
type Option func(*Service)

// WithCache 使用快取
func WithCache(store cache.Store) Option {
	return func(s *Service) { s.cache = store }
}

// WithTimeout 每次呼叫的逾時
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithMaxTokens 回應 token 上限
func WithMaxTokens(n int) Option {
	return func(s *Service) { s.maxTokens = n }
}

// WithTemperature 取樣溫度
func WithTemperature(t float64) Option {
	return func(s *Service) { s.temperature = t }
}

// NewService 創建 AI 服務
func NewService(p provider.Provider, opts ...Option) *Service {
	s := &Service{
		provider: p,
		timeout:  p.GetTimeout(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model 使用中的模型
func (s *Service) Model() string {
	return s.provider.GetModel()
}

// Complete 執行一次模型呼叫，stage 用於快取鍵、日誌與指標
func (s *Service) Complete(ctx context.Context, stage string, messages []provider.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages")
	}
	requestID := common.RequestIDFrom(ctx)

	// 統一 prompt 格式，確保快取 key 一致
	canonical := canonicalize(messages)
	key := cache.Key(s.provider.GetModel(), stage, canonical)

	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
			metrics.LLMCacheHitsTotal.WithLabelValues(s.cache.Backend()).Inc()
			common.LogCacheHit(s.cache.Backend(), stage)
			return val, nil
		} else if err != nil && !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("快取讀取失敗", zap.String("stage", stage), zap.Error(err))
		}
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.provider.Generate(callCtx, &provider.Request{
		Messages:    messages,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		JSONMode:    true,
	})
	common.LogAICall(stage, time.Since(start), err, requestID)
	metrics.LLMCallsTotal.WithLabelValues(stage, metrics.StatusLabel(err)).Inc()
	if err != nil {
		return "", common.ErrAIServiceError.Wrap(fmt.Errorf("%s: %w", stage, err))
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", common.ErrAIServiceError.Wrap(fmt.Errorf("%s: empty AI response", stage))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, content); err != nil {
			common.LogWarn("快取寫入失敗", zap.String("stage", stage), zap.Error(err))
		}
	}

	return content, nil
}

// canonicalize 去除多餘空白
func canonicalize(messages []provider.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(m.Role)
		sb.WriteString(":")
		sb.WriteString(strings.Join(strings.Fields(m.Content), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}
