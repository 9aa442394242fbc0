package translate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/infrastructure/config"
)

// Provider 翻譯供應商
type Provider interface {
	Name() string
	// Translate 將 text 由 from 翻成 to（ISO 639-1）
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Completer 模型呼叫（由 ai/service.Service 實作）
type Completer interface {
	Complete(ctx context.Context, stage string, messages []provider.Message) (string, error)
}

// Selector 供應商輪替游標
type Selector interface {
	// Current 目前應優先使用的供應商索引
	Current(n int) int
	// Advance 換到下一個供應商
	Advance()
}

// RoundRobin 以原子計數實作的輪替游標，可跨請求共用
type RoundRobin struct {
	cursor atomic.Uint64
}

// NewRoundRobin 從指定位置開始
func NewRoundRobin(start uint64) *RoundRobin {
	r := &RoundRobin{}
	r.cursor.Store(start)
	return r
}

// Current 目前索引
func (r *RoundRobin) Current(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.cursor.Load() % uint64(n))
}

// Advance 前進一格
func (r *RoundRobin) Advance() {
	r.cursor.Add(1)
}

// FromConfig 依設定順序建立供應商
func FromConfig(cfg config.TranslateConfig, timeout time.Duration, llm Completer) ([]Provider, error) {
	providers := make([]Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case "mymemory":
			providers = append(providers, NewMyMemory(cfg.MyMemoryURL, cfg.MyMemoryEmail, timeout))
		case "libretranslate":
			providers = append(providers, NewLibreTranslate(cfg.LibreTranslateURL, cfg.LibreTranslateKey, timeout))
		case "llm":
			if llm == nil {
				return nil, fmt.Errorf("llm translator requires a language model")
			}
			providers = append(providers, NewLLM(llm))
		default:
			return nil, fmt.Errorf("unknown translation provider %q", name)
		}
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no translation providers configured")
	}
	return providers, nil
}
