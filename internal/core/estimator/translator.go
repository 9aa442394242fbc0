package estimator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-co2-estimator/internal/core/translate"
	"food-co2-estimator/internal/pkg/common"
	"food-co2-estimator/internal/pkg/metrics"

	"go.uber.org/zap"
)

// translationDelimiter 批次翻譯時的分隔符號
const translationDelimiter = "; "

// errSegmentMismatch 翻譯後段數與輸入不符
var errSegmentMismatch = errors.New("translated segment count mismatch")

// Translator 將食材與作法翻成英文，段數不符時輪替供應商
// --------------------------------------------------
type Translator struct {
	providers []translate.Provider
	selector  translate.Selector
	attempts  int
	timeout   time.Duration
}

// NewTranslator 建立翻譯階段
func NewTranslator(providers []translate.Provider, selector translate.Selector, attempts int, timeout time.Duration) *Translator {
	if selector == nil {
		selector = translate.NewRoundRobin(0)
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Translator{
		providers: providers,
		selector:  selector,
		attempts:  attempts,
		timeout:   timeout,
	}
}

// Translate 設定每個食材的英文名稱
func (t *Translator) Translate(ctx context.Context, r *EnrichedRecipe, lang Language) error {
	if lang == LanguageEnglish {
		r.ApplyTranslations(r.OriginalNames(), r.Instructions)
		return nil
	}
	if len(t.providers) == 0 {
		return stageErr(StageTranslate, ErrTranslation, errors.New("no translation providers"))
	}

	segments := r.OriginalNames()
	withInstructions := r.HasInstructions()
	if withInstructions {
		segments = append(segments, *r.Instructions)
	}
	// 內文中的分號會被誤認為分隔符號
	for i := range segments {
		segments[i] = strings.ReplaceAll(segments[i], ";", ",")
	}
	text := strings.Join(segments, translationDelimiter)

	var (
		lastParts []string
		lastErr   error
	)
	for attempt := 1; attempt <= t.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return stageErr(StageTranslate, ErrTranslation, err)
		}

		p := t.providers[t.selector.Current(len(t.providers))]
		parts, err := t.call(ctx, p, text, lang)
		if err == nil && len(parts) != len(segments) {
			lastParts = parts
			err = fmt.Errorf("%w: got %d, want %d", errSegmentMismatch, len(parts), len(segments))
		}
		if err == nil {
			metrics.TranslationAttempts.WithLabelValues(p.Name(), metrics.StatusOK).Inc()
			t.apply(r, parts, withInstructions)
			return nil
		}

		lastErr = err
		metrics.TranslationAttempts.WithLabelValues(p.Name(), metrics.StatusError).Inc()
		common.LogWarn("翻譯失敗，切換供應商",
			zap.String("source", r.Source),
			zap.String("provider", p.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		t.selector.Advance()
	}

	if lastParts == nil {
		return stageErr(StageTranslate, ErrTranslation, lastErr)
	}

	// 重試用盡仍段數不符：沿用原始名稱繼續
	common.LogWarn("翻譯段數不符，改用原始名稱",
		zap.String("source", r.Source),
		zap.Int("segments", len(segments)),
		zap.Int("translated", len(lastParts)),
	)
	r.ApplyTranslations(lastParts, r.Instructions)
	return nil
}

func (t *Translator) call(ctx context.Context, p translate.Provider, text string, lang Language) ([]string, error) {
	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	out, err := p.Translate(callCtx, text, lang.Code(), LanguageEnglish.Code())
	if err != nil {
		return nil, err
	}
	parts := strings.Split(out, translationDelimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func (t *Translator) apply(r *EnrichedRecipe, parts []string, withInstructions bool) {
	instructions := r.Instructions
	names := parts
	if withInstructions {
		translated := parts[len(parts)-1]
		instructions = &translated
		names = parts[:len(parts)-1]
	}
	r.ApplyTranslations(names, instructions)
}
