package estimator

import (
	"context"
	"errors"

	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// Completer 模型呼叫（由 ai/service.Service 實作）
type Completer interface {
	Complete(ctx context.Context, stage string, messages []provider.Message) (string, error)
}

// WithRetry 模型輸出無法解析時，帶著錯誤說明重新呼叫 op；其他錯誤立即回傳
func WithRetry[T any](ctx context.Context, maxAttempts int, op func(ctx context.Context, feedback string) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	feedback := ""
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx, feedback)
		if err == nil {
			return v, nil
		}

		var pe *ParseError
		if !errors.As(err, &pe) {
			return zero, err
		}
		lastErr = err
		feedback = pe.Feedback()
		common.LogWarn("模型輸出解析失敗",
			zap.String("stage", pe.Stage),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.String("request_id", common.RequestIDFrom(ctx)),
			zap.Error(pe.Err),
		)
	}
	return zero, lastErr
}

// completeJSON 呼叫模型並解析、驗證 JSON 輸出
func completeJSON[T any](ctx context.Context, llm Completer, stage string, messages []provider.Message, feedback string) (T, error) {
	var out T
	if feedback != "" {
		messages = append(messages[:len(messages):len(messages)], provider.TextMessage(provider.RoleUser, feedback))
	}

	content, err := llm.Complete(ctx, stage, messages)
	if err != nil {
		return out, err
	}

	if err := common.ParseModelJSON(content, &out); err != nil {
		return out, &ParseError{Stage: stage, Raw: content, Err: err}
	}
	if err := common.ValidateStruct(out); err != nil {
		return out, &ParseError{Stage: stage, Raw: content, Err: errors.New(common.ValidationSummary(err))}
	}

	common.LogDebug("模型輸出",
		zap.String("stage", stage),
		zap.Int("ai_response_length", len(content)),
		zap.String("ai_response_preview", common.Truncate(content, 300)),
	)
	return out, nil
}

// completeWithRetry completeJSON 加上解析重試
func completeWithRetry[T any](ctx context.Context, llm Completer, stage string, attempts int, messages []provider.Message) (T, error) {
	return WithRetry(ctx, attempts, func(ctx context.Context, feedback string) (T, error) {
		return completeJSON[T](ctx, llm, stage, messages, feedback)
	})
}
