package estimator

import (
	"context"
	"errors"
)

type weightResponse struct {
	WeightEstimates []WeightEstimate `json:"weight_estimates" validate:"dive"`
}

// WeightEstimator 以模型估算每個食材的重量（公斤）
type WeightEstimator struct {
	llm      Completer
	attempts int
}

// NewWeightEstimator 建立重量估算階段
func NewWeightEstimator(llm Completer, attempts int) *WeightEstimator {
	return &WeightEstimator{llm: llm, attempts: attempts}
}

// Estimate 回傳與輸入同順序的估算，對應不到的位置為 nil
func (w *WeightEstimator) Estimate(ctx context.Context, ingredients []string) ([]*WeightEstimate, error) {
	if len(ingredients) == 0 {
		return nil, nil
	}

	messages := weightMessages(ingredients)
	resp, err := WithRetry(ctx, w.attempts, func(ctx context.Context, feedback string) (weightResponse, error) {
		resp, err := completeJSON[weightResponse](ctx, w.llm, StageWeights, messages, feedback)
		if err == nil && len(resp.WeightEstimates) == 0 {
			return resp, &ParseError{Stage: StageWeights, Err: errors.New("weight_estimates is empty")}
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	return align(ingredients, resp.WeightEstimates, func(e WeightEstimate) string { return e.Ingredient }), nil
}
