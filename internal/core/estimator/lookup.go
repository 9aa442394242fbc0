package estimator

import (
	"context"
	"fmt"
	"strings"

	"food-co2-estimator/internal/core/emission"
	"food-co2-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// CandidateSearcher 排放係數候選檢索
type CandidateSearcher interface {
	Search(ctx context.Context, query string, k int) ([]emission.Candidate, error)
}

type lookupResponse struct {
	Emissions []DBEmission `json:"emissions" validate:"dive"`
}

// EmissionLookup 以候選清單讓模型挑選最合適的排放係數
// --------------------------------------------------
type EmissionLookup struct {
	index    CandidateSearcher
	llm      Completer
	topK     int
	attempts int
}

// NewEmissionLookup 建立資料庫比對階段
func NewEmissionLookup(index CandidateSearcher, llm Completer, topK, attempts int) *EmissionLookup {
	if topK <= 0 {
		topK = 5
	}
	return &EmissionLookup{index: index, llm: llm, topK: topK, attempts: attempts}
}

// Lookup 每個輸入一筆結果（同順序）；查無為 NotFound，服務失敗回傳 error
func (l *EmissionLookup) Lookup(ctx context.Context, ingredients []string) ([]Outcome[DBEmission], error) {
	out := make([]Outcome[DBEmission], len(ingredients))
	if len(ingredients) == 0 {
		return out, nil
	}

	var (
		sb    strings.Builder
		total int
	)
	for _, name := range ingredients {
		cleaned := Normalize(name)
		candidates, err := l.index.Search(ctx, cleaned, l.topK)
		if err != nil {
			return nil, fmt.Errorf("search candidates for %q: %w", cleaned, err)
		}
		total += len(candidates)

		fmt.Fprintf(&sb, "%s:\n", name)
		if len(candidates) == 0 {
			sb.WriteString("- (no options)\n")
		}
		for _, c := range candidates {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}

	if total == 0 {
		for i, name := range ingredients {
			out[i] = notFound(name, "no emission options found in database")
		}
		return out, nil
	}

	resp, err := completeWithRetry[lookupResponse](ctx, l.llm, StageLookup, l.attempts, lookupMessages(ingredients, sb.String()))
	if err != nil {
		return nil, err
	}

	aligned := align(ingredients, resp.Emissions, func(e DBEmission) string { return e.Ingredient })
	for i, name := range ingredients {
		em := aligned[i]
		if em == nil {
			out[i] = notFound(name, "no answer for ingredient")
			continue
		}
		res := *em
		res.Ingredient = name
		if res.CO2PerKg != nil && emission.IsFinishedDish(res.Match) {
			common.LogWarn("拒絕以成品菜餚作為比對結果",
				zap.String("ingredient", name),
				zap.String("match", res.Match),
			)
			res.CO2PerKg = nil
			res.Explanation = fmt.Sprintf("%s (rejected: %q is a finished dish)", res.Explanation, res.Match)
		}
		if res.CO2PerKg == nil {
			out[i] = Outcome[DBEmission]{Kind: OutcomeNotFound, Value: res}
			continue
		}
		out[i] = Found(res)
	}
	return out, nil
}

func notFound(name, explanation string) Outcome[DBEmission] {
	return Outcome[DBEmission]{Kind: OutcomeNotFound, Value: DBEmission{Ingredient: name, Explanation: explanation}}
}
