package estimator

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"food-co2-estimator/internal/pkg/common"

	"go.uber.org/zap"
)

// personsParam 食譜網址中代表份數的查詢參數
const personsParam = "antal"

// Extractor 由網頁文字擷取結構化食譜
type Extractor struct {
	llm      Completer
	attempts int
}

// NewExtractor 建立擷取階段
func NewExtractor(llm Completer, attempts int) *Extractor {
	return &Extractor{llm: llm, attempts: attempts}
}

// Extract 空食材清單為 NotFound，模型輸出無法解析則為 Error
func (e *Extractor) Extract(ctx context.Context, text, source string) Outcome[Recipe] {
	recipe, err := completeWithRetry[Recipe](ctx, e.llm, StageExtract, e.attempts, extractorMessages(text))
	if err != nil {
		return Failed[Recipe](err)
	}

	ingredients := recipe.Ingredients[:0]
	for _, ing := range recipe.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			ingredients = append(ingredients, ing)
		}
	}
	recipe.Ingredients = ingredients
	if len(recipe.Ingredients) == 0 {
		return Missing[Recipe]()
	}

	if persons, ok := PersonsFromURL(source); ok {
		common.LogDebug("網址指定份數",
			zap.String("source", source),
			zap.Int("persons", persons),
		)
		recipe.Persons = &persons
	}
	return Found(recipe)
}

// PersonsFromURL 讀取網址的 antal=<n> 參數
func PersonsFromURL(source string) (int, bool) {
	if !common.IsHTTPURL(source) {
		return 0, false
	}
	u, err := url.Parse(source)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(u.Query().Get(personsParam))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
