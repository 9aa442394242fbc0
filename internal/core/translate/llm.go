package translate

import (
	"context"
	"fmt"

	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/pkg/common"
)

// LLM 以語言模型翻譯，作為 HTTP 供應商失敗時的後備
type LLM struct {
	svc Completer
}

// NewLLM 建立模型翻譯供應商
func NewLLM(svc Completer) *LLM {
	return &LLM{svc: svc}
}

// Name 供應商名稱
func (l *LLM) Name() string { return "llm" }

// Translate 要求模型保留分隔符號
func (l *LLM) Translate(ctx context.Context, text, from, to string) (string, error) {
	prompt := fmt.Sprintf(`Translate the text below from language "%s" to language "%s".
The text is a list of recipe ingredients followed by instructions, separated by the delimiter "; ".
Keep every delimiter exactly where it is, keep quantities and units, and do not add or remove segments.
Return a JSON object: {"translation": "<translated text>"}

Text:
%s`, from, to, text)

	content, err := l.svc.Complete(ctx, "translate", []provider.Message{
		provider.TextMessage(provider.RoleSystem, "You are a precise culinary translator."),
		provider.TextMessage(provider.RoleUser, prompt),
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Translation string `json:"translation"`
	}
	if err := common.ParseModelJSON(content, &out); err != nil {
		return "", fmt.Errorf("parse llm translation: %w", err)
	}
	if out.Translation == "" {
		return "", fmt.Errorf("empty llm translation")
	}
	return out.Translation, nil
}
