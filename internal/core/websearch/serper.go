package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"food-co2-estimator/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// ErrNoResults 搜尋沒有結果
var ErrNoResults = errors.New("no search results")

type serperRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl,omitempty"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"knowledgeGraph"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
	Message string `json:"message"`
}

// Client Serper（Google 搜尋 API）客戶端
type Client struct {
	client *resty.Client
	cfg    config.SearchConfig
}

// NewClient 建立搜尋客戶端
func NewClient(cfg config.SearchConfig, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("X-API-KEY", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &Client{client: client, cfg: cfg}
}

// Search 回傳合併後的摘要文字
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	var result serperResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(serperRequest{Q: query, GL: c.cfg.Country, Num: c.cfg.Results}).
		SetResult(&result).
		SetError(&result).
		Post("/search")
	if err != nil {
		return "", fmt.Errorf("serper request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		msg := result.Message
		if msg == "" {
			msg = resp.String()
		}
		return "", fmt.Errorf("serper returned %d: %s", resp.StatusCode(), msg)
	}

	snippets := collectSnippets(&result, c.cfg.Results)
	if len(snippets) == 0 {
		return "", ErrNoResults
	}
	return strings.Join(snippets, " "), nil
}

func collectSnippets(r *serperResponse, limit int) []string {
	var out []string
	if r.AnswerBox != nil {
		if r.AnswerBox.Answer != "" {
			out = append(out, r.AnswerBox.Answer)
		} else if r.AnswerBox.Snippet != "" {
			out = append(out, strings.ReplaceAll(r.AnswerBox.Snippet, "\n", " "))
		}
	}
	if r.KnowledgeGraph != nil && r.KnowledgeGraph.Description != "" {
		out = append(out, r.KnowledgeGraph.Description)
	}
	for i, o := range r.Organic {
		if limit > 0 && i >= limit {
			break
		}
		if o.Snippet != "" {
			out = append(out, o.Snippet)
		}
	}
	return out
}
