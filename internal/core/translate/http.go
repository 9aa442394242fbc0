package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// MyMemory api.mymemory.translated.net
type MyMemory struct {
	client *resty.Client
	email  string
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  any    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

// NewMyMemory 建立 MyMemory 供應商
func NewMyMemory(baseURL, email string, timeout time.Duration) *MyMemory {
	return &MyMemory{
		client: resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(timeout),
		email:  email,
	}
}

// Name 供應商名稱
func (m *MyMemory) Name() string { return "mymemory" }

// Translate 呼叫 /get
func (m *MyMemory) Translate(ctx context.Context, text, from, to string) (string, error) {
	req := m.client.R().
		SetContext(ctx).
		SetQueryParam("q", text).
		SetQueryParam("langpair", from+"|"+to)
	if m.email != "" {
		req.SetQueryParam("de", m.email)
	}

	var result myMemoryResponse
	resp, err := req.SetResult(&result).Get("/get")
	if err != nil {
		return "", fmt.Errorf("mymemory request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("mymemory returned %d: %s", resp.StatusCode(), resp.String())
	}
	if status := fmt.Sprint(result.ResponseStatus); status != "200" {
		return "", fmt.Errorf("mymemory status %s: %s", status, result.ResponseDetails)
	}
	return result.ResponseData.TranslatedText, nil
}

// LibreTranslate 自架或公開的 LibreTranslate
type LibreTranslate struct {
	client *resty.Client
	apiKey string
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// NewLibreTranslate 建立 LibreTranslate 供應商
func NewLibreTranslate(baseURL, apiKey string, timeout time.Duration) *LibreTranslate {
	return &LibreTranslate{
		client: resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(timeout),
		apiKey: apiKey,
	}
}

// Name 供應商名稱
func (l *LibreTranslate) Name() string { return "libretranslate" }

// Translate 呼叫 /translate
func (l *LibreTranslate) Translate(ctx context.Context, text, from, to string) (string, error) {
	var result libreResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetBody(libreRequest{Q: text, Source: from, Target: to, Format: "text", APIKey: l.apiKey}).
		SetResult(&result).
		SetError(&result).
		Post("/translate")
	if err != nil {
		return "", fmt.Errorf("libretranslate request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("libretranslate returned %d: %s", resp.StatusCode(), result.Error)
	}
	return result.TranslatedText, nil
}
