package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"food-co2-estimator/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

var (
	// ErrEmptyPage 網頁沒有可讀內容
	ErrEmptyPage = errors.New("no readable content")
	// ErrTooLarge 網頁超過大小上限
	ErrTooLarge = errors.New("page exceeds size limit")
)

// Page 擷取結果
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetcher 以瀏覽器標頭下載網頁並抽出正文
type Fetcher struct {
	client   *resty.Client
	maxBytes int64
}

// NewFetcher 建立 Fetcher
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "da-DK,da;q=0.9,en-US;q=0.8,en;q=0.7")

	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Extract 下載並抽取正文
func (f *Fetcher) Extract(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", parsed.Host, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", parsed.Host, resp.StatusCode())
	}

	// 讀取上限 +1 以判斷是否截斷
	html, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(html)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	page, err := ExtractHTML(html, parsed)
	if err != nil {
		return nil, err
	}
	common.LogDebug("網頁正文已擷取",
		zap.String("host", parsed.Host),
		zap.String("title", page.Title),
		zap.Int("chars", len(page.Text)),
	)
	return page, nil
}

var blankLines = regexp.MustCompile(`\n\s*\n+`)

// ExtractHTML 以 readability 抽出標題與正文
func ExtractHTML(html []byte, pageURL *url.URL) (*Page, error) {
	article, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	text := strings.TrimSpace(blankLines.ReplaceAllString(article.TextContent, "\n\n"))
	if text == "" {
		return nil, ErrEmptyPage
	}

	page := &Page{Title: strings.TrimSpace(article.Title), Text: text}
	if pageURL != nil {
		page.URL = pageURL.String()
	}
	if page.Title != "" && !strings.Contains(text, page.Title) {
		page.Text = page.Title + "\n\n" + text
	}
	return page, nil
}
