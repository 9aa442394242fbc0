package estimator

import (
	"context"
	"sync"
	"time"

	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/core/scraper"
	"food-co2-estimator/internal/infrastructure/config"

	"github.com/stretchr/testify/mock"
)

// MockLLM 依階段回傳預設內容
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, stage string, messages []provider.Message) (string, error) {
	args := m.Called(ctx, stage, messages)
	return args.String(0), args.Error(1)
}

type fakeDetector struct {
	lang Language
	err  error
	got  string
}

func (d *fakeDetector) DetectText(text string) (Language, error) {
	d.got = text
	return d.lang, d.err
}

type fakeTranslator struct {
	name  string
	out   string
	err   error
	mu    sync.Mutex
	calls int
}

func (f *fakeTranslator) Name() string { return f.name }

func (f *fakeTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.out, f.err
}

type fakeWeb struct {
	mu      sync.Mutex
	results map[string]string
	errs    map[string]error
	queries []string
}

func (w *fakeWeb) Search(ctx context.Context, query string) (string, error) {
	w.mu.Lock()
	w.queries = append(w.queries, query)
	w.mu.Unlock()
	if err := w.errs[query]; err != nil {
		return "", err
	}
	return w.results[query], nil
}

type fakePages struct {
	page *scraper.Page
	err  error
}

func (p *fakePages) Extract(ctx context.Context, rawURL string) (*scraper.Page, error) {
	return p.page, p.err
}

func testConfig() config.EstimatorConfig {
	return config.EstimatorConfig{
		NegligibleThreshold: 0.01,
		TopK:                5,
		TranslationAttempts: 2,
		ParseRetries:        1,
		StageTimeout:        5 * time.Second,
		SearchTimeout:       time.Second,
		TranslateTimeout:    time.Second,
		FetchTimeout:        time.Second,
		MaxPageBytes:        1 << 20,
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func recipeOf(names ...string) *EnrichedRecipe {
	r := FromExtracted(SourceText, Recipe{Ingredients: names})
	r.ApplyTranslations(names, nil)
	return r
}
