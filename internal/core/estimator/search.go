package estimator

import (
	"context"
	"errors"
	"sync"
	"time"

	"food-co2-estimator/internal/core/ai/queue"
	"food-co2-estimator/internal/core/websearch"
	"food-co2-estimator/internal/pkg/common"
	"food-co2-estimator/internal/pkg/metrics"

	"go.uber.org/zap"
)

// WebSearcher 網路搜尋，回傳合併後的摘要文字
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Pool 有界工作池
type Pool interface {
	Enqueue(ctx context.Context, job queue.Job) (<-chan error, error)
}

type searchResponse struct {
	SearchResults []SearchEmission `json:"search_results" validate:"dive"`
}

// EmissionSearch 資料庫找不到時，以網路搜尋結果推估排放係數
// --------------------------------------------------
type EmissionSearch struct {
	web      WebSearcher
	llm      Completer
	pool     Pool
	timeout  time.Duration
	attempts int
}

// NewEmissionSearch 建立搜尋階段；pool 為 nil 時每個查詢各開一個 goroutine
func NewEmissionSearch(web WebSearcher, llm Completer, pool Pool, timeout time.Duration, attempts int) *EmissionSearch {
	return &EmissionSearch{web: web, llm: llm, pool: pool, timeout: timeout, attempts: attempts}
}

// SearchQuery 搜尋字串
func SearchQuery(ingredient string) string {
	return Normalize(ingredient) + " emission kg CO2 per kg"
}

// Search 每個輸入一筆結果（同順序）；所有搜尋都失敗時回傳 error
func (s *EmissionSearch) Search(ctx context.Context, ingredients []string) ([]Outcome[SearchEmission], error) {
	out := make([]Outcome[SearchEmission], len(ingredients))
	if len(ingredients) == 0 {
		return out, nil
	}

	unique := make([]string, 0, len(ingredients))
	seen := make(map[string]bool, len(ingredients))
	for _, name := range ingredients {
		if !seen[name] {
			seen[name] = true
			unique = append(unique, name)
		}
	}

	snippets := s.fanOut(ctx, unique)

	found := make([]string, 0, len(unique))
	results := make(map[string]string, len(unique))
	var firstErr error
	failed := 0
	for i, name := range unique {
		switch snippets[i].Kind {
		case OutcomeOK:
			found = append(found, name)
			results[name] = snippets[i].Value
		case OutcomeError:
			failed++
			if firstErr == nil {
				firstErr = snippets[i].Err
			}
		}
	}
	if failed == len(unique) {
		return nil, firstErr
	}

	extracted := map[string]*SearchEmission{}
	if len(found) > 0 {
		resp, err := completeWithRetry[searchResponse](ctx, s.llm, StageSearch, s.attempts, searchMessages(found, results))
		if err != nil {
			return nil, err
		}
		aligned := align(found, resp.SearchResults, func(e SearchEmission) string { return e.Ingredient })
		for i, name := range found {
			extracted[name] = aligned[i]
		}
	}

	byName := make(map[string]Outcome[SearchEmission], len(unique))
	for i, name := range unique {
		switch {
		case snippets[i].Kind == OutcomeError:
			byName[name] = Failed[SearchEmission](snippets[i].Err)
		case extracted[name] == nil:
			byName[name] = Outcome[SearchEmission]{Kind: OutcomeNotFound, Value: SearchEmission{
				Ingredient:  name,
				Explanation: "no usable search results",
			}}
		default:
			res := *extracted[name]
			res.Ingredient = name
			if res.Result == nil {
				byName[name] = Outcome[SearchEmission]{Kind: OutcomeNotFound, Value: res}
			} else {
				byName[name] = Found(res)
			}
		}
	}

	for i, name := range ingredients {
		out[i] = byName[name]
	}
	return out, nil
}

// fanOut 並行搜尋，結果依輸入位置存放，與完成順序無關
func (s *EmissionSearch) fanOut(ctx context.Context, names []string) []Outcome[string] {
	results := make([]Outcome[string], len(names))
	var wg sync.WaitGroup

	for i, name := range names {
		job := func(ctx context.Context) error {
			results[i] = s.searchOne(ctx, name)
			return results[i].Err
		}

		wg.Add(1)
		if s.pool != nil {
			done, err := s.pool.Enqueue(ctx, job)
			if err == nil {
				go func() {
					defer wg.Done()
					// 工作未執行（context 取消或 panic）時補上失敗結果
					if err := <-done; err != nil && results[i].Err == nil {
						results[i] = Failed[string](err)
					}
				}()
				continue
			}
			if !errors.Is(err, queue.ErrQueueFull) {
				results[i] = Failed[string](err)
				wg.Done()
				continue
			}
			common.LogDebug("工作隊列已滿，直接執行搜尋", zap.String("ingredient", name))
		}
		go func() {
			defer wg.Done()
			_ = job(ctx)
		}()
	}

	wg.Wait()
	return results
}

func (s *EmissionSearch) searchOne(ctx context.Context, name string) Outcome[string] {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	snippet, err := s.web.Search(callCtx, SearchQuery(name))
	switch {
	case errors.Is(err, websearch.ErrNoResults):
		metrics.SearchRequestsTotal.WithLabelValues(metrics.StatusOK).Inc()
		return Missing[string]()
	case err != nil:
		metrics.SearchRequestsTotal.WithLabelValues(metrics.StatusError).Inc()
		common.LogWarn("搜尋失敗",
			zap.String("ingredient", name),
			zap.String("request_id", common.RequestIDFrom(ctx)),
			zap.Error(err),
		)
		return Failed[string](err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(metrics.StatusOK).Inc()
	return Found(snippet)
}
