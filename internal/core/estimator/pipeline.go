package estimator

import (
	"context"
	"errors"
	"strings"
	"time"

	"food-co2-estimator/internal/core/scraper"
	"food-co2-estimator/internal/core/translate"
	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/pkg/common"
	"food-co2-estimator/internal/pkg/metrics"

	"go.uber.org/zap"
)

// SourceText 輸入為純文字時的來源標記
const SourceText = "text"

// PageExtractor 由網址取得食譜文字
type PageExtractor interface {
	Extract(ctx context.Context, rawURL string) (*scraper.Page, error)
}

// Options 估算器相依元件
type Options struct {
	LLM         Completer
	Pages       PageExtractor
	Detector    TextDetector
	Translators []translate.Provider
	Selector    translate.Selector
	Index       CandidateSearcher
	// Web 為 nil 時停用搜尋補查
	Web    WebSearcher
	Pool   Pool
	Config config.EstimatorConfig
}

// Estimator 估算流程：擷取 → 語言偵測 → 翻譯 → 重量 → 資料庫比對 → 搜尋補查 → 彙總
// --------------------------------------------------
type Estimator struct {
	pages      PageExtractor
	extractor  *Extractor
	detector   TextDetector
	translator *Translator
	weights    *WeightEstimator
	lookup     *EmissionLookup
	search     *EmissionSearch
	cfg        config.EstimatorConfig
}

// New 建立估算器，可同時服務多個請求
func New(opts Options) *Estimator {
	cfg := opts.Config
	attempts := cfg.ParseRetries + 1
	detector := opts.Detector
	if detector == nil {
		detector = NewWhatlangDetector()
	}

	e := &Estimator{
		pages:      opts.Pages,
		extractor:  NewExtractor(opts.LLM, attempts),
		detector:   detector,
		translator: NewTranslator(opts.Translators, opts.Selector, cfg.TranslationAttempts, cfg.TranslateTimeout),
		weights:    NewWeightEstimator(opts.LLM, attempts),
		lookup:     NewEmissionLookup(opts.Index, opts.LLM, cfg.TopK, attempts),
		cfg:        cfg,
	}
	if opts.Web != nil {
		e.search = NewEmissionSearch(opts.Web, opts.LLM, opts.Pool, cfg.SearchTimeout, attempts)
	}
	return e
}

// Result 一次估算的完整結果
type Result struct {
	Report   string
	Outcome  string
	Err      error
	Language Language
	Recipe   *EnrichedRecipe
	Summary  *Report
}

// Estimate 回傳報告或固定的錯誤訊息
func (e *Estimator) Estimate(ctx context.Context, input string, verbose bool, threshold float64) string {
	return e.Run(ctx, input, verbose, threshold).Report
}

// Run 執行整個流程，失敗時 Report 為對應的終止訊息
func (e *Estimator) Run(ctx context.Context, input string, verbose bool, threshold float64) Result {
	input = strings.TrimSpace(input)
	source := SourceText
	if common.IsHTTPURL(input) {
		source = input
	}
	ctx = common.WithSource(ctx, source)

	start := time.Now()
	res := e.run(ctx, input, source, verbose, threshold)
	if res.Err != nil {
		res.Report = Message(res.Err)
		res.Outcome = strings.ToLower(ToCustomError(res.Err).Code)
		common.LogError(res.Report,
			zap.String("source", source),
			zap.String("request_id", common.RequestIDFrom(ctx)),
			zap.Error(res.Err),
		)
	} else {
		res.Outcome = metrics.StatusOK
		common.LogInfo("估算完成",
			zap.String("source", source),
			zap.String("request_id", common.RequestIDFrom(ctx)),
			zap.String("language", res.Language.String()),
			zap.Int("ingredients", len(res.Recipe.Ingredients)),
			zap.Float64("total_kg_co2e", res.Summary.TotalKg),
			zap.Duration("duration", time.Since(start)),
		)
	}
	metrics.EstimationsTotal.WithLabelValues(res.Outcome).Inc()
	return res
}

func (e *Estimator) run(ctx context.Context, input, source string, verbose bool, threshold float64) Result {
	var res Result

	// Ingest
	text := input
	if source != SourceText {
		err := e.stage(ctx, StageIngest, func(ctx context.Context) error {
			if e.pages == nil {
				return errors.New("page extractor not configured")
			}
			page, err := e.pages.Extract(ctx, source)
			if err != nil {
				return err
			}
			text = strings.TrimSpace(page.Title + "\n" + page.Text)
			return nil
		})
		if err != nil {
			res.Err = stageErr(StageIngest, ErrPageFetch, err)
			return res
		}
	}
	if strings.TrimSpace(text) == "" {
		res.Err = stageErr(StageIngest, ErrNoRecipe, errors.New("empty input"))
		return res
	}

	// Extract
	var extracted Outcome[Recipe]
	_ = e.stage(ctx, StageExtract, func(ctx context.Context) error {
		extracted = e.extractor.Extract(ctx, text, source)
		return extracted.Err
	})
	switch extracted.Kind {
	case OutcomeNotFound:
		res.Err = stageErr(StageExtract, ErrNoRecipe, nil)
		return res
	case OutcomeError:
		res.Err = stageErr(StageExtract, ErrExtraction, extracted.Err)
		return res
	}
	recipe := FromExtracted(source, extracted.Value)
	res.Recipe = recipe

	// DetectLanguage
	_ = e.stage(ctx, StageDetect, func(context.Context) error {
		res.Language = DetectLanguage(e.detector, recipe)
		return nil
	})
	if res.Language == LanguageUnsupported {
		res.Err = stageErr(StageDetect, ErrUnsupportedLanguage, nil)
		return res
	}

	// Translate
	if err := e.stage(ctx, StageTranslate, func(ctx context.Context) error {
		return e.translator.Translate(ctx, recipe, res.Language)
	}); err != nil {
		res.Err = asStageErr(StageTranslate, ErrTranslation, err)
		return res
	}

	// EstimateWeights
	if err := e.stage(ctx, StageWeights, func(ctx context.Context) error {
		names := recipe.EnglishNames()
		estimates, err := e.weights.Estimate(ctx, names)
		if err != nil {
			return err
		}
		keyed := make(Keyed[WeightEstimate], len(estimates))
		for pos, est := range estimates {
			if est != nil {
				keyed[pos] = *est
			}
		}
		recipe.ApplyWeights(keyed)
		return nil
	}); err != nil {
		res.Err = stageErr(StageWeights, ErrWeightEstimation, err)
		return res
	}

	// LookupEmissions
	if err := e.stage(ctx, StageLookup, func(ctx context.Context) error {
		positions, names := pick(recipe, func(ing *EnrichedIngredient) bool {
			return ing.AboveThreshold(threshold)
		})
		outcomes, err := e.lookup.Lookup(ctx, names)
		if err != nil {
			return err
		}
		recipe.ApplyDBEmissions(keyOutcomes(positions, outcomes))
		return nil
	}); err != nil {
		res.Err = stageErr(StageLookup, ErrEmissionLookup, err)
		return res
	}

	// SearchFallback：失敗只記錄，不中止
	if e.search != nil {
		if err := e.stage(ctx, StageSearch, func(ctx context.Context) error {
			positions, names := pick(recipe, func(ing *EnrichedIngredient) bool {
				return ing.NeedsSearch() && ing.AboveThreshold(threshold) &&
					ing.EnglishName != nil && *ing.EnglishName != ""
			})
			if len(names) == 0 {
				return nil
			}
			outcomes, err := e.search.Search(ctx, names)
			if err != nil {
				return err
			}
			recipe.ApplySearchEmissions(keyOutcomes(positions, outcomes))
			return nil
		}); err != nil {
			common.LogError(MsgSearch,
				zap.String("source", source),
				zap.String("request_id", common.RequestIDFrom(ctx)),
				zap.Error(err),
			)
		}
	}

	// Aggregate
	_ = e.stage(ctx, StageAggregate, func(context.Context) error {
		report := Render(recipe, threshold, res.Language, verbose)
		res.Summary = &report
		res.Report = report.Text
		return nil
	})
	return res
}

// stage 以階段逾時執行並記錄耗時
func (e *Estimator) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if e.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	common.LogDebug("階段開始",
		zap.String("stage", name),
		zap.String("source", common.SourceFrom(ctx)),
	)
	err := fn(ctx)
	metrics.ObserveStage(name, start)
	common.LogDebug("階段完成",
		zap.String("stage", name),
		zap.String("source", common.SourceFrom(ctx)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return err
}

// pick 取出符合條件的食材位置與英文名稱
func pick(r *EnrichedRecipe, keep func(*EnrichedIngredient) bool) ([]int, []string) {
	var (
		positions []int
		names     []string
	)
	for _, ing := range r.Ingredients {
		if !keep(ing) {
			continue
		}
		positions = append(positions, ing.Position)
		name := ing.OriginalName
		if ing.EnglishName != nil {
			name = *ing.EnglishName
		}
		names = append(names, name)
	}
	return positions, names
}

// keyOutcomes 依位置整理，失敗的項目不套用
func keyOutcomes[T any](positions []int, outcomes []Outcome[T]) Keyed[T] {
	keyed := make(Keyed[T], len(outcomes))
	for i, o := range outcomes {
		if i >= len(positions) || o.Kind == OutcomeError {
			continue
		}
		keyed[positions[i]] = o.Value
	}
	return keyed
}

func asStageErr(stage string, kind, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return stageErr(stage, kind, err)
}
