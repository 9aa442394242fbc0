package estimator

import (
	"errors"
	"fmt"
	"strings"

	"food-co2-estimator/internal/pkg/common"
)

// 流程階段名稱（日誌、指標、快取鍵共用）
const (
	StageIngest    = "ingest"
	StageExtract   = "extract"
	StageDetect    = "detect_language"
	StageTranslate = "translate"
	StageWeights   = "estimate_weights"
	StageLookup    = "lookup_emissions"
	StageSearch    = "search_fallback"
	StageAggregate = "aggregate"
)

// 使用者看到的終止訊息
const (
	MsgPageFetchFailed  = "Unable to extract text from provided URL"
	MsgNoRecipe         = "I can't find a recipe in the provided URL."
	MsgTranslation      = "Something went wrong in translating recipies."
	MsgWeightEstimation = "Something went wrong in estimating weights of ingredients."
	MsgEmissionLookup   = "Something went wrong in estimating kg CO2e per kg for the ingredients"
	MsgExtraction       = "Something went wrong in extracting the recipe."
	MsgSearch           = "Something went wrong when searching for kg CO2e per kg"
)

// MsgUnsupportedLanguage 語言不支援
var MsgUnsupportedLanguage = unsupportedLanguageMessage()

func unsupportedLanguageMessage() string {
	names := make([]string, len(SupportedLanguages))
	for i, l := range SupportedLanguages {
		names[i] = l.String()
	}
	return "Language is not recognized as " + strings.Join(names, ", ")
}

var (
	ErrPageFetch           = errors.New("unable to extract text from source")
	ErrNoRecipe            = errors.New("no recipe found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrExtraction          = errors.New("recipe extraction failed")
	ErrTranslation         = errors.New("translation failed")
	ErrWeightEstimation    = errors.New("weight estimation failed")
	ErrEmissionLookup      = errors.New("emission lookup failed")
	ErrSearch              = errors.New("emission search failed")
)

// StageError 某階段無法繼續
type StageError struct {
	Stage string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
}

// Is 讓 errors.Is 可比對 Kind 哨兵錯誤
func (e *StageError) Is(target error) bool {
	return e.Kind == target
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// ParseError 模型輸出不符合預期格式，可帶回饋重試
type ParseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unparseable model output: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Feedback 重新提示時附給模型的說明
func (e *ParseError) Feedback() string {
	return fmt.Sprintf(
		"Your previous answer could not be used: %v.\nPrevious answer:\n%s\n\nAnswer again with a single valid JSON object in the requested format.",
		e.Err, common.Truncate(e.Raw, 2000))
}

// Message 錯誤對應的終止訊息
func Message(err error) string {
	switch {
	case errors.Is(err, ErrPageFetch):
		return MsgPageFetchFailed
	case errors.Is(err, ErrNoRecipe):
		return MsgNoRecipe
	case errors.Is(err, ErrUnsupportedLanguage):
		return MsgUnsupportedLanguage
	case errors.Is(err, ErrTranslation):
		return MsgTranslation
	case errors.Is(err, ErrWeightEstimation):
		return MsgWeightEstimation
	case errors.Is(err, ErrEmissionLookup):
		return MsgEmissionLookup
	default:
		return MsgExtraction
	}
}

// ToCustomError 轉為 API 錯誤
func ToCustomError(err error) *common.CustomError {
	switch {
	case errors.Is(err, ErrPageFetch):
		return common.ErrPageFetchFailed.Wrap(err)
	case errors.Is(err, ErrNoRecipe):
		return common.ErrNoRecipeFound.Wrap(err)
	case errors.Is(err, ErrUnsupportedLanguage):
		return common.ErrUnsupportedLanguage.Wrap(err)
	case errors.Is(err, ErrTranslation):
		return common.ErrTranslationFailed.Wrap(err)
	case errors.Is(err, ErrWeightEstimation):
		return common.ErrWeightEstimationFailed.Wrap(err)
	case errors.Is(err, ErrEmissionLookup):
		return common.ErrEmissionLookupFailed.Wrap(err)
	default:
		return common.ErrExtractionFailed.Wrap(err)
	}
}
