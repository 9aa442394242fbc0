package estimator

import (
	"errors"
	"strings"
	"unicode/utf8"

	"food-co2-estimator/internal/pkg/common"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"
)

// minInstructionRunes 作法說明短於此長度時改用食材清單偵測
const minInstructionRunes = 20

// TextDetector 統計式語言偵測
type TextDetector interface {
	DetectText(text string) (Language, error)
}

// WhatlangDetector 以 whatlanggo 偵測
type WhatlangDetector struct{}

// NewWhatlangDetector 建立偵測器
func NewWhatlangDetector() *WhatlangDetector {
	return &WhatlangDetector{}
}

// DetectText 回傳偵測結果；不在支援清單內的語言回傳 LanguageUnsupported
func (d *WhatlangDetector) DetectText(text string) (lang Language, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return LanguageUnsupported, errors.New("empty text")
	}
	defer func() {
		if r := recover(); r != nil {
			lang, err = LanguageUnsupported, errors.New("language detector panicked")
		}
	}()

	switch whatlanggo.Detect(text).Lang {
	case whatlanggo.Eng:
		return LanguageEnglish, nil
	case whatlanggo.Dan:
		return LanguageDanish, nil
	case whatlanggo.Nob, whatlanggo.Nno:
		return LanguageNorwegian, nil
	case whatlanggo.Swe:
		return LanguageSwedish, nil
	}
	return LanguageUnsupported, nil
}

// DetectLanguage 偵測食譜語言；挪威語與瑞典語視為丹麥語，偵測錯誤視為不支援
func DetectLanguage(d TextDetector, r *EnrichedRecipe) Language {
	text := strings.Join(r.OriginalNames(), ", ")
	if r.HasInstructions() && utf8.RuneCountInString(strings.TrimSpace(*r.Instructions)) >= minInstructionRunes {
		text = *r.Instructions
	}

	lang, err := d.DetectText(text)
	if err != nil {
		common.LogWarn("語言偵測失敗",
			zap.String("source", r.Source),
			zap.Error(err),
		)
		return LanguageUnsupported
	}

	switch lang {
	case LanguageNorwegian, LanguageSwedish:
		return LanguageDanish
	case LanguageEnglish, LanguageDanish:
		return lang
	}
	return LanguageUnsupported
}
