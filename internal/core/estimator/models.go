package estimator

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Language 食譜語言
type Language string

const (
	LanguageEnglish     Language = "en"
	LanguageDanish      Language = "da"
	LanguageNorwegian   Language = "no"
	LanguageSwedish     Language = "sv"
	LanguageUnsupported Language = ""
)

// SupportedLanguages 可偵測的語言（挪威語、瑞典語會視為丹麥語）
var SupportedLanguages = []Language{LanguageEnglish, LanguageDanish, LanguageNorwegian, LanguageSwedish}

var languageNames = map[Language]string{
	LanguageEnglish:   "English",
	LanguageDanish:    "Danish",
	LanguageNorwegian: "Norwegian",
	LanguageSwedish:   "Swedish",
}

// Tag BCP 47 標籤
func (l Language) Tag() language.Tag {
	switch l {
	case LanguageEnglish:
		return language.English
	case LanguageDanish:
		return language.Danish
	case LanguageNorwegian:
		return language.Norwegian
	case LanguageSwedish:
		return language.Swedish
	}
	return language.Und
}

// Code 翻譯服務使用的 ISO 639-1 代碼
func (l Language) Code() string {
	base, _ := l.Tag().Base()
	return base.String()
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return "Unsupported"
}

// Recipe 模型擷取出的食譜
type Recipe struct {
	Ingredients  []string `json:"ingredients"`
	Persons      *int     `json:"persons" validate:"omitempty,gt=0"`
	Instructions *string  `json:"instructions"`
}

// WeightEstimate 單一食材的重量估算
type WeightEstimate struct {
	Ingredient  string   `json:"ingredient" validate:"required"`
	Calculation string   `json:"weight_calculation"`
	WeightKg    *float64 `json:"weight_in_kg" validate:"omitempty,gte=0"`
}

// DBEmission 由排放係數資料庫比對出的結果
type DBEmission struct {
	Ingredient  string   `json:"ingredient" validate:"required"`
	Match       string   `json:"match"`
	Explanation string   `json:"explanation"`
	Unit        string   `json:"unit"`
	CO2PerKg    *float64 `json:"co2_per_kg" validate:"omitempty,gte=0"`
}

// SearchEmission 由網路搜尋推估的結果
type SearchEmission struct {
	Ingredient  string   `json:"ingredient" validate:"required"`
	Explanation string   `json:"explanation"`
	Unit        *string  `json:"unit"`
	Result      *float64 `json:"result" validate:"omitempty,gte=0"`
}

// EnrichedIngredient 流程中逐步補齊資料的食材
type EnrichedIngredient struct {
	ID             uuid.UUID
	Position       int
	OriginalName   string
	EnglishName    *string
	Weight         *WeightEstimate
	EmissionDB     *DBEmission
	EmissionSearch *SearchEmission
}

// WeightKg 已知重量
func (i *EnrichedIngredient) WeightKg() (float64, bool) {
	if i.Weight == nil || i.Weight.WeightKg == nil {
		return 0, false
	}
	return *i.Weight.WeightKg, true
}

// AboveThreshold 重量已知且大於可忽略門檻
func (i *EnrichedIngredient) AboveThreshold(threshold float64) bool {
	w, ok := i.WeightKg()
	return ok && !negligible(w, threshold)
}

// NeedsSearch 資料庫未找到排放係數
func (i *EnrichedIngredient) NeedsSearch() bool {
	return i.EmissionDB == nil || i.EmissionDB.CO2PerKg == nil
}

func negligible(weightKg, threshold float64) bool {
	return weightKg <= threshold
}

// EnrichedRecipe 估算流程的工作資料
// --------------------------------------------------
type EnrichedRecipe struct {
	Source       string
	Persons      *int
	Instructions *string
	Ingredients  []*EnrichedIngredient
}

// FromExtracted 由擷取結果建立，每個位置一筆（重複文字也保留）
func FromExtracted(source string, r Recipe) *EnrichedRecipe {
	out := &EnrichedRecipe{
		Source:       source,
		Persons:      r.Persons,
		Instructions: r.Instructions,
		Ingredients:  make([]*EnrichedIngredient, 0, len(r.Ingredients)),
	}
	for pos, name := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, &EnrichedIngredient{
			ID:           uuid.New(),
			Position:     pos,
			OriginalName: name,
		})
	}
	return out
}

// OriginalNames 原始名稱
func (r *EnrichedRecipe) OriginalNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.OriginalName
	}
	return names
}

// EnglishNames 英文名稱，未翻譯者為空字串
func (r *EnrichedRecipe) EnglishNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		if ing.EnglishName != nil {
			names[i] = *ing.EnglishName
		}
	}
	return names
}

// HasInstructions 有可用的作法說明
func (r *EnrichedRecipe) HasInstructions() bool {
	return r.Instructions != nil && strings.TrimSpace(*r.Instructions) != ""
}

// ApplyTranslations 設定英文名稱；數量不符時退回原始名稱
func (r *EnrichedRecipe) ApplyTranslations(translated []string, instructions *string) {
	if len(translated) != len(r.Ingredients) {
		translated = r.OriginalNames()
	}
	for i, ing := range r.Ingredients {
		name := strings.TrimSpace(translated[i])
		ing.EnglishName = &name
	}
	r.Instructions = instructions
}

// Keyed 以食材位置為鍵的階段結果
type Keyed[T any] map[int]T

// align 將模型回傳的結果依輸入順序排列：名稱完全相符者優先（同名輸入共用一筆），
// 名稱對不上且筆數一致時依位置對應，其餘為 nil
func align[T any](inputs []string, results []T, name func(T) string) []*T {
	byName := make(map[string]int, len(results))
	for i, res := range results {
		if _, ok := byName[name(res)]; !ok {
			byName[name(res)] = i
		}
	}

	out := make([]*T, len(inputs))
	for i, in := range inputs {
		if j, ok := byName[in]; ok {
			out[i] = &results[j]
			continue
		}
		if len(results) == len(inputs) {
			out[i] = &results[i]
		}
	}
	return out
}

func (r *EnrichedRecipe) at(pos int) *EnrichedIngredient {
	if pos < 0 || pos >= len(r.Ingredients) {
		return nil
	}
	return r.Ingredients[pos]
}

// ApplyWeights 套用重量估算
func (r *EnrichedRecipe) ApplyWeights(results Keyed[WeightEstimate]) {
	for pos, est := range results {
		if ing := r.at(pos); ing != nil {
			ing.Weight = &est
		}
	}
}

// ApplyDBEmissions 套用資料庫比對結果
func (r *EnrichedRecipe) ApplyDBEmissions(results Keyed[DBEmission]) {
	for pos, em := range results {
		if ing := r.at(pos); ing != nil {
			ing.EmissionDB = &em
		}
	}
}

// ApplySearchEmissions 套用搜尋結果，只補資料庫未找到的食材
func (r *EnrichedRecipe) ApplySearchEmissions(results Keyed[SearchEmission]) {
	for pos, em := range results {
		if ing := r.at(pos); ing != nil && ing.NeedsSearch() {
			ing.EmissionSearch = &em
		}
	}
}

// OutcomeKind 階段結果種類
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeNotFound
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// Outcome 區分「找不到」與「服務失敗」
type Outcome[T any] struct {
	Kind  OutcomeKind
	Value T
	Err   error
}

// Found 成功結果
func Found[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeOK, Value: v}
}

// Missing 查無結果
func Missing[T any]() Outcome[T] {
	return Outcome[T]{Kind: OutcomeNotFound}
}

// Failed 失敗結果
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeError, Err: err}
}
