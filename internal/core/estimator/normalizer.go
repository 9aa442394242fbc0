package estimator

import (
	"regexp"
	"sort"
	"strings"
)

// vocabulary 一種語言的數量詞、單位與填充詞
type vocabulary struct {
	numbers []string
	units   []string
	fillers []string
}

var englishVocabulary = vocabulary{
	numbers: []string{
		"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "half", "quarter",
	},
	units: []string{
		"milligram", "milligrams", "gram", "grams", "kilogram", "kilograms",
		"ounce", "ounces", "pound", "pounds", "mg", "g", "kg", "oz", "lb", "lbs",
		"milliliter", "milliliters", "deciliter", "deciliters", "liter", "liters", "litre", "litres",
		"cup", "cups", "tablespoon", "tablespoons", "teaspoon", "teaspoons",
		"pint", "pints", "quart", "quarts", "gallon", "gallons",
		"ml", "l", "dl", "tbsp", "tbsps", "tsp",
		"package", "packages", "bunch", "bunches", "pinch", "pinches", "clove", "cloves",
		"slice", "slices", "bottle", "bottles", "piece", "pieces", "stick", "sticks",
		"pkg", "pkgs", "dozen", "jar", "can", "cm", "drop", "drops", "large",
		"t", "c",
	},
	fillers: []string{
		"a", "about", "additional", "all", "an", "and", "any", "approximately", "around",
		"at", "each", "enough", "extra", "few", "for", "fresh", "full", "handful", "just",
		"large", "little", "medium", "more", "nearly", "of", "or", "other", "per", "piece",
		"pinch", "plus", "portion", "roughly", "serving", "several", "small", "some",
		"tablespoon", "teaspoon", "the", "to", "whole", "with",
	},
}

var danishVocabulary = vocabulary{
	numbers: []string{
		"en", "et", "to", "tre", "fire", "fem", "seks", "syv", "otte", "ni", "ti",
		"elleve", "tolv", "halv", "halvt", "halvanden", "kvart",
	},
	units: []string{
		"gram", "kilo", "kg", "g", "mg", "liter", "l", "dl", "cl", "ml",
		"spsk", "tsk", "stk", "fed", "dåse", "dåser", "pakke", "pakker", "pk",
		"bundt", "bdt", "knsp", "knivspids", "skive", "skiver", "glas", "ds",
	},
	fillers: []string{
		"ca.", "cirka", "evt.", "lidt", "nogle", "af", "og", "eller", "frisk", "friske",
		"stor", "store", "lille", "små", "mellemstor", "mellemstore", "hel", "hele",
	},
}

// normalizer 去除食材字串開頭的數量與單位
//
// 單字母單位（t、c、l、g）只在緊接數量之後才去除，避免 "T-bone" 之類的名稱被切掉。
type normalizer struct {
	quantity   *regexp.Regexp
	unit       *regexp.Regexp
	quantified *regexp.Regexp
}

var defaultNormalizer = newNormalizer(englishVocabulary, danishVocabulary)

func newNormalizer(vocabs ...vocabulary) *normalizer {
	var numbers, units, fillers []string
	for _, v := range vocabs {
		numbers = append(numbers, v.numbers...)
		units = append(units, v.units...)
		fillers = append(fillers, v.fillers...)
	}

	quantity := `(?i)^\s*(?:` +
		`\d*[.,]\d+` + // 0.5, ,75, 1,5
		`|\d+(?:/\d+)?` + // 2, 1/2
		`|\b(?:` + alternation(numbers) + `)\b` +
		`|to\s+|~|\.{2,3}|-` + // 2 to 3, 2~3, 2-3
		`|(?:` + alternation(fillers) + `)(?:\s+|-)` +
		`)`
	var words []string
	for _, u := range units {
		if len([]rune(u)) > 1 {
			words = append(words, u)
		}
	}

	return &normalizer{
		quantity:   regexp.MustCompile(quantity),
		unit:       regexp.MustCompile(unitPattern(words)),
		quantified: regexp.MustCompile(unitPattern(units)),
	}
}

func unitPattern(units []string) string {
	return `(?i)^\s*(?:\b(?:` + alternation(units) + `)\b\.?)(?:\s+(?:of|af)\b)?\s*`
}

// alternation 依長度由長到短排序並跳脫
func alternation(words []string) string {
	seen := make(map[string]bool, len(words))
	uniq := make([]string, 0, len(words))
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			uniq = append(uniq, w)
		}
	}
	sort.SliceStable(uniq, func(i, j int) bool { return len(uniq[i]) > len(uniq[j]) })
	for i, w := range uniq {
		uniq[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(uniq, "|")
}

// Normalize 去除數量與單位取得查詢用名稱；全部被去除時回傳原字串
func Normalize(ingredient string) string {
	return defaultNormalizer.normalize(ingredient)
}

// normalize 反覆去除數量與單位直到不再變動
func (n *normalizer) normalize(ingredient string) string {
	cur := ingredient
	last := ingredient
	for {
		stripped := n.stripQuantities(cur)
		unit := n.unit
		if stripped != strings.TrimSpace(cur) {
			unit = n.quantified
		}
		next := stripUnit(unit, stripped)
		if next == cur {
			break
		}
		cur = next
		if cur != "" {
			last = cur
		}
	}
	if strings.TrimSpace(last) == "" {
		return ingredient
	}
	return strings.TrimSpace(last)
}

// stripQuantities 重複去除開頭的數量詞直到不再符合
func (n *normalizer) stripQuantities(s string) string {
	for {
		loc := n.quantity.FindStringIndex(s)
		if loc == nil || loc[1] == 0 {
			return strings.TrimSpace(s)
		}
		s = strings.TrimSpace(s[loc[1]:])
	}
}

// stripUnit 去除一個開頭單位（以及其後的 of）
func stripUnit(unit *regexp.Regexp, s string) string {
	loc := unit.FindStringIndex(s)
	if loc == nil {
		return s
	}
	if rest := strings.TrimSpace(s[loc[1]:]); rest != "" {
		return rest
	}
	return s
}

// NormalizeAll 批次 Normalize
func NormalizeAll(ingredients []string) []string {
	out := make([]string, len(ingredients))
	for i, ing := range ingredients {
		out[i] = Normalize(ing)
	}
	return out
}
