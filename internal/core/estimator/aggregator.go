package estimator

import (
	"fmt"
	"strconv"
	"strings"

	"food-co2-estimator/internal/pkg/common"
)

// 丹麥晚餐每人平均排放（kg CO2e）
// 年食物排放 1.97 t/人 → 每日 5.39 kg，晚餐約占每日熱量 24%~40%
const (
	MinDinnerEmissionPerPerson = 1.3
	MaxDinnerEmissionPerPerson = 2.2
)

const separator = "----------------------------------------"

// messageTable 報告文字
var messageTable = map[Language]map[string]string{
	LanguageEnglish: {
		"unable":                      "unable to estimate weight",
		"negligible":                  "weight on %s kg is negligible",
		"not_found":                   "CO2e per kg not found",
		"total":                       "Total CO2 emission",
		"persons":                     "Estimated number of persons",
		"emission_pr_person":          "Emission pr. person",
		"avg_meal_emission_pr_person": "Avg. Danish dinner emission pr person",
		"method":                      "The calculation method per ingredient is",
		"legends":                     "Legends",
		"db":                          "(DB) - Data from SQL Database (https://denstoreklimadatabase.dk)",
		"search":                      "(Search) - Data obtained from search",
		"comments":                    "Comments",
		"for":                         "For",
	},
	LanguageDanish: {
		"unable":                      "kan ikke skønne vægt",
		"negligible":                  "vægt på %s kg er negligerbar",
		"not_found":                   "CO2e per kg ikke fundet",
		"total":                       "Samlet CO2-udslip",
		"persons":                     "Estimeret antal personer",
		"emission_pr_person":          "Emission pr. person",
		"avg_meal_emission_pr_person": "Gennemsnitligt aftensmad udledning pr. person",
		"method":                      "Beregningsmetoden pr. ingrediens er",
		"legends":                     "Forklaring",
		"db":                          "(DB) - Data fra SQL Database (https://denstoreklimadatabase.dk)",
		"search":                      "(Søgning) - Data opnået fra søgning",
		"comments":                    "Kommentarer",
		"for":                         "For",
	},
}

// messagesFor 不支援的語言使用英文
func messagesFor(lang Language) map[string]string {
	if m, ok := messageTable[lang]; ok {
		return m
	}
	return messageTable[LanguageEnglish]
}

// Report 彙總結果
type Report struct {
	Text         string
	TotalKg      float64
	PerPersonKg  *float64
	Contributing int
}

// Render 產生報告；總量為各食材四捨五入後排放量的總和
func Render(r *EnrichedRecipe, threshold float64, lang Language, verbose bool) Report {
	t := messagesFor(lang)

	var (
		lines        []string
		comments     []string
		total        float64
		contributing int
	)
	for _, ing := range r.Ingredients {
		comments = append(comments, ingredientComments(t, ing)...)

		w, ok := ing.WeightKg()
		if !ok {
			lines = append(lines, fmt.Sprintf("%s: %s", ing.OriginalName, t["unable"]))
			continue
		}
		if negligible(w, threshold) {
			lines = append(lines, fmt.Sprintf("%s: %s", ing.OriginalName,
				fmt.Sprintf(t["negligible"], formatNumber(common.Round(w, 3)))))
			continue
		}

		factor, tag, found := emissionFactor(ing)
		if !found {
			lines = append(lines, fmt.Sprintf("%s: %s", ing.OriginalName, t["not_found"]))
			continue
		}

		value := common.Round(w*factor, 2)
		lines = append(lines, fmt.Sprintf("%s: %s kg * %s kg CO2e / kg (%s) = %s kg CO2e",
			ing.OriginalName, formatNumber(common.Round(w, 2)), formatNumber(common.Round(factor, 2)), tag, formatNumber(value)))
		total += value
		contributing++
	}

	var sb strings.Builder
	sb.WriteString(separator)
	fmt.Fprintf(&sb, "\n%s: %s kg CO2e", t["total"], formatNumber(common.Round(total, 2)))

	report := Report{TotalKg: total, Contributing: contributing}
	if r.Persons != nil && *r.Persons > 0 {
		perPerson := total / float64(*r.Persons)
		report.PerPersonKg = &perPerson
		fmt.Fprintf(&sb, "\n%s: %d", t["persons"], *r.Persons)
		fmt.Fprintf(&sb, "\n%s: %s kg CO2e / pr. person", t["emission_pr_person"], formatNumber(common.Round(perPerson, 1)))
	}
	fmt.Fprintf(&sb, "\n%s: %s - %s kg CO2e / pr. person", t["avg_meal_emission_pr_person"],
		formatNumber(MinDinnerEmissionPerPerson), formatNumber(MaxDinnerEmissionPerPerson))
	sb.WriteString("\n" + separator)
	fmt.Fprintf(&sb, "\n%s: X kg * Y kg CO2e / kg = Z kg CO2e", t["method"])
	sb.WriteString("\n" + strings.Join(lines, "\n"))
	sb.WriteString("\n" + separator)

	fmt.Fprintf(&sb, "\n\n%s:", t["legends"])
	sb.WriteString("\n" + t["db"])
	sb.WriteString("\n" + t["search"])

	if verbose {
		fmt.Fprintf(&sb, "\n\n%s:", t["comments"])
		for _, c := range comments {
			sb.WriteString("\n" + c)
		}
	}

	report.Text = sb.String()
	return report
}

// emissionFactor 資料庫優先，其次為搜尋結果
func emissionFactor(ing *EnrichedIngredient) (float64, string, bool) {
	if ing.EmissionDB != nil && ing.EmissionDB.CO2PerKg != nil {
		return *ing.EmissionDB.CO2PerKg, "DB", true
	}
	if ing.EmissionSearch != nil && ing.EmissionSearch.Result != nil {
		return *ing.EmissionSearch.Result, "Search", true
	}
	return 0, "", false
}

func ingredientComments(t map[string]string, ing *EnrichedIngredient) []string {
	out := []string{fmt.Sprintf("%s %s:", t["for"], ing.OriginalName)}
	if ing.Weight != nil && ing.Weight.Calculation != "" {
		out = append(out, "- Weight: "+ing.Weight.Calculation)
	}
	if ing.EmissionDB != nil && ing.EmissionDB.Explanation != "" {
		out = append(out, "- DB: "+ing.EmissionDB.Explanation)
	}
	if ing.EmissionSearch != nil && ing.EmissionSearch.Explanation != "" {
		out = append(out, "- Search: "+ing.EmissionSearch.Explanation)
	}
	return out
}

// formatNumber 最短表示，整數保留一位小數（2 → "2.0"）
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
