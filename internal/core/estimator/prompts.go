package estimator

import (
	"fmt"
	"strings"

	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/pkg/common"
)

// ============================================================================
// Recipe extraction
// ============================================================================

const extractorSystemPrompt = `Act as an expert in extracting recipes from text that understand Danish and English.
Given an unstructured raw text containing a recipe, extract the amount of each ingredient, the number of persons, and the instructions.
The instructions are the description of how you prepare the meal.

Sometimes, there is no recipe to be found, and then you return an empty ingredients list and null in persons and instructions fields.

It is very important that you extract the number of persons (antal personer) from the text. If not able, then estimate the number of persons from the ingredient list based on the amounts in the ingredients.
If the instructions are available, then it is important that you also extract the instructions!

Answer with a JSON object: {"ingredients": [string], "persons": integer or null, "instructions": string or null}

Begin!`

const extractorExampleInput = `dansk hovedret 12 tilberedningstid 45 minutter arbejdstid 25 minutter print bedøm denne opskrift rated 4
/ 5 based on 1 customer reviews hov! du skal være logget ind. log ind bliv medlem ingredienser (12) 1 2 3 4 5 6 7 8
antal personer: 500 gram torskefilet 1 tsk havsalt 2 stk æg 1 stk gulerod 0.5 deciliter fløde 13% 0.5 tsk revet
muskatnød 1 tsk peber 2 spsk olie 4 deciliter creme fraiche 18% 4 stk æggeblomme 2 spsk frisk dild 4 spsk frisk persille
Forbered fiskefarsen ved at skære torskefileten i mindre stykker og blend den sammen med havsalt i en foodprocessor til en fin konsistens. Tilsæt de to hele æg, fintrevet gulerod, fløde, muskatnød og peber. Blend igen, indtil ingredienserne er godt blandet og konsistensen er jævn. Smag til med salt og peber efter behov
Forvarm ovnen til 180 grader. Smør en lille brødform eller ildfast fad med lidt olie og hæld fiskefarsen i formen. Glat overfladen ud. Bag terrinen i ovnen i cirka 25-30 minutter, eller indtil den er fast og let gylden på toppen
I en lille skål piskes creme fraiche sammen med æggeblommerne, hakket dild og persille. Smag til med salt og peber. Opvarm forsigtigt saucen i en lille gryde over lav varme, indtil den er varm, men undgå at koge den for at undgå at æggeblommerne skiller
Tag fisketerrinen ud af ovnen og lad den køle af i formen i et par minutter. Skær terrinen i skiver og anret på tallerkener. Hæld den cremede sauce over eller server den ved siden af`

const extractorNoRecipeInput = `Det er dejligt vejr i dag. Jeg tror jeg vil gå en tur.`

func extractorExampleAnswer() Recipe {
	persons := 4
	instructions := "Forvarm ovnen til 180 grader Celsius. Skær torskefileten i mindre stykker og blend den " +
		"sammen med havsalt i en foodprocessor til en fin konsistens. Tilsæt æg, fintrevet gulerod, " +
		"fløde, revet muskatnød og peber. Blend igen, indtil massen er jævn. Smør en lille brødform " +
		"eller ildfast fad med olie og hæld fiskefarsen i formen. Bag terrinen i ovnen i cirka 25-30 " +
		"minutter, eller indtil den er fast og gylden på toppen. I mellemtiden piskes creme fraiche " +
		"sammen med æggeblommer, hakket dild og persille. Opvarm saucen forsigtigt i en gryde over lav " +
		"varme uden at koge den. Tag fisketerrinen ud af ovnen, lad den køle lidt af, og skær den i " +
		"skiver. Server med den cremede sauce."
	return Recipe{
		Ingredients: []string{
			"500 gram torskefilet",
			"1 tsk havsalt",
			"2 stk æg",
			"1 stk gulerod, fintrevet",
			"0.5 dl fløde (13%)",
			"0.5 tsk revet muskatnød",
			"1 tsk peber",
			"2 spsk olie",
			"4 dl creme fraiche (18%)",
			"4 stk æggeblomme",
			"2 spsk frisk dild, hakket",
			"4 spsk frisk persille, hakket",
		},
		Persons:      &persons,
		Instructions: &instructions,
	}
}

func extractorMessages(text string) []provider.Message {
	return []provider.Message{
		provider.TextMessage(provider.RoleSystem, extractorSystemPrompt),
		provider.TextMessage(provider.RoleUser, extractorExampleInput),
		provider.TextMessage(provider.RoleAssistant, mustJSON(extractorExampleAnswer())),
		provider.TextMessage(provider.RoleUser, extractorNoRecipeInput),
		provider.TextMessage(provider.RoleAssistant, mustJSON(Recipe{Ingredients: []string{}})),
		provider.TextMessage(provider.RoleUser, text),
	}
}

// ============================================================================
// Weight estimation
// ============================================================================

const weightConversions = `1 can = 400 g = 0.4 kg
1 bouillon cube = 4 g = 0.004 kg
1 large onion = 285 g = 0.285 kg
1 medium onion = 170 g = 0.170 kg
1 small onion = 115 g = 0.115 kg
1 bell pepper = 150 g = 0.150 kg
1 can tomato paste = 140 g = 0.140 kg
1 tablespoon/tbsp. = 15 g  = 0.015 kg
1 teaspoon/tsp. = 5 g = 0.005 kg
1 potato = 170 - 300 g = 0.170 - 0.300 kg
1 carrot = 100 g = 0.100 kg
1 lemon = 85 g = 0.085 kg
1 tortilla = 30 g = 0.030 kg
1 squash = 400 g = 0.400 kg
1 clove garlic = 0.004 kg
1 dl / deciliter = 0.1 kg
Handful of herbs (basil, oregano etc.) = 0.025 kg

Examples of a bunch/bnch of an ingredient - use them as a guideline:
1 bunch/bnch parsley = 50 g = 0.050 kg
1 bunch/bnch asparagus = 500 g = 0.500 kg
1 bunch of carrots = 750 g = 0.750 kg
1 bunch/bnch tomatoes = 500 g = 0.500 kg
The weights of bunches are estimated as the highest possible weight.`

const weightSystemPrompt = `Given a list of ingredients, estimate the weights in kilogram for each ingredient.
Explain your reasoning for the estimation of weights.

The following general weights can be used for estimation:
%s

If an ingredient is not found in the list of general weights, try to give your best estimate
of the weight in kilogram/kg of the ingredient and say (estimated by LLM model).
Your estimate must always be a single number. Therefore, you must not provide any intervals.
Use null for weight_in_kg only when the amount is not specified at all.

Answer with a JSON object: {"weight_estimates": [{"ingredient": string, "weight_calculation": string, "weight_in_kg": number or null}]}
"ingredient" must be exactly the ingredient string from the input, one entry per input line, in the same order.

Input is given after "Ingredients:"`

type weightExample struct {
	ingredient  string
	calculation string
	weight      *float64
}

func kg(v float64) *float64 { return &v }

var weightExamples = []weightExample{
	{"1 can chopped tomatoes", "1 can = 400 g = 0.4 kg", kg(0.4)},
	{"200 g pasta", "200 g = 0.2 kg", kg(0.2)},
	{"500 ml water", "500 ml = 0.5 kg", kg(0.5)},
	{"250 grams minced meat", "250 g = 0.25 kg", kg(0.25)},
	{"0.5 cauliflower", "1 cauliflower = 500 g (estimated by LLM model) = 0.5 kg", kg(0.5)},
	{"1 tsp. sugar", "1 teaspoon = 5 g = 0.005 kg", kg(0.005)},
	{"1 organic lemon", "1 lemon = 85 g = 0.085 kg", kg(0.085)},
	{"3 teaspoons salt", "1 tsp. = 5 g, 3 * 5 g = 15 g = 0.015 kg", kg(0.015)},
	{"2 tbsp. spices", "1 tbsp. = 15 g, 2 * 15 g = 30 g = 0.030 kg", kg(0.03)},
	{"pepper", "amount of pepper not specified", nil},
	{"2 large potatoes", "1 large potato = 300 g, 2 * 300 g = 600 g = 0.6 kg", kg(0.6)},
	{"1 bunch asparagus", "1 bunch asparagus = 500 g = 0.500 kg", kg(0.5)},
	{"1 duck, ca. 2 kg", "1 duck, ca. 2 kg = 2.0 kg", kg(2.0)},
}

func weightMessages(ingredients []string) []provider.Message {
	names := make([]string, len(weightExamples))
	answer := weightResponse{WeightEstimates: make([]WeightEstimate, len(weightExamples))}
	for i, ex := range weightExamples {
		names[i] = ex.ingredient
		answer.WeightEstimates[i] = WeightEstimate{Ingredient: ex.ingredient, Calculation: ex.calculation, WeightKg: ex.weight}
	}

	return []provider.Message{
		provider.TextMessage(provider.RoleSystem, fmt.Sprintf(weightSystemPrompt, weightConversions)),
		provider.TextMessage(provider.RoleUser, "Ingredients:\n"+strings.Join(names, "\n")+"\n\nAnswer:"),
		provider.TextMessage(provider.RoleAssistant, mustJSON(answer)),
		provider.TextMessage(provider.RoleUser, "Ingredients:\n"+strings.Join(ingredients, "\n")+"\n\nAnswer:"),
	}
}

// ============================================================================
// Emission lookup
// ============================================================================

const lookupSystemPrompt = `You are a bot that specializes in matching a list of ingredients to the best emission options and returning their emissions in kg CO2e/kg.
Only the options listed for each ingredient may be used. Follow these rules, in order, to find the best match:

1. **Prefer an Exact or Near-Exact Name Match:**
   - Choose the option whose name is the same ingredient, possibly with small spelling or word-order differences.

2. **Use a Broader Category Only for Genuine Sub-Categories:**
   - A broader category is allowed only if an exact match is unavailable and the ingredient can be called by the category name.
   - Lasagna sheets are a form of flat pasta, so "pasta" is a valid match.
   - Eggs come from chickens, but an egg cannot be called chicken, so "chicken" is NOT a valid match for egg.
   - Almond milk and soy milk are not sub-categories of cow's milk. Brown rice is a type of rice.
   - Never match ingredients with vastly different production processes (water is not milk).

3. **Never Use Final Meals as Matches:**
   - We match at the ingredient level, not at the meal level.
   - Lasagna, burger and pizza are final meals and must never be chosen.
   - Burger buns are not a final meal and are a valid ingredient-level match.

4. **Match the Amount of Processing:**
   - Prefer the option whose processing (dried, canned, fermented, frozen etc.) is closest to the ingredient.
   - If no processing is stated, choose the least processed, most raw option.
   - Ignore cooking-method qualifiers such as "for frying" or "for serving".

5. **Break Ties by the Highest Emission:**
   - If several viable options have a similar processing level, choose the one with the highest emission factor.

6. **Ignore Quantities:**
   - Amounts and units never influence the match.

7. **Recognize Synonyms and Regional Names:**
   - 'Aubergine' and 'eggplant' are the same. 'Coriander' and 'cilantro' are the same.

8. **Say No Match Rather Than Forcing a Poor Fit:**
   - If no option satisfies the rules above, set "co2_per_kg" to null and "match" to null.

Answer with a JSON object:
{"emissions": [{"ingredient": string, "match": string or null, "explanation": string, "unit": "kg CO2e / kg", "co2_per_kg": number or null}]}
"ingredient" must be exactly the ingredient string from the input list, one entry per input line, in the same order.
"match" is the chosen option name exactly as listed.`

func lookupMessages(ingredients []string, context string) []provider.Message {
	return []provider.Message{
		provider.TextMessage(provider.RoleSystem, lookupSystemPrompt),
		provider.TextMessage(provider.RoleAssistant, "These are the ingredient emission options that must be matched to user input:\n"+context),
		provider.TextMessage(provider.RoleUser, "Give me emissions for this list of ingredients:\n"+strings.Join(ingredients, "\n")+"\n\nBegin!"),
	}
}

// ============================================================================
// Emission search
// ============================================================================

// categoryPrior 類別排放參考範圍（kg CO2e / kg）
type categoryPrior struct {
	Category string
	Min, Max float64
}

var categoryPriors = []categoryPrior{
	{"Vegetables", 0.1, 0.5},
	{"Fruits", 0.2, 0.8},
	{"Beans and Lentils", 0.5, 2.0},
	{"Poultry (e.g., chicken)", 3.0, 6.0},
	{"Pork", 4.0, 7.0},
	{"Beef", 7.0, 22.0},
	{"Lamb", 9.0, 20.0},
	{"Dairy Products", 0.5, 12.0},
}

const searchSystemPrompt = `You are an expert in extracting CO2 emission estimates (in kg CO2e per kg) from web search results for a list of ingredients.

Follow these instructions carefully:

1. Primary Goal:
   For each ingredient provided, determine the most likely CO2e emission value per kilogram (kg CO2e/kg) based on the search results.

2. Reference Ranges for Common Ingredients (for guidance only, do not output these ranges):
%s

3. Determining the Most Likely Value for Each Ingredient:
   - Gather candidate CO2e/kg values from the results. The number must come from the search results, never from the reference ranges.
   - If multiple plausible values are found, select the single value best aligned with the reference range for that ingredient category.
   - If still uncertain, pick the value closest to the median of the reference range.
   - Do not provide ranges as the final answer.

4. If No Suitable Value is Found for an Ingredient:
   - "result" must be null. Never invent a default.

5. Output Format (JSON):
   {"search_results": [{"ingredient": string, "explanation": string, "unit": "kg CO2e per kg" or null, "result": number or null}]}
   - "ingredient" must be exactly the ingredient string from the input list.
   - "explanation" describes step by step how the value was chosen, or why none could be found.`

func searchMessages(ingredients []string, results map[string]string) []provider.Message {
	var priors strings.Builder
	for _, p := range categoryPriors {
		fmt.Fprintf(&priors, "   - %s: %.1f-%.1f kg CO2e/kg\n", p.Category, p.Min, p.Max)
	}

	input := fmt.Sprintf(`Provided the dictionary with search results for each ingredient, if possible
provide me with the emission per ingredient

Search results:
%s

Ingredient list: %s`, mustJSON(results), mustJSON(ingredients))

	return []provider.Message{
		provider.TextMessage(provider.RoleSystem, fmt.Sprintf(searchSystemPrompt, strings.TrimRight(priors.String(), "\n"))),
		provider.TextMessage(provider.RoleUser, input),
	}
}

func mustJSON(v any) string {
	s, err := common.ToJSON(v)
	if err != nil {
		panic(err)
	}
	return s
}
