package estimator

import (
	"context"
	"errors"
	"testing"

	"food-co2-estimator/internal/core/scraper"
	"food-co2-estimator/internal/core/translate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const scenarioExtraction = `{"ingredients":["1 can of chopped tomatoes","1 tsp sugar","2 large potatoes"],"persons":2,"instructions":null}`

const scenarioWeights = `{"weight_estimates":[
	{"ingredient":"1 can of chopped tomatoes","weight_calculation":"1 can = 400 g","weight_in_kg":0.4},
	{"ingredient":"1 tsp sugar","weight_calculation":"1 tsp = 5 g","weight_in_kg":0.005},
	{"ingredient":"2 large potatoes","weight_calculation":"2 * 300 g","weight_in_kg":0.6}
]}`

const scenarioEmissions = `{"emissions":[
	{"ingredient":"1 can of chopped tomatoes","match":"Tomatoes, canned","explanation":"canned tomatoes","unit":"kg CO2e / kg","co2_per_kg":1.26},
	{"ingredient":"2 large potatoes","match":"Potatoes","explanation":"potatoes","unit":"kg CO2e / kg","co2_per_kg":0.2}
]}`

func newTestEstimator(llm *MockLLM, opts Options) *Estimator {
	opts.LLM = llm
	if opts.Detector == nil {
		opts.Detector = &fakeDetector{lang: LanguageEnglish}
	}
	if opts.Index == nil {
		opts.Index = testIndex()
	}
	opts.Config = testConfig()
	return New(opts)
}

func TestEstimateScenario(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, StageExtract, mock.Anything).Return(scenarioExtraction, nil).Once()
	llm.On("Complete", mock.Anything, StageWeights, mock.Anything).Return(scenarioWeights, nil).Once()
	llm.On("Complete", mock.Anything, StageLookup, mock.Anything).Return(scenarioEmissions, nil).Once()
	web := &fakeWeb{}

	e := newTestEstimator(llm, Options{Web: web})
	res := e.Run(context.Background(), "Tomato potato stew\n1 can of chopped tomatoes\n1 tsp sugar\n2 large potatoes", false, 0.01)

	require.NoError(t, res.Err)
	assert.Equal(t, "ok", res.Outcome)
	assert.Equal(t, LanguageEnglish, res.Language)
	require.NotNil(t, res.Summary)
	assert.InDelta(t, 0.62, res.Summary.TotalKg, 1e-9)
	assert.Contains(t, res.Report, "1 can of chopped tomatoes: 0.4 kg * 1.26 kg CO2e / kg (DB) = 0.5 kg CO2e")
	assert.Contains(t, res.Report, "1 tsp sugar: weight on 0.005 kg is negligible")
	assert.Contains(t, res.Report, "2 large potatoes: 0.6 kg * 0.2 kg CO2e / kg (DB) = 0.12 kg CO2e")
	assert.Contains(t, res.Report, "Total CO2 emission: 0.62 kg CO2e")
	assert.Empty(t, web.queries, "no search when the database has every factor")
	llm.AssertExpectations(t)
}

func TestEstimateNoRecipeStopsEarly(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, StageExtract, mock.Anything).
		Return(`{"ingredients":[],"persons":null,"instructions":null}`, nil).Once()
	detector := &fakeDetector{lang: LanguageEnglish}

	e := newTestEstimator(llm, Options{Detector: detector})
	out := e.Estimate(context.Background(), "Today I went for a walk in the park.", false, 0.01)

	assert.Equal(t, MsgNoRecipe, out)
	assert.Empty(t, detector.got, "language detection never runs")
	llm.AssertNumberOfCalls(t, "Complete", 1)
}

func TestEstimateEmptyInput(t *testing.T) {
	llm := new(MockLLM)
	e := newTestEstimator(llm, Options{})

	assert.Equal(t, MsgNoRecipe, e.Estimate(context.Background(), "   ", false, 0.01))
	llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestEstimateUnsupportedLanguage(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, StageExtract, mock.Anything).
		Return(`{"ingredients":["200 g Mehl","2 Eier"],"persons":null,"instructions":null}`, nil).Once()

	e := newTestEstimator(llm, Options{Detector: &fakeDetector{lang: LanguageUnsupported}})
	res := e.Run(context.Background(), "Pfannkuchen: 200 g Mehl, 2 Eier", false, 0.01)

	assert.ErrorIs(t, res.Err, ErrUnsupportedLanguage)
	assert.Equal(t, MsgUnsupportedLanguage, res.Report)
	assert.Equal(t, "unsupported_language", res.Outcome)
	llm.AssertNumberOfCalls(t, "Complete", 1)
}

func TestEstimateTranslatesDanish(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, StageExtract, mock.Anything).
		Return(`{"ingredients":["1 dåse hakkede tomater","2 store kartofler"],"persons":null,"instructions":null}`, nil).Once()
	llm.On("Complete", mock.Anything, StageWeights, mock.Anything).
		Return(`{"weight_estimates":[
			{"ingredient":"1 can of chopped tomatoes","weight_calculation":"","weight_in_kg":0.4},
			{"ingredient":"2 large potatoes","weight_calculation":"","weight_in_kg":0.6}]}`, nil).Once()
	llm.On("Complete", mock.Anything, StageLookup, mock.Anything).Return(scenarioEmissions, nil).Once()
	tr := &fakeTranslator{name: "fake", out: "1 can of chopped tomatoes; 2 large potatoes"}

	e := newTestEstimator(llm, Options{
		Detector:    &fakeDetector{lang: LanguageDanish},
		Translators: []translate.Provider{tr},
	})
	res := e.Run(context.Background(), "Kartoffelgryde", false, 0.01)

	require.NoError(t, res.Err)
	assert.Contains(t, res.Report, "1 dåse hakkede tomater: 0.4 kg * 1.26 kg CO2e / kg (DB) = 0.5 kg CO2e")
	assert.Contains(t, res.Report, "Samlet CO2-udslip: 0.62 kg CO2e")
	assert.Nil(t, res.Summary.PerPersonKg)
}

func TestEstimateStageFailures(t *testing.T) {
	down := errors.New("provider down")

	t.Run("extraction", func(t *testing.T) {
		llm := new(MockLLM)
		llm.On("Complete", mock.Anything, StageExtract, mock.Anything).Return("", down)
		out := newTestEstimator(llm, Options{}).Estimate(context.Background(), "recipe", false, 0.01)
		assert.Equal(t, MsgExtraction, out)
	})

	t.Run("translation", func(t *testing.T) {
		llm := new(MockLLM)
		llm.On("Complete", mock.Anything, StageExtract, mock.Anything).
			Return(`{"ingredients":["løg"],"persons":null,"instructions":null}`, nil)
		e := newTestEstimator(llm, Options{
			Detector:    &fakeDetector{lang: LanguageDanish},
			Translators: []translate.Provider{&fakeTranslator{name: "x", err: down}},
		})
		assert.Equal(t, MsgTranslation, e.Estimate(context.Background(), "løg", false, 0.01))
	})

	t.Run("weights", func(t *testing.T) {
		llm := new(MockLLM)
		llm.On("Complete", mock.Anything, StageExtract, mock.Anything).Return(scenarioExtraction, nil)
		llm.On("Complete", mock.Anything, StageWeights, mock.Anything).Return("no json here", nil)
		res := newTestEstimator(llm, Options{}).Run(context.Background(), "recipe", false, 0.01)
		assert.Equal(t, MsgWeightEstimation, res.Report)
		assert.Equal(t, "weight_estimation_failed", res.Outcome)
		llm.AssertNumberOfCalls(t, "Complete", 1+testConfig().ParseRetries+1)
	})

	t.Run("lookup", func(t *testing.T) {
		llm := new(MockLLM)
		llm.On("Complete", mock.Anything, StageExtract, mock.Anything).Return(scenarioExtraction, nil)
		llm.On("Complete", mock.Anything, StageWeights, mock.Anything).Return(scenarioWeights, nil)
		llm.On("Complete", mock.Anything, StageLookup, mock.Anything).Return("", down)
		out := newTestEstimator(llm, Options{}).Estimate(context.Background(), "recipe", false, 0.01)
		assert.Equal(t, MsgEmissionLookup, out)
	})

	t.Run("page fetch", func(t *testing.T) {
		llm := new(MockLLM)
		e := newTestEstimator(llm, Options{Pages: &fakePages{err: scraper.ErrEmptyPage}})
		assert.Equal(t, MsgPageFetchFailed, e.Estimate(context.Background(), "https://example.com/recipe", false, 0.01))
	})
}

func TestEstimateSearchFailureIsNotFatal(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, StageExtract, mock.Anything).
		Return(`{"ingredients":["200 g quinoa","2 large potatoes"],"persons":null,"instructions":null}`, nil)
	llm.On("Complete", mock.Anything, StageWeights, mock.Anything).
		Return(`{"weight_estimates":[
			{"ingredient":"200 g quinoa","weight_calculation":"","weight_in_kg":0.2},
			{"ingredient":"2 large potatoes","weight_calculation":"","weight_in_kg":0.6}]}`, nil)
	llm.On("Complete", mock.Anything, StageLookup, mock.Anything).
		Return(`{"emissions":[
			{"ingredient":"200 g quinoa","match":"","explanation":"not in database","unit":"kg CO2e / kg","co2_per_kg":null},
			{"ingredient":"2 large potatoes","match":"Potatoes","explanation":"","unit":"kg CO2e / kg","co2_per_kg":0.2}]}`, nil)
	web := &fakeWeb{errs: map[string]error{SearchQuery("200 g quinoa"): errors.New("search backend down")}}

	res := newTestEstimator(llm, Options{Web: web}).Run(context.Background(), "quinoa bowl", false, 0.01)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{SearchQuery("200 g quinoa")}, web.queries, "only database misses are searched")
	assert.Contains(t, res.Report, "200 g quinoa: CO2e per kg not found")
	assert.Contains(t, res.Report, "2 large potatoes: 0.6 kg * 0.2 kg CO2e / kg (DB) = 0.12 kg CO2e")
}

func TestEstimateFromURL(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, StageExtract, mock.Anything).Return(scenarioExtraction, nil)
	llm.On("Complete", mock.Anything, StageWeights, mock.Anything).Return(scenarioWeights, nil)
	llm.On("Complete", mock.Anything, StageLookup, mock.Anything).Return(scenarioEmissions, nil)
	pages := &fakePages{page: &scraper.Page{Title: "Stew", Text: "1 can of chopped tomatoes, 1 tsp sugar, 2 large potatoes"}}

	res := newTestEstimator(llm, Options{Pages: pages}).Run(context.Background(), "https://example.com/stew?antal=4", false, 0.01)

	require.NoError(t, res.Err)
	assert.Equal(t, "https://example.com/stew?antal=4", res.Recipe.Source)
	assert.Equal(t, 4, *res.Recipe.Persons)
	assert.Contains(t, res.Report, "Estimated number of persons: 4")
}

func TestPersonsFromURL(t *testing.T) {
	n, ok := PersonsFromURL("https://www.valdemarsro.dk/opskrift/?antal=6")
	assert.True(t, ok)
	assert.Equal(t, 6, n)

	for _, src := range []string{"text", "https://example.com/?antal=x", "https://example.com/?antal=0", "https://example.com/"} {
		_, ok := PersonsFromURL(src)
		assert.False(t, ok, src)
	}
}
