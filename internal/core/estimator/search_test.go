package estimator

import (
	"context"
	"errors"
	"testing"

	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/core/ai/queue"
	"food-co2-estimator/internal/core/websearch"
	"food-co2-estimator/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "quinoa emission kg CO2 per kg", SearchQuery("200 g quinoa"))
}

func TestSearchExtractsResults(t *testing.T) {
	pool := queue.NewManager(config.QueueConfig{Workers: 2, MaxSize: 4})
	defer pool.Close()

	web := &fakeWeb{
		results: map[string]string{
			SearchQuery("quinoa"): "Quinoa has a footprint of about 1.1 kg CO2e per kg.",
		},
		errs: map[string]error{
			SearchQuery("dragon fruit"): websearch.ErrNoResults,
		},
	}
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, StageSearch, mock.MatchedBy(func(m []provider.Message) bool {
		return len(m) > 0
	})).Return(`{"search_results":[{"ingredient":"quinoa","explanation":"1.1 from search","unit":"kg CO2e / kg","result":1.1}]}`, nil).Once()

	s := NewEmissionSearch(web, llm, pool, 0, 1)
	out, err := s.Search(context.Background(), []string{"quinoa", "dragon fruit", "quinoa"})

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, OutcomeOK, out[0].Kind)
	assert.Equal(t, 1.1, *out[0].Value.Result)
	assert.Equal(t, OutcomeNotFound, out[1].Kind)
	assert.Equal(t, out[0], out[2])
	assert.Len(t, web.queries, 2, "duplicate names are searched once")
	llm.AssertExpectations(t)
}

func TestSearchPartialFailure(t *testing.T) {
	web := &fakeWeb{
		results: map[string]string{SearchQuery("quinoa"): "about 1.1 kg"},
		errs:    map[string]error{SearchQuery("tempeh"): errors.New("rate limited")},
	}
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, StageSearch, mock.Anything).
		Return(`{"search_results":[{"ingredient":"quinoa","explanation":"x","unit":null,"result":null}]}`, nil)

	out, err := NewEmissionSearch(web, llm, nil, 0, 1).Search(context.Background(), []string{"quinoa", "tempeh"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, out[0].Kind)
	assert.Equal(t, OutcomeError, out[1].Kind)
}

func TestSearchAllFail(t *testing.T) {
	boom := errors.New("search backend down")
	web := &fakeWeb{errs: map[string]error{
		SearchQuery("quinoa"): boom,
		SearchQuery("tempeh"): boom,
	}}
	llm := new(MockLLM)

	_, err := NewEmissionSearch(web, llm, nil, 0, 1).Search(context.Background(), []string{"quinoa", "tempeh"})

	assert.ErrorIs(t, err, boom)
	llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchNothingFoundSkipsModel(t *testing.T) {
	web := &fakeWeb{errs: map[string]error{SearchQuery("tempeh"): websearch.ErrNoResults}}
	llm := new(MockLLM)

	out, err := NewEmissionSearch(web, llm, nil, 0, 1).Search(context.Background(), []string{"tempeh"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, out[0].Kind)
	llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchFallsBackWhenQueueFull(t *testing.T) {
	pool := queue.NewManager(config.QueueConfig{Workers: 1, MaxSize: 1})
	defer pool.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	_, err := pool.Enqueue(context.Background(), func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	})
	require.NoError(t, err)
	<-started
	_, err = pool.Enqueue(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	defer close(block)

	web := &fakeWeb{errs: map[string]error{
		SearchQuery("tempeh"): websearch.ErrNoResults,
		SearchQuery("seitan"): websearch.ErrNoResults,
	}}
	out, err := NewEmissionSearch(web, new(MockLLM), pool, 0, 1).Search(context.Background(), []string{"tempeh", "seitan"})

	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Len(t, web.queries, 2)
}
