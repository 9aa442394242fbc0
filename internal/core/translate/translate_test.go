package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, stage string, messages []provider.Message) (string, error) {
	args := m.Called(ctx, stage, messages)
	return args.String(0), args.Error(1)
}

func TestRoundRobin(t *testing.T) {
	rr := NewRoundRobin(0)
	assert.Equal(t, 0, rr.Current(3))
	rr.Advance()
	assert.Equal(t, 1, rr.Current(3))
	rr.Advance()
	rr.Advance()
	assert.Equal(t, 0, rr.Current(3))
	assert.Equal(t, 0, rr.Current(0))
}

func TestMyMemory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get", r.URL.Path)
		assert.Equal(t, "da|en", r.URL.Query().Get("langpair"))
		assert.Equal(t, "løg; gulerod", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responseData":{"translatedText":"onion; carrot"},"responseStatus":200}`))
	}))
	defer srv.Close()

	got, err := NewMyMemory(srv.URL, "", time.Second).Translate(context.Background(), "løg; gulerod", "da", "en")
	require.NoError(t, err)
	assert.Equal(t, "onion; carrot", got)
}

func TestMyMemoryQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responseData":{"translatedText":"MYMEMORY WARNING"},"responseStatus":"429","responseDetails":"quota"}`))
	}))
	defer srv.Close()

	_, err := NewMyMemory(srv.URL, "", time.Second).Translate(context.Background(), "x", "da", "en")
	assert.Error(t, err)
}

func TestLibreTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body libreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "da", body.Source)
		assert.Equal(t, "en", body.Target)
		assert.Equal(t, "text", body.Format)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translatedText":"onion"}`))
	}))
	defer srv.Close()

	got, err := NewLibreTranslate(srv.URL, "", time.Second).Translate(context.Background(), "løg", "da", "en")
	require.NoError(t, err)
	assert.Equal(t, "onion", got)
}

func TestLLM(t *testing.T) {
	c := new(MockCompleter)
	c.On("Complete", mock.Anything, "translate", mock.Anything).
		Return(`{"translation": "onion; carrot"}`, nil)

	got, err := NewLLM(c).Translate(context.Background(), "løg; gulerod", "da", "en")
	require.NoError(t, err)
	assert.Equal(t, "onion; carrot", got)
}

func TestFromConfig(t *testing.T) {
	ps, err := FromConfig(config.TranslateConfig{
		Providers:         []string{"libretranslate", "mymemory", "llm"},
		MyMemoryURL:       "http://mm",
		LibreTranslateURL: "http://lt",
	}, time.Second, new(MockCompleter))
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, "libretranslate", ps[0].Name())
	assert.Equal(t, "mymemory", ps[1].Name())
	assert.Equal(t, "llm", ps[2].Name())

	_, err = FromConfig(config.TranslateConfig{Providers: []string{"llm"}}, time.Second, nil)
	assert.Error(t, err)
}
