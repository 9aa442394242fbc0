package estimate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"food-co2-estimator/internal/core/estimator"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, input string, verbose bool, threshold float64) estimator.Result {
	args := m.Called(ctx, input, verbose, threshold)
	return args.Get(0).(estimator.Result)
}

func setupRouter(runner Runner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.New())
	h := NewHandler(runner, 0.01, false)
	r.POST("/api/v1/estimate", h.HandleEstimate)
	r.GET("/api/v1/estimate", h.HandleCalculate)
	return r
}

func TestHandleEstimate(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "1 kg potatoes", true, 0.05).
		Return(estimator.Result{Report: "Total CO2 emission: 0.2 kg CO2e", Outcome: "ok"})

	w := httptest.NewRecorder()
	body := `{"input":" 1 kg potatoes ","verbose":true,"negligible_threshold":0.05}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(runner).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Outcome)
	assert.Contains(t, resp.Report, "0.2 kg CO2e")
	assert.Equal(t, w.Header().Get("X-Request-ID"), resp.RequestID)
	assert.NotEmpty(t, resp.RequestID)
	runner.AssertExpectations(t)
}

func TestHandleEstimateDefaultThreshold(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "soup", false, 0.01).
		Return(estimator.Result{Report: "ok", Outcome: "ok"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(`{"input":"soup"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(runner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	runner.AssertExpectations(t)
}

func TestHandleEstimateTerminalMessage(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(estimator.Result{
		Report:  estimator.MsgNoRecipe,
		Outcome: "no_recipe_found",
		Err:     estimator.ErrNoRecipe,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(`{"input":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(runner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, estimator.MsgNoRecipe, resp.Report)
	assert.Equal(t, "no_recipe_found", resp.Outcome)
}

func TestHandleEstimateInvalid(t *testing.T) {
	runner := new(MockRunner)
	for _, body := range []string{`{}`, `{"input":"   "}`, `{"input":"x","negligible_threshold":-1}`, `not json`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(runner).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
	}
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCalculate(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "https://example.com/r", false, 0.01).
		Return(estimator.Result{Report: "report text", Outcome: "ok"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/estimate?url=https://example.com/r", nil)
	setupRouter(runner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "report text", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestHandleCalculatePanics(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Panic("boom")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/estimate?url=https://example.com/r", nil)
	setupRouter(runner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, MsgUnexpected, w.Body.String())
}

func TestHandleCalculateMissingURL(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/estimate", nil)
	setupRouter(new(MockRunner)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEstimateBodyTooLarge(t *testing.T) {
	runner := new(MockRunner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(`{"input":"a long recipe text"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Body = http.MaxBytesReader(w, req.Body, 8)
	setupRouter(runner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
