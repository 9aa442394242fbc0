package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"food-co2-estimator/internal/core/ai/cache"
	"food-co2-estimator/internal/core/ai/provider"
	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Response), args.Error(1)
}

func (m *MockProvider) GetModel() string          { return "test-model" }
func (m *MockProvider) GetTimeout() time.Duration { return time.Second }
func (m *MockProvider) Close() error              { return nil }

func msgs(text string) []provider.Message {
	return []provider.Message{provider.TextMessage(provider.RoleUser, text)}
}

func TestCompleteUsesCache(t *testing.T) {
	p := new(MockProvider)
	p.On("Generate", mock.Anything, mock.MatchedBy(func(r *provider.Request) bool {
		return r.JSONMode && len(r.Messages) == 1
	})).Return(&provider.Response{Content: ` {"ok":true} `}, nil).Once()

	store := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	svc := NewService(p, WithCache(store))

	out, err := svc.Complete(context.Background(), "weights", msgs("hello   world"))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	// 空白差異不影響快取鍵
	out, err = svc.Complete(context.Background(), "weights", msgs("hello world"))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	p.AssertNumberOfCalls(t, "Generate", 1)
}

func TestCompleteWrapsProviderError(t *testing.T) {
	p := new(MockProvider)
	p.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	svc := NewService(p)
	_, err := svc.Complete(context.Background(), "lookup", msgs("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAIServiceError)
	assert.Contains(t, err.Error(), "boom")
}

func TestCompleteRejectsEmptyContent(t *testing.T) {
	p := new(MockProvider)
	p.On("Generate", mock.Anything, mock.Anything).Return(&provider.Response{Content: "  "}, nil)

	svc := NewService(p)
	_, err := svc.Complete(context.Background(), "extract", msgs("x"))
	assert.Error(t, err)
}

func TestCompleteAppliesTimeout(t *testing.T) {
	p := new(MockProvider)
	p.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
		}).
		Return(&provider.Response{Content: "{}"}, nil)

	svc := NewService(p, WithTimeout(50*time.Millisecond))
	_, err := svc.Complete(context.Background(), "search", msgs("x"))
	require.NoError(t, err)
}

func TestCompleteNoMessages(t *testing.T) {
	svc := NewService(new(MockProvider))
	_, err := svc.Complete(context.Background(), "x", nil)
	assert.Error(t, err)
}
