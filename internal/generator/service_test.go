package generator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meiziya0402-source/PPT/internal/generator"
	"github.com/meiziya0402-source/PPT/internal/mocks"
	"github.com/meiziya0402-source/PPT/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const deckJSON = `{"themeColor":"#22C55E","slides":[{"type":"COVER","title":"封面","subtitle":"副标题"},{"type":"THANK_YOU","title":"谢谢","subtitle":"Q & A"}]}`

type memCache struct {
	mu    sync.Mutex
	items map[string]*models.GeneratedDeck
}

func newMemCache() *memCache { return &memCache{items: map[string]*models.GeneratedDeck{}} }

func (c *memCache) Get(_ context.Context, key string) (*models.GeneratedDeck, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.items[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, d *models.GeneratedDeck) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = d
	return nil
}

func newService(t *testing.T, client generator.AIClient, cache generator.Cache, attempts int) *generator.Service {
	t.Helper()
	prompt, err := generator.LoadPromptTemplate("", zap.NewNop())
	require.NoError(t, err)
	return generator.NewService(client, cache, prompt, generator.ServiceConfig{
		MaxAttempts:    attempts,
		BaseRetryDelay: time.Millisecond,
	}, zap.NewNop())
}

func TestService_Generate_SendsImagePromptAndSchema(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("Model").Return("gemini-2.5-flash")
	client.On("Generate", mock.Anything, mock.MatchedBy(func(req generator.Request) bool {
		return string(req.Image) == "img" &&
			req.MimeType == "image/jpeg" &&
			strings.Contains(req.Prompt, `"极简风格"`) &&
			len(req.Schema) > 0
	})).Return(deckJSON, generator.UsageInfo{TotalTokens: 10}, nil).Once()

	svc := newService(t, client, nil, 3)
	deck, err := svc.Generate(context.Background(), []byte("img"), "image/jpeg", "极简风格")
	require.NoError(t, err)

	assert.Equal(t, "#22C55E", deck.ThemeColor)
	require.Len(t, deck.Slides, 2)
	assert.Equal(t, models.SlideThankYou, deck.Slides[1].Type)
	client.AssertExpectations(t)
}

func TestService_Generate_RetriesThenSucceeds(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("Model").Return("m")
	client.On("Generate", mock.Anything, mock.Anything).Return("", generator.UsageInfo{}, generator.ErrAIGenerationFailed).Once()
	client.On("Generate", mock.Anything, mock.Anything).Return("not json", generator.UsageInfo{}, nil).Once()
	client.On("Generate", mock.Anything, mock.Anything).Return(deckJSON, generator.UsageInfo{}, nil).Once()

	svc := newService(t, client, nil, 3)
	deck, err := svc.Generate(context.Background(), []byte("img"), "image/png", "")
	require.NoError(t, err)
	assert.Len(t, deck.Slides, 2)
	client.AssertNumberOfCalls(t, "Generate", 3)
}

func TestService_Generate_ExhaustsAttempts(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("Model").Return("m")
	client.On("Generate", mock.Anything, mock.Anything).Return("{}", generator.UsageInfo{}, nil)

	svc := newService(t, client, nil, 2)
	_, err := svc.Generate(context.Background(), []byte("img"), "image/png", "")
	require.ErrorIs(t, err, generator.ErrInvalidResponse)
	client.AssertNumberOfCalls(t, "Generate", 2)
}

func TestService_Generate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := mocks.NewMockAIClient(t)
	client.On("Model").Return("m")
	client.On("Generate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return("", generator.UsageInfo{}, errors.New("request aborted"))

	svc := newService(t, client, nil, 3)
	_, err := svc.Generate(ctx, []byte("img"), "image/png", "")
	require.ErrorIs(t, err, context.Canceled)
	client.AssertNumberOfCalls(t, "Generate", 1)
}

func TestService_Generate_UsesCache(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("Model").Return("m")
	client.On("Generate", mock.Anything, mock.Anything).Return(deckJSON, generator.UsageInfo{}, nil).Once()

	cache := newMemCache()
	svc := newService(t, client, cache, 1)

	first, err := svc.Generate(context.Background(), []byte("img"), "image/png", "p")
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), []byte("img"), "image/png", "p")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// другая подсказка - другой ключ
	client.On("Generate", mock.Anything, mock.Anything).Return(deckJSON, generator.UsageInfo{}, nil).Once()
	_, err = svc.Generate(context.Background(), []byte("img"), "image/png", "q")
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Generate", 2)
}

func TestService_Generate_Disabled(t *testing.T) {
	svc := newService(t, nil, nil, 1)
	_, err := svc.Generate(context.Background(), []byte("img"), "image/png", "")
	assert.ErrorIs(t, err, generator.ErrGenerationDisabled)
}

func TestCacheKey(t *testing.T) {
	a := generator.CacheKey("m", []byte("img"), "p")
	assert.Equal(t, a, generator.CacheKey("m", []byte("img"), "p"))
	assert.NotEqual(t, a, generator.CacheKey("m", []byte("img"), "q"))
	assert.NotEqual(t, a, generator.CacheKey("other", []byte("img"), "p"))
	assert.True(t, strings.HasPrefix(a, "deckgen:"))
}
