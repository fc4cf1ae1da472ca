package gateway

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// SDKBackend реализует Backend через официальный SDK. Клиенты кэшируются
// по ключу, поэтому смена ключа сразу даёт новый клиент.
type SDKBackend struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewSDKBackend создаёт Backend поверх google.golang.org/genai.
func NewSDKBackend() *SDKBackend {
	return &SDKBackend{clients: make(map[string]*genai.Client)}
}

func (b *SDKBackend) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	// старые клиенты больше не нужны: активен только последний ключ
	clear(b.clients)
	b.clients[apiKey] = c
	return c, nil
}

// GenerateContent реализует Backend.
func (b *SDKBackend) GenerateContent(ctx context.Context, apiKey, model string, contents []*genai.Content,
	cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return c.Models.GenerateContent(ctx, model, contents, cfg)
}

// GenerateVideos реализует Backend.
func (b *SDKBackend) GenerateVideos(ctx context.Context, apiKey, model, prompt string,
	cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return c.Models.GenerateVideos(ctx, model, prompt, nil, cfg)
}

// GetVideosOperation реализует Backend.
func (b *SDKBackend) GetVideosOperation(ctx context.Context, apiKey string,
	op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return c.Operations.GetVideosOperation(ctx, op, nil)
}

// DownloadVideo реализует Backend.
func (b *SDKBackend) DownloadVideo(ctx context.Context, apiKey string, video *genai.GeneratedVideo) ([]byte, error) {
	if video.Video != nil && len(video.Video.VideoBytes) > 0 {
		return video.Video.VideoBytes, nil
	}
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return c.Files.Download(ctx, genai.NewDownloadURIFromGeneratedVideo(video), nil)
}
