// Package gateway оборачивает вызовы генеративной модели.
//
// Каждый метод Client выполняет ровно один вызов модели и возвращает
// разобранный результат. Некорректный JSON в ответе модели превращается
// в пустое значение, ошибки авторизации приводятся к ErrCredential.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/magabrotheeeer/vendo/internal/config"
	"github.com/magabrotheeeer/vendo/internal/credential"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
)

var (
	// ErrCredential ключ отсутствует или отвергнут сервисом модели.
	ErrCredential = errors.New("gateway: credential rejected")
	// ErrEmptyResponse модель не вернула ожидаемых данных.
	ErrEmptyResponse = errors.New("gateway: empty model response")
	// ErrVideoFailed операция генерации видео завершилась ошибкой.
	ErrVideoFailed = errors.New("gateway: video operation failed")
)

// Backend низкоуровневый доступ к API модели. Ключ передаётся на каждый вызов.
type Backend interface {
	GenerateContent(ctx context.Context, apiKey, model string, contents []*genai.Content,
		cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateVideos(ctx context.Context, apiKey, model, prompt string,
		cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, apiKey string,
		op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	DownloadVideo(ctx context.Context, apiKey string, video *genai.GeneratedVideo) ([]byte, error)
}

// Client шлюз к генеративной модели.
type Client struct {
	backend Backend
	creds   credential.Provider
	cfg     config.GenAI
	log     *slog.Logger
}

// New создаёт шлюз. Ключ берётся из creds перед каждым вызовом.
func New(backend Backend, creds credential.Provider, cfg config.GenAI, log *slog.Logger) *Client {
	return &Client{
		backend: backend,
		creds:   creds,
		cfg:     cfg,
		log:     log,
	}
}

// call выполняет fn с актуальным ключом, учитывает метрики и приводит ошибки.
// При ошибке авторизации провайдеру ключа сообщается об отказе; повтора нет.
func (c *Client) call(ctx context.Context, method string, fn func(apiKey string) error) error {
	start := time.Now()
	err := c.do(ctx, fn)
	observe(method, start, err)
	if err == nil {
		return nil
	}

	c.log.Error("model call failed", slog.String("method", method), sl.Err(err))
	if errors.Is(err, ErrCredential) {
		if reqErr := c.creds.RequestCredential(ctx); reqErr != nil {
			c.log.Error("failed to request new credential", sl.Err(reqErr))
		}
	}
	return fmt.Errorf("gateway.%s: %w", method, err)
}

func (c *Client) do(ctx context.Context, fn func(apiKey string) error) error {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCredential, err)
	}
	if err = fn(key); err != nil {
		return classify(err)
	}
	return nil
}

// classify оборачивает ошибки авторизации SDK в ErrCredential.
func classify(err error) error {
	if IsCredentialError(err) {
		return fmt.Errorf("%w: %w", ErrCredential, err)
	}
	return err
}

// IsCredentialError сообщает, что ошибка SDK означает недействительный ключ
// или недоступную для ключа модель.
func IsCredentialError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return credentialAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return credentialAPIError(*apiErrPtr)
	}
	return false
}

func credentialAPIError(e genai.APIError) bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	switch e.Status {
	case "NOT_FOUND", "PERMISSION_DENIED", "UNAUTHENTICATED":
		return true
	}
	return false
}
