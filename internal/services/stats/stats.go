// Package stats реализует данные дашборда: обзор кликов, разбор успешного
// сценария, калькулятор окупаемости, события рядом с автором и расшифровку
// голосового брифа.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/magabrotheeeer/vendo/internal/cache"
	"github.com/magabrotheeeer/vendo/internal/models"
)

// ErrInvalidInput некорректные параметры запроса.
var ErrInvalidInput = errors.New("invalid stats input")

// Образец лучшего сценария для разбора успеха.
const (
	TopScript           = "OMG you NEED to see this protein blend, it's a total game changer for my morning routine!"
	TopSource           = "TikTok"
	RetentionMultiplier = 428
)

const insightTTL = time.Hour

// Значения калькулятора по умолчанию.
const (
	DefaultClicks            = 428
	DefaultConversionRate    = 0.02
	DefaultAverageOrderValue = 50
	DefaultCost              = 25
)

// Gateway методы генеративной модели, нужные дашборду.
type Gateway interface {
	GenerateSuccessInsight(ctx context.Context, script, topSource string, retentionMultiplier int) (models.SuccessInsight, error)
	FindLocalCreatorEvents(ctx context.Context, lat, lng float64) (models.LocalEvents, error)
	TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Service реализует данные дашборда.
type Service struct {
	gateway Gateway
	cache   Cache
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(gateway Gateway, cache Cache, log *slog.Logger) *Service {
	return &Service{
		gateway: gateway,
		cache:   cache,
		log:     log,
	}
}

// Overview возвращает демонстрационные ряды кликов и источников трафика.
func (s *Service) Overview() models.Overview {
	return models.Overview{
		WeeklyClicks: []models.DailyClicks{
			{Name: "Mon", Clicks: 400, AdClicks: 240},
			{Name: "Tue", Clicks: 300, AdClicks: 139},
			{Name: "Wed", Clicks: 200, AdClicks: 980},
			{Name: "Thu", Clicks: 278, AdClicks: 390},
			{Name: "Fri", Clicks: 189, AdClicks: 480},
			{Name: "Sat", Clicks: 239, AdClicks: 380},
			{Name: "Sun", Clicks: 349, AdClicks: 430},
		},
		TrafficSources: []models.TrafficSource{
			{Name: "TikTok", Value: 2400},
			{Name: "Instagram", Value: 1200},
			{Name: "YouTube", Value: 800},
			{Name: "Podcast", Value: 300},
		},
	}
}

// Insight возвращает разбор лучшего сценария, кешируя его на час.
func (s *Service) Insight(ctx context.Context, userID string) (models.SuccessInsight, error) {
	const op = "stats.Insight"

	key := cache.InsightKey(userID)
	var cached models.SuccessInsight
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read insight from cache", slog.String("key", key), slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	insight, err := s.gateway.GenerateSuccessInsight(ctx, TopScript, TopSource, RetentionMultiplier)
	if err != nil {
		return models.SuccessInsight{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(key, insight, insightTTL); err != nil {
		s.log.Warn("failed to cache insight", slog.String("key", key), slog.Any("err", err))
	}
	return insight, nil
}

// ROIInput параметры калькулятора. Нулевые поля заменяются значениями по умолчанию.
type ROIInput struct {
	Clicks            int64
	ConversionRate    float64
	AverageOrderValue float64
	Cost              float64
}

// ROI считает потенциальные продажи и окупаемость в процентах.
func ROI(in ROIInput) (models.ROI, error) {
	if in.Clicks == 0 {
		in.Clicks = DefaultClicks
	}
	if in.ConversionRate == 0 {
		in.ConversionRate = DefaultConversionRate
	}
	if in.AverageOrderValue == 0 {
		in.AverageOrderValue = DefaultAverageOrderValue
	}
	if in.Cost == 0 {
		in.Cost = DefaultCost
	}
	if in.Clicks < 0 || in.ConversionRate < 0 || in.ConversionRate > 1 ||
		in.AverageOrderValue < 0 || in.Cost < 0 {
		return models.ROI{}, ErrInvalidInput
	}

	sales := float64(in.Clicks) * in.ConversionRate * in.AverageOrderValue
	return models.ROI{
		TotalClicks:       in.Clicks,
		ConversionRate:    in.ConversionRate,
		AverageOrderValue: in.AverageOrderValue,
		PotentialSales:    sales,
		Cost:              in.Cost,
		ROI:               int64(math.Round((sales - in.Cost) / in.Cost * 100)),
	}, nil
}

// Events возвращает события для авторов рядом с точкой lat, lng.
func (s *Service) Events(ctx context.Context, lat, lng float64) (models.LocalEvents, error) {
	const op = "stats.Events"

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return models.LocalEvents{}, ErrInvalidInput
	}
	events, err := s.gateway.FindLocalCreatorEvents(ctx, lat, lng)
	if err != nil {
		return models.LocalEvents{}, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// Transcribe расшифровывает голосовой бриф.
func (s *Service) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	const op = "stats.Transcribe"

	if len(audio) == 0 || mimeType == "" {
		return "", ErrInvalidInput
	}
	text, err := s.gateway.TranscribeAudio(ctx, audio, mimeType)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return text, nil
}
