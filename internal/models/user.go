// Package models содержит доменные структуры приложения: пользователь,
// блоки ссылок, рекламные кампании и результаты работы генеративной модели.
package models

import "time"

// Тарифы пользователя.
const (
	SubscriptionFree = "free"
	SubscriptionPro  = "pro"
)

// User описывает владельца аккаунта.
type User struct {
	ID                     string          `json:"id"`
	Email                  string          `json:"email"`
	Username               string          `json:"username"`
	Subscription           string          `json:"subscription"`
	TrialEndsAt            time.Time       `json:"trialEndsAt"`
	HasCompletedOnboarding bool            `json:"hasCompletedOnboarding"`
	PrivacySettings        PrivacySettings `json:"privacySettings"`
	TrackingPixels         *TrackingPixels `json:"trackingPixels,omitempty"`
	HubMode                string          `json:"hubMode"`
	CreatedAt              time.Time       `json:"createdAt"`
}

// PrivacySettings настройки хранения данных пользователя.
type PrivacySettings struct {
	AutoDeleteAfter24Months bool `json:"autoDeleteAfter24Months"`
}

// TrackingPixels идентификаторы пикселей аналитики.
type TrackingPixels struct {
	FacebookPixelID   string `json:"facebookPixelId,omitempty" validate:"omitempty,max=64"`
	GoogleAnalyticsID string `json:"googleAnalyticsId,omitempty" validate:"omitempty,max=64"`
}

// CanRender сообщает, может ли пользователь запускать рендер видео:
// нужен тариф pro или не истёкший пробный период.
func (u *User) CanRender(now time.Time) bool {
	if u.Subscription == SubscriptionPro {
		return true
	}
	return now.Before(u.TrialEndsAt)
}
