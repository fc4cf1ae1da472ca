package models

import "time"

// Статусы рекламной кампании.
const (
	CampaignDraft     = "draft"
	CampaignRendering = "rendering"
	CampaignCompleted = "completed"
)

// AdCampaign сохранённая рекламная кампания.
type AdCampaign struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProductName  string    `json:"productName"`
	Description  string    `json:"description"`
	Tone         string    `json:"tone"`
	Status       string    `json:"status"`
	Hook         string    `json:"hook"`
	Script       string    `json:"script"`
	AvatarName   string    `json:"avatarName"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	VideoURI     string    `json:"videoUri,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GeneratedAd вариант рекламного сценария, предложенный моделью.
type GeneratedAd struct {
	Hook         string `json:"hook"`
	Script       string `json:"script"`
	AvatarName   string `json:"avatarName"`
	VisualPrompt string `json:"visualPrompt"`
	MemoryNote   string `json:"memoryNote,omitempty"`
}

// SocialCaptions подписи для публикации в соцсетях.
type SocialCaptions struct {
	TikTok    []string `json:"tiktok"`
	Instagram []string `json:"instagram"`
	YouTube   []string `json:"youtube"`
	Hashtags  []string `json:"hashtags"`
}

// GroundingLink ссылка-источник, которой модель подкрепила ответ.
type GroundingLink struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ProductInfo результат анализа страницы товара.
type ProductInfo struct {
	ProductName string          `json:"productName"`
	Description string          `json:"description"`
	Links       []GroundingLink `json:"links"`
}

// LocalEvents подсказки по событиям рядом с пользователем.
type LocalEvents struct {
	Text  string          `json:"text"`
	Links []GroundingLink `json:"links"`
}

// SafetyVerdict результат проверки ссылки на NSFW-контент.
type SafetyVerdict struct {
	IsNSFW bool   `json:"isNsfw"`
	Reason string `json:"reason"`
}
