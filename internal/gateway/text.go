package gateway

import (
	"context"

	"google.golang.org/genai"

	"github.com/magabrotheeeer/vendo/internal/models"
)

func jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
}

// GenerateAdScripts предлагает варианты рекламных сценариев.
// pastHeroScripts подмешиваются в запрос как память об удачных сценариях.
func (c *Client) GenerateAdScripts(ctx context.Context, product, description, tone string,
	pastHeroScripts []string) ([]models.GeneratedAd, error) {
	const method = "GenerateAdScripts"
	ads := make([]models.GeneratedAd, 0)
	err := c.call(ctx, method, func(key string) error {
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.TextModel,
			genai.Text(adScriptsPrompt(product, description, tone, pastHeroScripts)), jsonConfig(adScriptsSchema))
		if err != nil {
			return err
		}
		c.decodeJSON(method, responseText(resp), &ads)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ads, nil
}

// GenerateSuccessInsight объясняет, почему сценарий сработал.
func (c *Client) GenerateSuccessInsight(ctx context.Context, script, topSource string,
	retentionMultiplier int) (models.SuccessInsight, error) {
	const method = "GenerateSuccessInsight"
	insight := models.SuccessInsight{Reasons: []models.InsightReason{}}
	err := c.call(ctx, method, func(key string) error {
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.TextModel,
			genai.Text(successInsightPrompt(script, topSource, retentionMultiplier)), jsonConfig(successInsightSchema))
		if err != nil {
			return err
		}
		c.decodeJSON(method, responseText(resp), &insight)
		return nil
	})
	if insight.Reasons == nil {
		insight.Reasons = []models.InsightReason{}
	}
	return insight, err
}

// RefineAdScript переписывает сценарий по подсказке пользователя.
// Пустой ответ модели возвращает исходный сценарий.
func (c *Client) RefineAdScript(ctx context.Context, currentScript, nudge string) (string, error) {
	const method = "RefineAdScript"
	refined := currentScript
	err := c.call(ctx, method, func(key string) error {
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.TextModel,
			genai.Text(refinePrompt(currentScript, nudge)), nil)
		if err != nil {
			return err
		}
		if text := responseText(resp); text != "" {
			refined = text
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return refined, nil
}

// AnalyzeProductURL извлекает название и описание товара по ссылке
// с заземлением через поиск Google.
func (c *Client) AnalyzeProductURL(ctx context.Context, url string) (models.ProductInfo, error) {
	const method = "AnalyzeProductURL"
	info := models.ProductInfo{Links: []models.GroundingLink{}}
	err := c.call(ctx, method, func(key string) error {
		cfg := jsonConfig(productInfoSchema)
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.TextModel, genai.Text(productURLPrompt(url)), cfg)
		if err != nil {
			return err
		}
		c.decodeJSON(method, responseText(resp), &info)
		info.Links = groundingLinks(resp)
		return nil
	})
	return info, err
}

// ClassifyContentSafety проверяет, ведёт ли ссылка на NSFW-контент.
func (c *Client) ClassifyContentSafety(ctx context.Context, url, title string) (models.SafetyVerdict, error) {
	const method = "ClassifyContentSafety"
	var verdict models.SafetyVerdict
	err := c.call(ctx, method, func(key string) error {
		cfg := jsonConfig(safetySchema)
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.TextModel, genai.Text(safetyPrompt(url, title)), cfg)
		if err != nil {
			return err
		}
		c.decodeJSON(method, responseText(resp), &verdict)
		return nil
	})
	return verdict, err
}

// GenerateSocialCaptions готовит подписи для TikTok, Instagram и YouTube.
func (c *Client) GenerateSocialCaptions(ctx context.Context, script string) (models.SocialCaptions, error) {
	const method = "GenerateSocialCaptions"
	var captions models.SocialCaptions
	err := c.call(ctx, method, func(key string) error {
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.TextModel,
			genai.Text(socialCaptionsPrompt(script)), jsonConfig(socialCaptionsSchema))
		if err != nil {
			return err
		}
		c.decodeJSON(method, responseText(resp), &captions)
		return nil
	})
	normalizeCaptions(&captions)
	return captions, err
}

func normalizeCaptions(c *models.SocialCaptions) {
	for _, s := range []*[]string{&c.TikTok, &c.Instagram, &c.YouTube, &c.Hashtags} {
		if *s == nil {
			*s = []string{}
		}
	}
}

// TranscribeAudio расшифровывает голосовой бриф.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return c.describeMedia(ctx, "TranscribeAudio", c.cfg.TextModel, audio, mimeType, transcribePrompt, "")
}

// AnalyzeImage описывает товар на фотографии для брифа.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	return c.describeMedia(ctx, "AnalyzeImage", c.cfg.VisionModel, image, mimeType, analyzeImagePrompt, "")
}

// AnalyzeVideoContent предсказывает удержание по кадру и сценарию.
func (c *Client) AnalyzeVideoContent(ctx context.Context, frame []byte, mimeType, script string) (string, error) {
	return c.describeMedia(ctx, "AnalyzeVideoContent", c.cfg.VisionModel, frame, mimeType, retentionPrompt(script), "")
}

// AnalyzeBaseVideo предлагает, как улучшить исходное видео пользователя.
func (c *Client) AnalyzeBaseVideo(ctx context.Context, video []byte, mimeType string) (string, error) {
	return c.describeMedia(ctx, "AnalyzeBaseVideo", c.cfg.VisionModel, video, mimeType, analyzeBaseVideoPrompt, baseVideoFallback)
}

func (c *Client) describeMedia(ctx context.Context, method, model string, data []byte, mimeType, prompt,
	fallback string) (string, error) {
	text := fallback
	err := c.call(ctx, method, func(key string) error {
		contents := userContent(genai.NewPartFromBytes(data, mimeType), genai.NewPartFromText(prompt))
		resp, err := c.backend.GenerateContent(ctx, key, model, contents, nil)
		if err != nil {
			return err
		}
		if t := responseText(resp); t != "" {
			text = t
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// FindLocalCreatorEvents ищет площадки для встреч рядом с координатами
// с заземлением через Google Maps.
func (c *Client) FindLocalCreatorEvents(ctx context.Context, lat, lng float64) (models.LocalEvents, error) {
	const method = "FindLocalCreatorEvents"
	events := models.LocalEvents{Links: []models.GroundingLink{}}
	err := c.call(ctx, method, func(key string) error {
		cfg := &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
			ToolConfig: &genai.ToolConfig{
				RetrievalConfig: &genai.RetrievalConfig{
					LatLng: &genai.LatLng{Latitude: genai.Ptr(lat), Longitude: genai.Ptr(lng)},
				},
			},
		}
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.MapsModel, genai.Text(localEventsPrompt), cfg)
		if err != nil {
			return err
		}
		events.Text = responseText(resp)
		events.Links = groundingLinks(resp)
		return nil
	})
	return events, err
}
