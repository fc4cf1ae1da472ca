package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// Image сгенерированное изображение.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURL возвращает изображение в виде data: URL, пустую строку для пустого изображения.
func (i Image) DataURL() string {
	if len(i.Data) == 0 {
		return ""
	}
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Video готовый ролик.
type Video struct {
	URI      string
	MIMEType string
	Data     []byte
}

// GenerateThumbnail рисует превью 16:9 с текстом хука.
func (c *Client) GenerateThumbnail(ctx context.Context, product, hook string) (Image, error) {
	return c.generateImage(ctx, "GenerateThumbnail", thumbnailPrompt(product, hook), "16:9", "1K")
}

// GenerateAdVisual рисует вертикальный кадр 9:16 по визуальному промпту.
func (c *Client) GenerateAdVisual(ctx context.Context, prompt string) (Image, error) {
	return c.generateImage(ctx, "GenerateAdVisual", adVisualPrompt(prompt), "9:16", "4K")
}

func (c *Client) generateImage(ctx context.Context, method, prompt, aspectRatio, size string) (Image, error) {
	var img Image
	err := c.call(ctx, method, func(key string) error {
		cfg := &genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: aspectRatio, ImageSize: size},
		}
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.ImageModel,
			userContent(genai.NewPartFromText(prompt)), cfg)
		if err != nil {
			return err
		}
		if blob := firstInlineData(resp); blob != nil {
			img = Image{Data: blob.Data, MIMEType: blob.MIMEType}
		}
		return nil
	})
	return img, err
}

// GenerateSpeech озвучивает текст готовым голосом из конфигурации.
// Возвращает сырые PCM-данные, пустой срез если модель не вернула аудио.
func (c *Client) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	const method = "GenerateSpeech"
	var audio []byte
	err := c.call(ctx, method, func(key string) error {
		cfg := &genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.cfg.Voice},
				},
			},
		}
		resp, err := c.backend.GenerateContent(ctx, key, c.cfg.SpeechModel,
			userContent(genai.NewPartFromText(speechPrompt(text))), cfg)
		if err != nil {
			return err
		}
		if blob := firstInlineData(resp); blob != nil {
			audio = blob.Data
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if audio == nil {
		audio = []byte{}
	}
	return audio, nil
}

// GenerateVideo запускает долгую операцию генерации видео, опрашивает её
// с интервалом PollInterval до завершения и скачивает результат.
func (c *Client) GenerateVideo(ctx context.Context, script string) (Video, error) {
	const method = "GenerateVideo"
	var video Video
	err := c.call(ctx, method, func(key string) error {
		op, err := c.backend.GenerateVideos(ctx, key, c.cfg.VideoModel, videoPrompt(script), &genai.GenerateVideosConfig{
			AspectRatio:    "9:16",
			Resolution:     "720p",
			NumberOfVideos: 1,
		})
		if err != nil {
			return err
		}

		for op == nil || !op.Done {
			if op == nil {
				return fmt.Errorf("%w: nil operation", ErrVideoFailed)
			}
			timer := time.NewTimer(c.cfg.PollInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			if op, err = c.backend.GetVideosOperation(ctx, key, op); err != nil {
				return err
			}
		}

		if op.Error != nil {
			return fmt.Errorf("%w: %v", ErrVideoFailed, op.Error)
		}
		if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0] == nil {
			return fmt.Errorf("%w: no video in response", ErrEmptyResponse)
		}
		generated := op.Response.GeneratedVideos[0]
		data, err := c.backend.DownloadVideo(ctx, key, generated)
		if err != nil {
			return err
		}
		video = Video{Data: data, MIMEType: "video/mp4"}
		if generated.Video != nil {
			video.URI = generated.Video.URI
			if generated.Video.MIMEType != "" {
				video.MIMEType = generated.Video.MIMEType
			}
		}
		return nil
	})
	return video, err
}
