package gateway

import (
	"encoding/json"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
)

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return strings.TrimSpace(resp.Text())
}

// decodeJSON разбирает JSON-ответ модели в out. Пустой или некорректный
// ответ оставляет out нетронутым и пишет предупреждение.
func (c *Client) decodeJSON(method, text string, out any) {
	if text == "" {
		c.log.Warn("empty json from model", slog.String("method", method))
		return
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		c.log.Warn("malformed json from model", slog.String("method", method), sl.Err(err))
	}
}

// firstInlineData возвращает первый бинарный фрагмент первого кандидата.
func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}

// groundingLinks собирает источники из метаданных заземления первого кандидата.
func groundingLinks(resp *genai.GenerateContentResponse) []models.GroundingLink {
	links := make([]models.GroundingLink, 0)
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return links
	}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil {
			continue
		}
		switch {
		case chunk.Web != nil:
			links = append(links, models.GroundingLink{Title: chunk.Web.Title, URI: chunk.Web.URI})
		case chunk.Maps != nil:
			links = append(links, models.GroundingLink{Title: chunk.Maps.Title, URI: chunk.Maps.URI})
		}
	}
	return links
}

func userContent(parts ...*genai.Part) []*genai.Content {
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
