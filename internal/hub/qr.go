package hub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/skip2/go-qrcode"

	"github.com/magabrotheeeer/vendo/internal/models"
)

// QRCode PNG-изображение кода и ревизия списка блоков, для которого он выдан.
type QRCode struct {
	PNG      []byte
	Revision string
}

// QR строит QR-код публичной страницы. Ревизия меняется при любом
// изменении списка блоков и используется как ETag.
func QR(profileURL string, size int, links []models.LinkBlock) (QRCode, error) {
	const op = "hub.QR"

	png, err := qrcode.Encode(profileURL, qrcode.Medium, size)
	if err != nil {
		return QRCode{}, fmt.Errorf("%s: %w", op, err)
	}
	return QRCode{PNG: png, Revision: Revision(links)}, nil
}

// Revision возвращает короткий хеш состава и порядка блоков.
func Revision(links []models.LinkBlock) string {
	h := sha256.New()
	for _, l := range links {
		_, _ = h.Write([]byte(l.ID))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(l.URL))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(l.Type))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(strconv.FormatBool(l.IsNSFW)))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ProfileURL подставляет имя пользователя в шаблон адреса публичной страницы.
func ProfileURL(template, username string) string {
	return fmt.Sprintf(template, username)
}

// Seed начальные блоки нового пользователя.
func Seed(username, profileTemplate string) []models.LinkBlock {
	return []models.LinkBlock{
		{Title: "Gumroad Shop", URL: "https://gumroad.com/" + username, Clicks: 1240, Type: models.LinkShop},
		{Title: "Latest Video", URL: ProfileURL(profileTemplate, username) + "/v1", Clicks: 42, Type: models.LinkAd},
	}
}
