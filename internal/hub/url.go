package hub

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/magabrotheeeer/vendo/internal/models"
)

var (
	phoneChars = regexp.MustCompile(`^\+?[\d\s().-]+$`)
	nonDigits  = regexp.MustCompile(`\D`)
	hasScheme  = regexp.MustCompile(`(?i)^(https?://|tel:|mailto:)`)
)

const minPhoneDigits = 7

var socialDomains = []string{
	"instagram.com", "tiktok.com", "youtube.com", "youtu.be", "twitter.com", "x.com",
	"facebook.com", "linkedin.com", "snapchat.com", "pinterest.com", "twitch.tv", "threads.net",
}

var shopDomains = []string{
	"gumroad.com", "shopify.com", "myshopify.com", "etsy.com", "amazon.com", "amzn.to",
	"stan.store", "patreon.com", "ko-fi.com", "buymeacoffee.com", "lemonsqueezy.com",
}

// NormalizeURL приводит ввод пользователя к URL. Номер телефона
// (только телефонные символы и не меньше семи цифр) становится tel:-ссылкой,
// ввод со схемой http, https, tel или mailto сохраняется,
// остальное получает префикс https://.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if phoneChars.MatchString(s) {
		digits := nonDigits.ReplaceAllString(s, "")
		if len(digits) >= minPhoneDigits {
			if strings.HasPrefix(s, "+") {
				return "tel:+" + digits
			}
			return "tel:" + digits
		}
	}
	if hasScheme.MatchString(s) {
		return s
	}
	return "https://" + s
}

// ClassifyType определяет тип блока по URL. Явно запрошенный тип
// hero, share или ad имеет приоритет.
func ClassifyType(rawURL string, requested models.LinkType) models.LinkType {
	switch requested {
	case models.LinkHero, models.LinkShare, models.LinkAd:
		return requested
	}

	lower := strings.ToLower(rawURL)
	if strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "mailto:") {
		return models.LinkContact
	}
	host := hostOf(lower)
	if matchDomain(host, socialDomains) {
		return models.LinkSocial
	}
	if matchDomain(host, shopDomains) {
		return models.LinkShop
	}
	return models.LinkCustom
}

func hostOf(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + s)
		if err != nil {
			return ""
		}
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// matchDomain совпадает с доменом из списка или его поддоменом.
func matchDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
