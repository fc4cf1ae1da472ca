package models

// LinkType тип блока ссылки.
type LinkType string

// Допустимые типы блоков.
const (
	LinkShop    LinkType = "shop"
	LinkAd      LinkType = "ad"
	LinkCustom  LinkType = "custom"
	LinkSocial  LinkType = "social"
	LinkContact LinkType = "contact"
	LinkHero    LinkType = "hero"
	LinkShare   LinkType = "share"
)

// Valid проверяет, что тип входит в перечень известных.
func (t LinkType) Valid() bool {
	switch t {
	case LinkShop, LinkAd, LinkCustom, LinkSocial, LinkContact, LinkHero, LinkShare:
		return true
	default:
		return false
	}
}

// LinkBlock одна ссылка на публичной странице пользователя.
// Раскрытие NSFW-блока зависит от посетителя и хранится отдельно,
// в PublicBlock.Blurred.
type LinkBlock struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Clicks int64    `json:"clicks"`
	Type   LinkType `json:"type"`
	IsNSFW bool     `json:"isNsfw,omitempty"`
}

// NewLink входные данные для добавления блока.
type NewLink struct {
	Title       string   `json:"title" validate:"required,max=120"`
	URL         string   `json:"url" validate:"required,max=2048"`
	Type        LinkType `json:"type,omitempty"`
	CheckSafety bool     `json:"checkSafety,omitempty"`
}

// PublicBlock блок в том виде, в котором его видит посетитель страницы.
// Для заблюренного NSFW-блока URL не отдаётся.
type PublicBlock struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	URL     string   `json:"url,omitempty"`
	Type    LinkType `json:"type"`
	Blurred bool     `json:"blurred"`
}

// ClickEvent сообщение о переходе по ссылке, публикуемое в брокер.
type ClickEvent struct {
	UserID  string `json:"user_id"`
	LinkID  string `json:"link_id"`
	Viewer  string `json:"viewer,omitempty"`
	Clicked int64  `json:"clicked_at"`
}
