// Package hub содержит чистые преобразования списка блоков публичной
// страницы: упорядочивание по режиму, группировку, перемещение,
// нормализацию и классификацию ссылок.
package hub

import (
	"errors"
	"sort"

	"github.com/magabrotheeeer/vendo/internal/models"
)

// Mode режим упорядочивания блоков.
type Mode string

// Режимы страницы.
const (
	ModePerformance Mode = "performance"
	ModeGrouped     Mode = "grouped"
	ModeManual      Mode = "manual"
)

// Valid проверяет, что режим известен.
func (m Mode) Valid() bool {
	switch m {
	case ModePerformance, ModeGrouped, ModeManual:
		return true
	default:
		return false
	}
}

// Direction направление перемещения блока.
type Direction string

// Направления перемещения.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ErrNotFound блок с указанным id отсутствует в списке.
var ErrNotFound = errors.New("hub: link not found")

// ErrInvalidDirection неизвестное направление перемещения.
var ErrInvalidDirection = errors.New("hub: invalid direction")

var typePriority = map[models.LinkType]int{
	models.LinkHero:    0,
	models.LinkShare:   1,
	models.LinkShop:    2,
	models.LinkSocial:  3,
	models.LinkContact: 4,
	models.LinkCustom:  5,
	models.LinkAd:      6,
}

func priority(t models.LinkType) int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return len(typePriority)
}

// Arrange возвращает копию списка, упорядоченную по режиму.
// Неизвестный режим трактуется как manual.
func Arrange(links []models.LinkBlock, mode Mode) []models.LinkBlock {
	out := make([]models.LinkBlock, len(links))
	copy(out, links)

	switch mode {
	case ModePerformance:
		sort.SliceStable(out, func(i, j int) bool {
			hi, hj := out[i].Type == models.LinkHero, out[j].Type == models.LinkHero
			if hi != hj {
				return hi
			}
			return out[i].Clicks > out[j].Clicks
		})
	case ModeGrouped:
		sort.SliceStable(out, func(i, j int) bool {
			pi, pj := priority(out[i].Type), priority(out[j].Type)
			if pi != pj {
				return pi < pj
			}
			return out[i].Clicks > out[j].Clicks
		})
	case ModeManual:
	}
	return out
}

// Group блоки одного типа в режиме grouped.
type Group struct {
	Type  models.LinkType    `json:"type"`
	Links []models.LinkBlock `json:"links"`
}

// Groups разбивает список на группы по типу в порядке приоритета.
func Groups(links []models.LinkBlock) []Group {
	var groups []Group
	for _, l := range Arrange(links, ModeGrouped) {
		if n := len(groups); n > 0 && groups[n-1].Type == l.Type {
			groups[n-1].Links = append(groups[n-1].Links, l)
			continue
		}
		groups = append(groups, Group{Type: l.Type, Links: []models.LinkBlock{l}})
	}
	return groups
}

// Move меняет блок местами с соседом по массиву. Перемещение за край
// списка ничего не меняет. Возвращает новый список.
func Move(links []models.LinkBlock, id string, dir Direction) ([]models.LinkBlock, error) {
	idx := -1
	for i, l := range links {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	var target int
	switch dir {
	case Up:
		target = idx - 1
	case Down:
		target = idx + 1
	default:
		return nil, ErrInvalidDirection
	}

	out := make([]models.LinkBlock, len(links))
	copy(out, links)
	if target < 0 || target >= len(out) {
		return out, nil
	}
	out[idx], out[target] = out[target], out[idx]
	return out, nil
}

// TopLinkID возвращает id блока с наибольшим числом кликов.
// При равенстве побеждает более ранний блок, для пустого списка пустая строка.
func TopLinkID(links []models.LinkBlock) string {
	var (
		id   string
		best int64 = -1
	)
	for _, l := range links {
		if l.Clicks > best {
			best = l.Clicks
			id = l.ID
		}
	}
	return id
}

// IDs возвращает идентификаторы блоков в порядке списка.
func IDs(links []models.LinkBlock) []string {
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids
}
