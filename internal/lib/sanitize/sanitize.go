// Package sanitize очищает пользовательский текст от HTML-разметки.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text удаляет все теги и обрезает пробелы по краям.
// HTML-сущности раскрываются обратно, чтобы "A & B" оставалось читаемым.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
