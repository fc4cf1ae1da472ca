package cache

// Ключи повторяют схему vendo_<сущность>_<id>.

// UserKey ключ профиля пользователя.
func UserKey(userID string) string { return "vendo_user_" + userID }

// LinksKey ключ списка блоков пользователя.
func LinksKey(userID string) string { return "vendo_links_" + userID }

// UnblurKey ключ набора раскрытых блоков для сессии зрителя.
func UnblurKey(viewerSession string) string { return "vendo_unblur_" + viewerSession }

// InsightKey ключ разбора успешного сценария.
func InsightKey(userID string) string { return "vendo_insight_" + userID }

// SimulatedClicksKey ключ имитационных кликов heartbeat для блоков пользователя.
func SimulatedClicksKey(userID string) string { return "vendo_pulse_" + userID }
