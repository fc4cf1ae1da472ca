package wizard

import (
	"sync"
	"time"

	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/task"
)

// Step шаг мастера.
type Step int

// Шаги мастера.
const (
	StepBrief   Step = 1
	StepSelect  Step = 2
	StepDeliver Step = 3
)

// DefaultTone тон нового брифа.
const DefaultTone = "Energetic"

// Brief описание продукта для генерации сценариев.
type Brief struct {
	ProductName string `json:"productName"`
	Description string `json:"description"`
	Tone        string `json:"tone"`
}

// Analysis результат разбора готового ролика.
type Analysis struct {
	Retention string `json:"retention"`
	// Speech сырые PCM-данные озвучки сценария.
	Speech []byte `json:"speech"`
}

// State снимок сессии для клиента.
type State struct {
	ID             string                 `json:"id"`
	Step           Step                   `json:"step"`
	Brief          Brief                  `json:"brief"`
	GroundingLinks []models.GroundingLink `json:"groundingLinks"`
	Results        []models.GeneratedAd   `json:"results"`
	SelectedAdIdx  *int                   `json:"selectedAdIdx"`
	Rendering      bool                   `json:"rendering"`
	Render         task.Snapshot          `json:"render"`
	CampaignID     string                 `json:"campaignId,omitempty"`
	ThumbnailURL   string                 `json:"thumbnailUrl,omitempty"`
	VideoURI       string                 `json:"videoUri,omitempty"`
	HasVideo       bool                   `json:"hasVideo"`
	Captions       *models.SocialCaptions `json:"captions,omitempty"`
	Analysis       *Analysis              `json:"analysis,omitempty"`
}

type session struct {
	mu sync.Mutex

	id     string
	userID string
	// gen растёт при каждом сбросе; результаты вызовов, начатых
	// с другим gen, отбрасываются.
	gen       uint64
	step      Step
	brief     Brief
	links     []models.GroundingLink
	results   []models.GeneratedAd
	selected  *int
	busy      bool
	rendering bool
	task      *task.Task

	campaignID string
	video      *gateway.Video
	thumbnail  gateway.Image
	captions   *models.SocialCaptions
	analysis   *Analysis

	touched time.Time
}

// clear сбрасывает всё эфемерное состояние и возвращает сессию на шаг 1.
func (s *session) clear(t *task.Task) {
	s.gen++
	s.step = StepBrief
	s.brief = Brief{Tone: DefaultTone}
	s.links = nil
	s.results = nil
	s.selected = nil
	s.busy = false
	s.rendering = false
	s.task = t
	s.campaignID = ""
	s.video = nil
	s.thumbnail = gateway.Image{}
	s.captions = nil
	s.analysis = nil
}

func (s *session) state() State {
	st := State{
		ID:             s.id,
		Step:           s.step,
		Brief:          s.brief,
		GroundingLinks: append([]models.GroundingLink{}, s.links...),
		Results:        append([]models.GeneratedAd{}, s.results...),
		Rendering:      s.rendering,
		Render:         s.task.Snapshot(),
		CampaignID:     s.campaignID,
		ThumbnailURL:   s.thumbnail.DataURL(),
		HasVideo:       s.video != nil,
		Captions:       s.captions,
		Analysis:       s.analysis,
	}
	if s.selected != nil {
		idx := *s.selected
		st.SelectedAdIdx = &idx
	}
	if s.video != nil {
		st.VideoURI = s.video.URI
	}
	return st
}

func (s *session) selectedAd() (models.GeneratedAd, bool) {
	if s.selected == nil || *s.selected >= len(s.results) {
		return models.GeneratedAd{}, false
	}
	return s.results[*s.selected], true
}
