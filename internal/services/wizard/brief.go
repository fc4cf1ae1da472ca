package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/vendo/internal/lib/sanitize"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
)

// begin проверяет предусловие под блокировкой и запоминает поколение сессии.
func (s *Service) begin(userID, id string, check func(sess *session) error) (*session, uint64, error) {
	sess, err := s.lookup(userID, id)
	if err != nil {
		return nil, 0, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = s.now()
	if err := check(sess); err != nil {
		return nil, 0, err
	}
	return sess, sess.gen, nil
}

// commit применяет результат вызова, если сессию не сбрасывали.
func (s *Service) commit(sess *session, gen uint64, apply func() error) (State, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.gen != gen {
		return sess.state(), ErrReset
	}
	if apply != nil {
		if err := apply(); err != nil {
			return State{}, err
		}
	}
	return sess.state(), nil
}

func atStep(step Step) func(sess *session) error {
	return func(sess *session) error {
		if sess.step != step {
			return ErrInvalidStep
		}
		return nil
	}
}

func cleanBrief(b Brief) Brief {
	b.ProductName = sanitize.Text(b.ProductName)
	b.Description = sanitize.Text(b.Description)
	b.Tone = sanitize.Text(b.Tone)
	if b.Tone == "" {
		b.Tone = DefaultTone
	}
	return b
}

func appendText(base, extra string) string {
	extra = strings.TrimSpace(extra)
	switch {
	case extra == "":
		return base
	case base == "":
		return extra
	default:
		return base + "\n\n" + extra
	}
}

// UpdateBrief редактирует бриф на шаге 1.
func (s *Service) UpdateBrief(userID, id string, brief Brief) (State, error) {
	return s.with(userID, id, func(sess *session) error {
		if sess.step != StepBrief {
			return ErrInvalidStep
		}
		sess.brief = cleanBrief(brief)
		return nil
	})
}

// SubmitBrief генерирует кандидатов. Пустой pastHeroScripts заменяется
// сценариями последних завершённых кампаний пользователя. При ошибке
// сессия остаётся на шаге 1, повторов нет. При успехе остаются ровно
// три кандидата и сессия переходит к выбору.
func (s *Service) SubmitBrief(ctx context.Context, userID, id string, brief Brief, pastHeroScripts []string) (State, error) {
	const op = "wizard.SubmitBrief"

	brief = cleanBrief(brief)
	if brief.ProductName == "" {
		return State{}, ErrInvalidInput
	}

	sess, gen, err := s.begin(userID, id, func(sess *session) error {
		if sess.step != StepBrief {
			return ErrInvalidStep
		}
		if sess.busy {
			return ErrBusy
		}
		sess.brief = brief
		sess.busy = true
		return nil
	})
	if err != nil {
		return State{}, err
	}
	release := func() {
		sess.mu.Lock()
		if sess.gen == gen {
			sess.busy = false
		}
		sess.mu.Unlock()
	}

	if len(pastHeroScripts) == 0 {
		pastHeroScripts, err = s.campaigns.ListCompletedScripts(ctx, userID, memoryDepth)
		if err != nil {
			s.log.Warn("failed to load performance memory", slog.String("op", op), sl.Err(err))
			pastHeroScripts = nil
		}
	}

	ads, err := s.gw.GenerateAdScripts(ctx, brief.ProductName, brief.Description, brief.Tone, pastHeroScripts)
	if err != nil {
		release()
		s.log.Error("failed to generate scripts", slog.String("op", op), sl.Err(err))
		return State{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(ads) < CandidateCount {
		release()
		s.log.Warn("not enough candidates", slog.String("op", op), slog.Int("count", len(ads)))
		return State{}, ErrNotEnoughCandidates
	}

	return s.commit(sess, gen, func() error {
		sess.busy = false
		sess.results = ads[:CandidateCount]
		sess.selected = nil
		sess.step = StepSelect
		return nil
	})
}

// MagicFill заполняет бриф по странице товара. Название заменяется, если
// модель его вернула, описание дописывается.
func (s *Service) MagicFill(ctx context.Context, userID, id, url string) (State, error) {
	const op = "wizard.MagicFill"

	url = strings.TrimSpace(url)
	if url == "" {
		return State{}, ErrInvalidInput
	}
	sess, gen, err := s.begin(userID, id, atStep(StepBrief))
	if err != nil {
		return State{}, err
	}

	info, err := s.gw.AnalyzeProductURL(ctx, url)
	if err != nil {
		s.log.Error("magic fill failed", slog.String("op", op), sl.Err(err))
		return State{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.commit(sess, gen, func() error {
		if name := sanitize.Text(info.ProductName); name != "" {
			sess.brief.ProductName = name
		}
		sess.brief.Description = appendText(sess.brief.Description, sanitize.Text(info.Description))
		sess.links = info.Links
		return nil
	})
}

// AnalyzePhoto дописывает в описание брифа разбор фотографии товара.
func (s *Service) AnalyzePhoto(ctx context.Context, userID, id string, image []byte, mimeType string) (State, error) {
	return s.enrich(ctx, "wizard.AnalyzePhoto", userID, id, image, mimeType, s.gw.AnalyzeImage)
}

// AnalyzeVideo дописывает в описание брифа разбор исходного видео.
func (s *Service) AnalyzeVideo(ctx context.Context, userID, id string, video []byte, mimeType string) (State, error) {
	return s.enrich(ctx, "wizard.AnalyzeVideo", userID, id, video, mimeType, s.gw.AnalyzeBaseVideo)
}

func (s *Service) enrich(ctx context.Context, op, userID, id string, data []byte, mimeType string,
	describe func(ctx context.Context, data []byte, mimeType string) (string, error)) (State, error) {
	if len(data) == 0 || mimeType == "" {
		return State{}, ErrInvalidInput
	}
	sess, gen, err := s.begin(userID, id, atStep(StepBrief))
	if err != nil {
		return State{}, err
	}

	text, err := describe(ctx, data, mimeType)
	if err != nil {
		s.log.Error("media analysis failed", slog.String("op", op), sl.Err(err))
		return State{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.commit(sess, gen, func() error {
		sess.brief.Description = appendText(sess.brief.Description, sanitize.Text(text))
		return nil
	})
}
