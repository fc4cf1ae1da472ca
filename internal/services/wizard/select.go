package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
)

// SelectCandidate запоминает выбранный сценарий. Доступно только при
// трёх кандидатах и без идущего рендера.
func (s *Service) SelectCandidate(userID, id string, index int) (State, error) {
	return s.with(userID, id, func(sess *session) error {
		if sess.step != StepSelect || len(sess.results) != CandidateCount {
			return ErrInvalidStep
		}
		if sess.rendering {
			return ErrRendering
		}
		if index < 0 || index >= CandidateCount {
			return ErrInvalidIndex
		}
		sess.selected = &index
		return nil
	})
}

// Refine переписывает только поле script выбранного сценария.
func (s *Service) Refine(ctx context.Context, userID, id, nudge string) (State, error) {
	const op = "wizard.Refine"

	nudge = strings.TrimSpace(nudge)
	if nudge == "" {
		return State{}, ErrInvalidInput
	}

	var (
		idx     int
		current string
	)
	sess, gen, err := s.begin(userID, id, func(sess *session) error {
		if sess.step != StepSelect {
			return ErrInvalidStep
		}
		if sess.rendering {
			return ErrRendering
		}
		ad, ok := sess.selectedAd()
		if !ok {
			return ErrNoSelection
		}
		idx, current = *sess.selected, ad.Script
		return nil
	})
	if err != nil {
		return State{}, err
	}

	script, err := s.gw.RefineAdScript(ctx, current, nudge)
	if err != nil {
		s.log.Error("refine failed", slog.String("op", op), sl.Err(err))
		return State{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.commit(sess, gen, func() error {
		if sess.rendering {
			return ErrRendering
		}
		// Рендер мог начаться и завершиться, пока модель отвечала.
		if sess.step != StepSelect {
			return ErrInvalidStep
		}
		if script != "" {
			sess.results[idx].Script = script
		}
		return nil
	})
}

// Visual рисует вертикальный кадр по visualPrompt выбранного сценария.
func (s *Service) Visual(ctx context.Context, userID, id string) (gateway.Image, error) {
	const op = "wizard.Visual"

	var prompt string
	_, _, err := s.begin(userID, id, func(sess *session) error {
		ad, ok := sess.selectedAd()
		if !ok {
			return ErrNoSelection
		}
		prompt = ad.VisualPrompt
		return nil
	})
	if err != nil {
		return gateway.Image{}, err
	}

	img, err := s.gw.GenerateAdVisual(ctx, prompt)
	if err != nil {
		s.log.Error("visual failed", slog.String("op", op), sl.Err(err))
		return gateway.Image{}, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}
