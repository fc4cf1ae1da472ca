package wizard

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
)

// Analyze предсказывает удержание по превью и сценарию и озвучивает
// сценарий. Оба вызова идут параллельно, результат сохраняется только
// если успешны оба.
func (s *Service) Analyze(ctx context.Context, userID, id string) (Analysis, error) {
	const op = "wizard.Analyze"

	var (
		script    string
		thumbnail gateway.Image
	)
	sess, gen, err := s.begin(userID, id, func(sess *session) error {
		if sess.step != StepDeliver {
			return ErrInvalidStep
		}
		ad, ok := sess.selectedAd()
		if !ok {
			return ErrNoSelection
		}
		if len(sess.thumbnail.Data) == 0 {
			return ErrNoAsset
		}
		script, thumbnail = ad.Script, sess.thumbnail
		return nil
	})
	if err != nil {
		return Analysis{}, err
	}

	var result Analysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.gw.AnalyzeVideoContent(gctx, thumbnail.Data, thumbnail.MIMEType, script)
		result.Retention = text
		return err
	})
	g.Go(func() error {
		audio, err := s.gw.GenerateSpeech(gctx, script)
		result.Speech = audio
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("analysis failed", slog.String("op", op), sl.Err(err))
		return Analysis{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.commit(sess, gen, func() error {
		a := result
		sess.analysis = &a
		return nil
	}); err != nil {
		return Analysis{}, err
	}
	return result, nil
}

// Video возвращает готовый ролик.
func (s *Service) Video(userID, id string) (gateway.Video, error) {
	var video gateway.Video
	_, err := s.with(userID, id, func(sess *session) error {
		if sess.step != StepDeliver {
			return ErrInvalidStep
		}
		if sess.video == nil {
			return ErrNoAsset
		}
		video = *sess.video
		return nil
	})
	return video, err
}
