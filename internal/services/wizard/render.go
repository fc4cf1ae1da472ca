package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/task"
)

// Render запускает производство выбранного сценария в фоне. Видео, превью
// и подписи запрашиваются параллельно, ошибка любого вызова проваливает
// весь рендер. Прогресс публикуется через Events.
func (s *Service) Render(ctx context.Context, userID, id string) (State, error) {
	const op = "wizard.Render"

	if !s.creds.HasCredential(ctx) {
		if err := s.creds.RequestCredential(ctx); err != nil {
			s.log.Warn("credential request failed", slog.String("op", op), sl.Err(err))
		}
		return State{}, ErrNoCredential
	}

	var (
		ad       models.GeneratedAd
		brief    Brief
		t        *task.Task
		campaign models.AdCampaign
	)
	sess, gen, err := s.begin(userID, id, func(sess *session) error {
		if sess.step != StepSelect {
			return ErrInvalidStep
		}
		if sess.rendering {
			return ErrRendering
		}
		var ok bool
		if ad, ok = sess.selectedAd(); !ok {
			return ErrNoSelection
		}
		brief, t = sess.brief, sess.task
		sess.rendering = true
		return nil
	})
	if err != nil {
		return State{}, err
	}

	campaign = models.AdCampaign{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductName: brief.ProductName,
		Description: brief.Description,
		Tone:        brief.Tone,
		Status:      models.CampaignRendering,
		Hook:        ad.Hook,
		Script:      ad.Script,
		AvatarName:  ad.AvatarName,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.campaigns.SaveCampaign(ctx, campaign); err != nil {
		sess.mu.Lock()
		if sess.gen == gen {
			sess.rendering = false
		}
		sess.mu.Unlock()
		return State{}, fmt.Errorf("%s: %w", op, err)
	}

	state, err := s.commit(sess, gen, func() error {
		sess.campaignID = campaign.ID
		return nil
	})
	if err != nil {
		s.dropCampaign(campaign.ID)
		return State{}, err
	}

	s.renders.Add(1)
	go func() {
		defer s.renders.Done()
		s.produce(sess, gen, t, ad, campaign)
	}()
	s.log.Info("render started", slog.String("session_id", id), slog.String("campaign_id", campaign.ID))
	return state, nil
}

type assets struct {
	video     gateway.Video
	thumbnail gateway.Image
	captions  models.SocialCaptions
}

func (s *Service) produce(sess *session, gen uint64, t *task.Task, ad models.GeneratedAd, campaign models.AdCampaign) {
	const op = "wizard.produce"

	var out assets
	work := func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			v, err := s.gw.GenerateVideo(gctx, ad.Script)
			out.video = v
			return err
		})
		g.Go(func() error {
			img, err := s.gw.GenerateThumbnail(gctx, campaign.ProductName, ad.Hook)
			out.thumbnail = img
			return err
		})
		g.Go(func() error {
			c, err := s.gw.GenerateSocialCaptions(gctx, ad.Script)
			out.captions = c
			return err
		})
		return g.Wait()
	}

	err := t.Run(s.appCtx,
		task.Stage{Status: RenderStartStatus, Logs: RenderStartLogs},
		work,
		task.Stage{Status: RenderDoneStatus, Logs: RenderDoneLogs},
	)
	if err != nil {
		s.log.Error("render failed", slog.String("op", op), slog.String("campaign_id", campaign.ID), sl.Err(err))
		s.dropCampaign(campaign.ID)
		s.finish(sess, gen, nil)
		return
	}

	campaign.Status = models.CampaignCompleted
	campaign.ThumbnailURL = out.thumbnail.DataURL()
	campaign.VideoURI = out.video.URI

	sess.mu.Lock()
	stale := sess.gen != gen
	if !stale {
		video := out.video
		captions := out.captions
		sess.video = &video
		sess.thumbnail = out.thumbnail
		sess.captions = &captions
	}
	sess.mu.Unlock()

	if stale {
		s.log.Info("render result discarded after reset", slog.String("campaign_id", campaign.ID))
		s.dropCampaign(campaign.ID)
		return
	}

	if s.cfg.FinishDelay > 0 {
		timer := time.NewTimer(s.cfg.FinishDelay)
		select {
		case <-s.appCtx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	if !s.finish(sess, gen, func() { sess.step = StepDeliver }) {
		s.log.Info("render result discarded after reset", slog.String("campaign_id", campaign.ID))
		s.dropCampaign(campaign.ID)
		return
	}
	if err := s.campaigns.SaveCampaign(context.WithoutCancel(s.appCtx), campaign); err != nil {
		s.log.Error("failed to save completed campaign", slog.String("op", op), sl.Err(err))
	}
}

// finish снимает флаг рендера. При ошибке материалы не сохраняются.
// Возвращает false, если сессию сбросили.
func (s *Service) finish(sess *session, gen uint64, apply func()) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.gen != gen {
		return false
	}
	sess.rendering = false
	if apply != nil {
		apply()
	}
	return true
}

func (s *Service) dropCampaign(id string) {
	if err := s.campaigns.DeleteCampaign(context.WithoutCancel(s.appCtx), id); err != nil {
		s.log.Error("failed to delete campaign", slog.String("campaign_id", id), sl.Err(err))
	}
}
