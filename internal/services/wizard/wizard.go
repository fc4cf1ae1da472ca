// Package wizard реализует мастер создания рекламы: бриф, выбор одного из
// трёх сценариев, рендер видео с имитацией прогресса и выдачу материалов.
//
// Сессии живут в памяти процесса. Каждая сессия защищена своим мьютексом,
// вызовы генеративной модели выполняются вне блокировки. Сброс сессии
// не отменяет начатые вызовы, их результаты отбрасываются по счётчику
// поколений.
package wizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/vendo/internal/config"
	"github.com/magabrotheeeer/vendo/internal/gateway"
	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/task"
)

var (
	// ErrNotFound сессия не найдена или принадлежит другому пользователю.
	ErrNotFound = errors.New("wizard session not found")
	// ErrInvalidStep операция недоступна на текущем шаге.
	ErrInvalidStep = errors.New("operation not allowed at current step")
	// ErrNoSelection сценарий не выбран.
	ErrNoSelection = errors.New("no candidate selected")
	// ErrInvalidIndex индекс вне диапазона кандидатов.
	ErrInvalidIndex = errors.New("candidate index out of range")
	// ErrRendering рендер уже выполняется.
	ErrRendering = errors.New("render in progress")
	// ErrBusy генерация сценариев уже выполняется.
	ErrBusy = errors.New("generation in progress")
	// ErrNotEnoughCandidates модель вернула меньше трёх сценариев.
	ErrNotEnoughCandidates = errors.New("model returned fewer than 3 candidates")
	// ErrInvalidInput пустые или некорректные входные данные.
	ErrInvalidInput = errors.New("invalid wizard input")
	// ErrNoCredential ключ генеративной модели не выбран.
	ErrNoCredential = errors.New("generative model credential required")
	// ErrReset сессия была сброшена, пока выполнялся вызов.
	ErrReset = errors.New("session was reset")
	// ErrNoAsset материал ещё не готов.
	ErrNoAsset = errors.New("asset not ready")
)

// CandidateCount число сценариев, которое показывает мастер.
const CandidateCount = 3

const memoryDepth = 3

// Сообщения журнала рендера.
var (
	RenderStartStatus = "Initializing Gemini Veo..."
	RenderStartLogs   = []string{
		"[SYSTEM] Authenticating with Veo Operation Hub...",
		"[SYSTEM] Allocating 4K Render Nodes...",
	}
	RenderTickLogs = []string{
		"[RENDER] Synthesizing lighting environment...",
		"[RENDER] Mapping skin textures to actor persona...",
		"[RENDER] Syncing neural lip-motion with script data...",
		"[RENDER] Applying cinematic color grading (9:16)...",
	}
	RenderDoneStatus = "Production Complete"
	RenderDoneLogs   = []string{"[SYSTEM] Asset packaged. Delivery verified."}
)

// Gateway вызовы генеративной модели, которые использует мастер.
type Gateway interface {
	GenerateAdScripts(ctx context.Context, product, description, tone string, pastHeroScripts []string) ([]models.GeneratedAd, error)
	RefineAdScript(ctx context.Context, currentScript, nudge string) (string, error)
	AnalyzeProductURL(ctx context.Context, url string) (models.ProductInfo, error)
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error)
	AnalyzeBaseVideo(ctx context.Context, video []byte, mimeType string) (string, error)
	GenerateAdVisual(ctx context.Context, prompt string) (gateway.Image, error)
	GenerateThumbnail(ctx context.Context, product, hook string) (gateway.Image, error)
	GenerateSocialCaptions(ctx context.Context, script string) (models.SocialCaptions, error)
	GenerateVideo(ctx context.Context, script string) (gateway.Video, error)
	AnalyzeVideoContent(ctx context.Context, frame []byte, mimeType, script string) (string, error)
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
}

// Campaigns хранилище кампаний.
type Campaigns interface {
	SaveCampaign(ctx context.Context, c models.AdCampaign) error
	DeleteCampaign(ctx context.Context, id string) error
	ListCompletedScripts(ctx context.Context, userID string, limit int) ([]string, error)
}

// Credentials проверяет наличие ключа генеративной модели.
type Credentials interface {
	HasCredential(ctx context.Context) bool
	RequestCredential(ctx context.Context) error
}

// Service реестр сессий мастера.
type Service struct {
	appCtx    context.Context
	gw        Gateway
	campaigns Campaigns
	creds     Credentials
	cfg       config.Wizard
	log       *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	renders  sync.WaitGroup
}

// New создаёт реестр. appCtx ограничивает время жизни фоновых рендеров:
// они отменяются только при остановке приложения.
func New(appCtx context.Context, gw Gateway, campaigns Campaigns, creds Credentials, cfg config.Wizard,
	log *slog.Logger) *Service {
	return &Service{
		appCtx:    appCtx,
		gw:        gw,
		campaigns: campaigns,
		creds:     creds,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

func (s *Service) newTask() *task.Task {
	return task.New(task.Options{
		Interval: s.cfg.TickInterval,
		TickLogs: RenderTickLogs,
	})
}

// Create открывает новую сессию на шаге брифа.
func (s *Service) Create(userID string) State {
	sess := &session{
		id:      uuid.NewString(),
		userID:  userID,
		touched: s.now(),
	}
	sess.clear(s.newTask())

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.Info("wizard session created", slog.String("session_id", sess.id), slog.String("user_id", userID))
	return sess.state()
}

// lookup возвращает сессию пользователя. Чужая сессия неотличима от отсутствующей.
func (s *Service) lookup(userID, id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.userID != userID {
		return nil, ErrNotFound
	}
	return sess, nil
}

// with выполняет fn под блокировкой сессии.
func (s *Service) with(userID, id string, fn func(sess *session) error) (State, error) {
	sess, err := s.lookup(userID, id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = s.now()
	if err := fn(sess); err != nil {
		return State{}, err
	}
	return sess.state(), nil
}

// Get возвращает состояние сессии.
func (s *Service) Get(userID, id string) (State, error) {
	return s.with(userID, id, func(*session) error { return nil })
}

// Reset возвращает сессию на шаг брифа и очищает всё эфемерное состояние.
// Результат идущего рендера будет отброшен.
func (s *Service) Reset(userID, id string) (State, error) {
	return s.with(userID, id, func(sess *session) error {
		sess.clear(s.newTask())
		s.log.Info("wizard session reset", slog.String("session_id", id))
		return nil
	})
}

// Events подписывает на события прогресса текущего рендера.
func (s *Service) Events(userID, id string) (<-chan task.Event, func(), task.Snapshot, error) {
	sess, err := s.lookup(userID, id)
	if err != nil {
		return nil, nil, task.Snapshot{}, err
	}
	sess.mu.Lock()
	t := sess.task
	sess.mu.Unlock()

	ch, cancel := t.Subscribe()
	return ch, cancel, t.Snapshot(), nil
}

// Wait ждёт завершения фоновых рендеров.
func (s *Service) Wait() {
	s.renders.Wait()
}

// RunJanitor удаляет простаивающие сессии до отмены ctx.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Info("expired wizard sessions removed", slog.Int("count", n))
			}
		}
	}
}

// Sweep удаляет сессии без активности дольше SessionTTL, кроме рендерящихся.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := !sess.rendering && sess.touched.Before(cutoff)
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
