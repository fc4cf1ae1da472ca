// Package auth содержит вход по e-mail: поиск или создание пользователя,
// заполнение стартовых блоков и выдачу JWT.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/vendo/internal/hub"
	"github.com/magabrotheeeer/vendo/internal/lib/jwt"
	"github.com/magabrotheeeer/vendo/internal/lib/sl"
	"github.com/magabrotheeeer/vendo/internal/models"
	"github.com/magabrotheeeer/vendo/internal/storage"
)

// ErrInvalidEmail e-mail не удалось разобрать.
var ErrInvalidEmail = errors.New("invalid email")

const (
	trialPeriod = 7 * 24 * time.Hour
	idAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength    = 9
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// GetUserByEmail возвращает пользователя по e-mail или storage.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUser сохраняет нового пользователя.
	CreateUser(ctx context.Context, user models.User) error
}

// LinkRepository добавляет стартовые блоки новому пользователю.
type LinkRepository interface {
	AddLink(ctx context.Context, userID string, link models.LinkBlock) error
}

// Service отвечает за вход и выдачу токенов.
type Service struct {
	users           UserRepository
	links           LinkRepository
	jwtMaker        jwt.Maker
	profileTemplate string
	log             *slog.Logger
	now             func() time.Time
}

// New создает новый экземпляр Service.
func New(users UserRepository, links LinkRepository, jwtMaker jwt.Maker, profileTemplate string, log *slog.Logger) *Service {
	return &Service{
		users:           users,
		links:           links,
		jwtMaker:        jwtMaker,
		profileTemplate: profileTemplate,
		log:             log,
		now:             time.Now,
	}
}

// Login находит пользователя по e-mail или создаёт нового и возвращает JWT.
func (s *Service) Login(ctx context.Context, email string) (string, *models.User, error) {
	const op = "auth.Login"

	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", nil, ErrInvalidEmail
	}
	email = strings.ToLower(addr.Address)

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		user, err = s.register(ctx, email)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

func (s *Service) register(ctx context.Context, email string) (*models.User, error) {
	now := s.now().UTC()
	user := models.User{
		ID:              NewUserID(),
		Email:           email,
		Username:        strings.SplitN(email, "@", 2)[0],
		Subscription:    models.SubscriptionFree,
		TrialEndsAt:     now.Add(trialPeriod),
		PrivacySettings: models.PrivacySettings{AutoDeleteAfter24Months: true},
		HubMode:         string(hub.ModePerformance),
		CreatedAt:       now,
	}

	err := s.users.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrAlreadyExists) {
		// имя занято другим адресом с той же локальной частью
		user.Username = user.Username + "-" + user.ID[len(user.ID)-4:]
		err = s.users.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", slog.String("user_id", user.ID), slog.String("username", user.Username))

	for _, link := range hub.Seed(user.Username, s.profileTemplate) {
		link.ID = uuid.NewString()
		if err := s.links.AddLink(ctx, user.ID, link); err != nil {
			s.log.Warn("failed to seed link", slog.String("user_id", user.ID), sl.Err(err))
		}
	}
	return &user, nil
}

// NewUserID возвращает идентификатор вида usr_ и 9 символов base36.
func NewUserID() string {
	var b strings.Builder
	b.WriteString("usr_")
	for range idLength {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return b.String()
}
