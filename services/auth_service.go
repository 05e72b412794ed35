package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// WelcomeMailer отправляет приветственное письмо новому участнику.
type WelcomeMailer interface {
	SendWelcomeEmail(to string, firstName string) error
}

type RegisterInput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Nickname  *string `json:"nickname,omitempty"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService struct {
	userRepo repositories.UserRepository
	mailer   WelcomeMailer
	logger   *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, mailer WelcomeMailer, logger *slog.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, mailer: mailer, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if len(input.Password) < 8 {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Nickname:     input.Nickname,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         models.RoleParticipant,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, err
	}

	s.sendWelcome(ctx, user)

	user.PasswordHash = ""
	return user, nil
}

// sendWelcome шлёт приветственное письмо. Сбой почты не отменяет
// регистрацию аккаунта.
func (s *AuthService) sendWelcome(ctx context.Context, user *models.User) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendWelcomeEmail(user.Email, user.FirstName); err != nil {
		s.logger.WarnContext(ctx, "failed to send welcome email",
			slog.String("email", user.Email), slog.Any("error", err))
	}
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}
