package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"tourify/config"
	"tourify/database/repository"
	"tourify/models"
	"tourify/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id string) error
}

// ResetMailer delivers the password-reset email.
type ResetMailer interface {
	SendPasswordReset(to, name, resetURL string) error
}

// Service implements signup, login and the password lifecycle.
type Service struct {
	Users  UserStore
	Mailer ResetMailer
	Logger *zap.Logger
}

// SignupInput is the registration payload.
type SignupInput struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

func tokenDuration() time.Duration {
	return time.Duration(config.AppConfig.JWTExpiryHours) * time.Hour
}

// SignUp registers a new account. The role is always "user"; privileged
// roles are assigned by admins through the user update path.
func (s *Service) SignUp(ctx context.Context, input SignupInput) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     input.Name,
		Email:    input.Email,
		Role:     models.RoleUser,
		Password: string(hash),
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, "", utils.Conflict("An account with that email already exists")
		}
		return nil, "", err
	}

	token, err := utils.GenerateToken(user.ID, tokenDuration())
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and issues a token. Missing accounts and bad
// passwords produce the same error so emails cannot be probed.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", utils.Unauthorized("Incorrect email or password")
		}
		return nil, "", err
	}
	if !user.IsActive() {
		return nil, "", utils.Unauthorized("Incorrect email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", utils.Unauthorized("Incorrect email or password")
	}

	token, err := utils.GenerateToken(user.ID, tokenDuration())
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}
	return user, token, nil
}

// UpdatePassword changes the password of a logged-in user after verifying
// the current one, then issues a fresh token (the old one is invalidated by
// the passwordChangedAt bump).
func (s *Service) UpdatePassword(ctx context.Context, userID, current, updated string) (string, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return "", utils.Unauthorized("Your current password is wrong")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(updated), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Users.SetPassword(ctx, userID, string(hash)); err != nil {
		return "", err
	}

	return utils.GenerateToken(userID, tokenDuration())
}

// ForgotPassword persists a hashed reset token valid for 10 minutes and
// emails the raw token. If the email cannot be delivered the token is
// cleared before the error returns, so a dangling valid token never
// survives a failed-delivery report.
func (s *Service) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NotFound("There is no user with that email address")
		}
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)
	tokenHash := hashToken(rawToken)

	if err := s.Users.SetResetToken(ctx, user.ID, tokenHash, time.Now().Add(10*time.Minute)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/%s", resetURLBase, rawToken)
	if err := s.Mailer.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
		s.Logger.Error("failed to send password reset email", zap.String("user", user.ID), zap.Error(err))
		if clearErr := s.Users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.Logger.Error("failed to clear dangling reset token", zap.String("user", user.ID), zap.Error(clearErr))
		}
		return utils.Internal("There was an error sending the email. Try again later!")
	}
	return nil
}

// ResetPassword consumes an unexpired reset token, sets the new password
// and issues a fresh login token.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) (string, error) {
	user, err := s.Users.GetByResetToken(ctx, hashToken(rawToken), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", utils.BadRequest("Token is invalid or has expired")
		}
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Users.SetPassword(ctx, user.ID, string(hash)); err != nil {
		return "", err
	}

	return utils.GenerateToken(user.ID, tokenDuration())
}

// hashToken stores only the SHA-256 of reset tokens, like any credential.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
