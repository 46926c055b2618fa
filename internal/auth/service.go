package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"golang.org/x/crypto/bcrypt"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	LoadActor(ctx context.Context, userID int64) (*Actor, error)
	ChangePassword(ctx context.Context, actor *Actor, dto ChangePasswordDTO) error
	UpdateProfile(ctx context.Context, actor *Actor, dto UpdateProfileDTO) (*Actor, error)
}

type RepositoryAPI interface {
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	GetActor(ctx context.Context, userID int64) (*Actor, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
	GetCredentialsByID(ctx context.Context, userID int64) (*Credentials, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateProfile(ctx context.Context, userID int64, name string) error
}

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, dto.Email)
	if err != nil {
		s.logger.Warn("login failed: unknown email", "email", dto.Email)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed: password mismatch", "user_id", creds.UserID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	tokens, err := s.issue(creds.UserID, creds.Email, creds.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	if err := s.repo.TouchLastLogin(ctx, creds.UserID, time.Now()); err != nil {
		s.logger.Warn("failed to record last login", "user_id", creds.UserID, "error", err)
	}

	actor, err := s.repo.GetActor(ctx, creds.UserID)
	if err == nil {
		tokens.User = actor
	}

	s.logger.Info("user logged in", "user_id", creds.UserID, "role", creds.Role)
	return tokens, nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	userID, err := claims.ID()
	if err != nil {
		return AuthTokens{}, err
	}

	// role may have changed since the refresh token was issued
	actor, err := s.LoadActor(ctx, userID)
	if err != nil {
		return AuthTokens{}, err
	}

	tokens, err := s.issue(actor.ID, actor.Email, actor.Role)
	if err != nil {
		return AuthTokens{}, err
	}
	tokens.User = actor
	return tokens, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// LoadActor resolves an active principal for the given user id.
func (s *Service) LoadActor(ctx context.Context, userID int64) (*Actor, error) {
	actor, err := s.repo.GetActor(ctx, userID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	if !actor.IsActive {
		return nil, internal.ErrUserInactive
	}
	return actor, nil
}

// ChangePassword replaces the actor's password after checking the current one.
// A wrong current password is a field error rather than a 401 so clients keep the session.
func (s *Service) ChangePassword(ctx context.Context, actor *Actor, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	creds, err := s.repo.GetCredentialsByID(ctx, actor.ID)
	if err != nil {
		return err
	}

	if err := VerifyPassword(creds.PasswordHash, dto.CurrentPassword); err != nil {
		s.logger.Warn("password change rejected: current password mismatch", "user_id", actor.ID)
		return internal.NewValidationFieldError("current_password", "current password is incorrect", internal.ErrCodeInvalidCredentials)
	}

	hash, err := HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(ctx, actor.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", actor.ID)
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, actor *Actor, dto UpdateProfileDTO) (*Actor, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, actor.ID, strings.TrimSpace(dto.Name)); err != nil {
		return nil, err
	}

	return s.repo.GetActor(ctx, actor.ID)
}

func (s *Service) issue(userID int64, email string, role Role) (AuthTokens, error) {
	accessToken, expiresAt, err := s.tokenGenerator.GenerateAccessToken(userID, email, role)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, email, role)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
