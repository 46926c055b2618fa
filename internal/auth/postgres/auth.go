package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	userDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return credentialsFromUser(&u), nil
}

func (r *Repository) GetCredentialsByID(ctx context.Context, userID int64) (*auth.Credentials, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return credentialsFromUser(&u), nil
}

func credentialsFromUser(u *userDatamodel.User) *auth.Credentials {
	return &auth.Credentials{
		UserID:       u.ID,
		Email:        u.Email,
		Role:         auth.Role(u.Role),
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}
}

func (r *Repository) GetActor(ctx context.Context, userID int64) (*auth.Actor, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &auth.Actor{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         auth.Role(u.Role),
		DepartmentID: u.DepartmentID,
		IsActive:     u.IsActive,
	}, nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash).Error
}

func (r *Repository) UpdateProfile(ctx context.Context, userID int64, name string) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("name", name).Error
}
