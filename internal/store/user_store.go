package store

import (
	"context"
	"errors"
	"time"

	"todo-api/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	if err := u.db.WithContext(ctx).Create(usr).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// MarkVerified flips the verification flag and clears the consumed OTP in a
// single write, so a second verify attempt with the same code cannot succeed.
func (u *UserStore) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"is_verified":                 true,
			"verification_otp_hash":       nil,
			"verification_otp_expires_at": nil,
		}).Error
}

// SetResetToken overwrites any outstanding reset token; at most one is live
// per user at a time.
func (u *UserStore) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"reset_token_hash":       tokenHash,
			"reset_token_expires_at": expiresAt,
		}).Error
}

func (u *UserStore) GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "reset_token_hash = ?", tokenHash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetPasswordHash replaces the password and consumes the reset token.
func (u *UserStore) SetPasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"password_hash":          passwordHash,
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
		}).Error
}

func (u *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return u.db.WithContext(ctx).Where("id = ?", userID).Delete(&domain.User{}).Error
}
