package domain

import "time"

type User struct {
	ID           UserID `gorm:"type:uuid;primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex:ux_users_email;not null"`
	PasswordHash string `gorm:"not null"`
	IsVerified   bool   `gorm:"not null;default:false"`

	// Outstanding email-verification OTP. Only the sha256 of the code is
	// stored; both fields are cleared when the code is consumed.
	VerificationOtpHash      *string
	VerificationOtpExpiresAt *time.Time

	// Outstanding password-reset token, same storage rules as the OTP.
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }
