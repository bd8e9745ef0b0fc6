package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted account record. Password material is stored only in
// hashed form; verification and reset tokens are single-use secrets that are
// cleared once consumed.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Name         string    `bun:"name,notnull" json:"name,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`

	// EmailVerified flips to true exactly once; VerificationToken is non-nil
	// only while the account is unverified and a verification is pending.
	EmailVerified     bool    `bun:"is_verified,notnull,default:false" json:"is_verified"`
	VerificationToken *string `bun:"verification_token,nullzero" json:"-"`

	// ResetToken and ResetTokenExpiresAt are both nil or both set. A token
	// past its expiry is invisible to lookups, so no sweeper is needed.
	ResetToken          *string    `bun:"reset_token,nullzero" json:"-"`
	ResetTokenExpiresAt *time.Time `bun:"reset_token_expires_at,nullzero" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Profile is the outward-facing projection of a User. It is the only shape
// handlers serialize, so hashes and tokens can never leak into a response.
type Profile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

// Profile returns the non-sensitive projection of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID.String(),
		Email:      u.Email,
		Name:       u.Name,
		IsVerified: u.EmailVerified,
	}
}

// HasPendingReset reports whether the user holds a reset token that has not
// expired as of now.
func (u *User) HasPendingReset(now time.Time) bool {
	if u.ResetToken == nil || u.ResetTokenExpiresAt == nil {
		return false
	}
	return u.ResetTokenExpiresAt.After(now)
}
