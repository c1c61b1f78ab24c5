package auth

import (
	"errors"
	"log"

	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/models"
	"gorm.io/gorm"
)

// ErrUserGone means the account behind a still-valid token no longer exists.
// The credential must be treated as revoked, never served stale.
var ErrUserGone = errors.New("user no longer exists")

// CheckFreshness is the cheap liveness check run on every authenticated
// request. It reads only the session_version column and compares it to the
// value cached in the token; on a match the claims are served as-is with no
// further I/O, on a mismatch the full refresh path rebuilds the credential.
//
// A transient error on the version read is logged and the cached claims are
// served for one more request: every mutation point bumps the counter, so
// staleness is bounded by the next successful check.
//
// The returned token is empty unless a refresh minted a new credential.
func CheckFreshness(claims *TokenClaims) (*TokenClaims, string, error) {
	var current struct{ SessionVersion int }

	err := db.DB.Model(&models.User{}).
		Select("session_version").
		Where("id = ?", claims.UserID).
		First(&current).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserGone
		}
		log.Printf("Session liveness check failed for user %d, serving cached claims: %v", claims.UserID, err)
		return claims, "", nil
	}

	// Strict equality: any mismatch triggers a refresh, including an
	// apparent rollback, which should not occur under bump discipline.
	if current.SessionVersion == claims.SessionVersion {
		return claims, "", nil
	}

	return Refresh(claims.UserID)
}

// Refresh rebuilds the credential from the authoritative user row and mints
// a new token, bypassing the version comparison. Clients call this directly
// (via POST /api/auth/refresh) when they know their session is stale, e.g.
// right after seeing their blogger application approved.
func Refresh(userID uint) (*TokenClaims, string, error) {
	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserGone
		}
		return nil, "", err
	}

	token, err := GenerateToken(&user)

	if err != nil {
		return nil, "", err
	}

	claims := TokenClaims{
		UserID:         user.ID,
		Name:           user.Name,
		Username:       user.Username,
		Email:          user.Email,
		Image:          user.Image,
		Role:           user.Role,
		CanComment:     user.CanComment,
		SessionVersion: user.SessionVersion,
		CreatedAt:      user.CreatedAt,
	}

	return &claims, token, nil
}

// BumpSessionVersion invalidates every live token for a user. Callers run it
// inside the same transaction as the mutation that made the tokens stale.
// The increment is a single SQL expression, not read-then-write, so two
// overlapping admin actions both land.
func BumpSessionVersion(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("session_version", gorm.Expr("session_version + ?", 1)).Error
}
