package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/titan3755/photobytes-blog/internal/models"
)

var jwtSecret string

func InitJWTSecret() error {
	jwtSecret = os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}

// TokenClaims is the credential snapshot embedded in the session token. It
// is a cached copy of the authorization-relevant columns of the user row;
// SessionVersion tells us whether that copy is still current.
type TokenClaims struct {
	UserID         uint      `json:"user_id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Image          string    `json:"image"`
	Role           string    `json:"role"`
	CanComment     bool      `json:"can_comment"`
	SessionVersion int       `json:"session_version"`
	CreatedAt      time.Time `json:"member_since"`

	jwt.RegisteredClaims
}

// GenerateToken mints a signed token from the authoritative user record.
func GenerateToken(user *models.User) (string, error) {
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
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 168)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

func VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("Invalid or expired token")
	}

	claims, ok := token.Claims.(*TokenClaims)

	if !ok {
		return nil, fmt.Errorf("Invalid token claims")
	}

	return claims, nil
}
