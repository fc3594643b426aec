package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"dreamcut-backend/internal/config"
	"dreamcut-backend/internal/models"
)

const UserIDKey = "user_id"

// AuthMiddleware verifies the Supabase session JWT (HS256) and stores the
// "sub" claim under UserIDKey. Every failure is a 401 with the same body.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := authenticate(c.GetHeader("Authorization"), cfg.SupabaseJWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Unauthorized",
				Message: err.Error(),
			})
			return
		}

		c.Set(UserIDKey, sub)
		c.Next()
	}
}

func authenticate(header, secret string) (string, error) {
	if header == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", errors.New("empty token")
	}

	// Some clients URL-encode the token.
	if decoded, err := url.QueryUnescape(tokenString); err == nil {
		tokenString = decoded
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		if secret == "" {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", errors.New("token has expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", errors.New("token signature is invalid")
		default:
			return "", errors.New("invalid token")
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if _, err := uuid.Parse(sub); err != nil {
		return "", errors.New("missing user id in token")
	}
	return sub, nil
}
