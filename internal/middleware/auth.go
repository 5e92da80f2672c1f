package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"editify-backend/internal/config"
	"editify-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	UserIDKey = "user_id"
	EmailKey  = "email"
)

var ErrNoUser = errors.New("user id not found")

func unauthorized(c *gin.Context, errMsg, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: errMsg, Message: message})
}

// AuthMiddleware validates a Supabase HS256 access token and stores the
// subject (and email, when present) in the gin context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header", "")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "invalid authorization header format", "")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(c, "empty token", "")
			return
		}

		// Some clients URL-encode the token.
		if decoded, err := url.QueryUnescape(tokenString); err == nil {
			tokenString = decoded
		}

		if strings.Count(tokenString, ".") != 2 {
			unauthorized(c, "invalid token format", "JWT token must have 3 parts separated by dots")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if cfg.SupabaseJWTSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.SupabaseJWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			var message string
			switch {
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				message = "token signature is invalid - check JWT secret"
			case errors.Is(err, jwt.ErrTokenExpired):
				message = "token has expired"
			case errors.Is(err, jwt.ErrTokenMalformed):
				message = "token is malformed - ensure you're using a valid Supabase JWT token"
			default:
				message = err.Error()
			}
			unauthorized(c, "invalid token", message)
			return
		}
		if !token.Valid {
			unauthorized(c, "invalid token", "")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			unauthorized(c, "missing user id in token", "")
			return
		}

		c.Set(UserIDKey, sub)
		if email, ok := claims["email"].(string); ok {
			c.Set(EmailKey, email)
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id as a UUID.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, ErrNoUser
	}
	s, _ := raw.(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
