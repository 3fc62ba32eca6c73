package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	athleteIDContextKey contextKey = "athleteID"
	adminContextKey     contextKey = "admin"
)

// Config holds authentication configuration
type Config struct {
	JWTSecret string
	// AdminPasswordHash is a bcrypt hash; an empty hash disables the admin
	// endpoints entirely.
	AdminPasswordHash string
	SessionTTL        time.Duration
}

// Claims represents the session JWT claims. Athlete sessions carry the
// athlete ID; admin sessions carry the admin flag instead.
type Claims struct {
	AthleteID int64 `json:"athlete_id,omitempty"`
	Admin     bool  `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAthleteToken creates a session token for an athlete.
func GenerateAthleteToken(athleteID int64, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		AthleteID: athleteID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(athleteID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "stridestats",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateAdminToken creates a session token for the admin user.
func GenerateAdminToken(secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "stridestats",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a session token and returns its claims.
func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// AthleteMiddleware validates athlete session tokens and places the athlete
// ID on the request context.
func AthleteMiddleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFromRequest(w, r, config)
			if !ok {
				return
			}

			if claims.AthleteID == 0 {
				http.Error(w, "Athlete session required", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), athleteIDContextKey, claims.AthleteID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware validates admin session tokens.
func AdminMiddleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFromRequest(w, r, config)
			if !ok {
				return
			}

			if !claims.Admin {
				http.Error(w, "Admin session required", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFromRequest(w http.ResponseWriter, r *http.Request, config Config) (*Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		http.Error(w, "Authorization header required", http.StatusUnauthorized)
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
		return nil, false
	}

	claims, err := ValidateToken(parts[1], config.JWTSecret)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// AthleteIDFromContext extracts the athlete ID from the request context.
func AthleteIDFromContext(ctx context.Context) (int64, bool) {
	athleteID, ok := ctx.Value(athleteIDContextKey).(int64)
	return athleteID, ok
}

// IsAdmin reports whether the request context carries an admin session.
func IsAdmin(ctx context.Context) bool {
	admin, ok := ctx.Value(adminContextKey).(bool)
	return ok && admin
}
