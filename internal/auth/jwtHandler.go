package auth

import (
	"errors"
	"net/http"
	"orderservice/internal/order/model/api"
	"orderservice/internal/utils"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const RoleAdmin = "admin"

var ErrNotAdmin = errors.New("token does not carry the admin role")

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GetAdminToken signs an admin token for subject. A zero ttl produces a token without expiry.
func GetAdminToken(subject string, secret string, ttl time.Duration) (string, error) {
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
}

func ParseAdminToken(str string, secret string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(
		str,
		&AdminClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok {
		return nil, errors.New("Couldn't parse claims")
	}
	if claims.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

// RequireAdmin rejects requests without a valid admin token. An empty secret disables the check.
func RequireAdmin(secret string, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := utils.BearerToken(r); token == "" {
				unauthorized(w, logger)
			} else if claims, err := ParseAdminToken(token, secret); err != nil {
				logger.Infow("admin token rejected", "path", r.URL.Path, "error", err)
				unauthorized(w, logger)
			} else {
				logger.Debugw("admin request", "subject", claims.Subject, "path", r.URL.Path)
				next.ServeHTTP(w, r)
			}
		})
	}
}

func unauthorized(w http.ResponseWriter, logger *zap.SugaredLogger) {
	if err := utils.WriteJSON(w, http.StatusUnauthorized, api.Fail("Not Authorized Login Again")); err != nil {
		logger.Errorw("failed to write response", "error", err)
	}
}
