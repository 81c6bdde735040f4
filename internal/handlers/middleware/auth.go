package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/surgeseven/settlement/internal/handlers/render"
	"github.com/surgeseven/settlement/internal/handlers/userctx"
	"github.com/surgeseven/settlement/internal/models"
)

// AccessTokenClaims mirror what the identity service puts into access
// tokens: the user id, email and staff flag.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
	Staff  bool      `json:"staff"`
}

// AuthMiddleware verifies the bearer token and puts the caller identity
// into the request context.
func AuthMiddleware(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromRequest(r, secretKey)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffMiddleware rejects non-staff callers. Must run after AuthMiddleware.
func StaffMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.FromContext(r.Context())
			if !ok || !user.Staff {
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func userFromRequest(r *http.Request, secretKey string) (models.User, error) {
	var user models.User

	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return user, fmt.Errorf("no bearer token in request")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return []byte(secretKey), nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return user, fmt.Errorf("parse access token: %w", err)
	}

	user.ID = claims.UserID
	user.Email = claims.Email
	user.Staff = claims.Staff

	return user, nil
}
