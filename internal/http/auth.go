package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

type Claims struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.StandardClaims
}

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller.
type Identity struct {
	UserID  string
	IsAdmin bool
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// GenerateToken signs an HS256 token for userID valid for ttl.
func (a *Authenticator) GenerateToken(userID string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// identify reads the bearer token. A missing header yields (nil, nil).
func (a *Authenticator) identify(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return nil, errors.New("malformed authorization header")
	}

	claims, err := a.parseToken(parts[1])
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin}, nil
}

// OptionalAuth attaches the caller identity when a valid token is sent.
// An invalid token is still rejected.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "not authorized, token failed")
			return
		}
		if id != nil {
			r = r.WithContext(withIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "not authorized, token failed")
			return
		}
		if id == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "not authorized, no token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identityFromContext(r.Context())
		if id == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "not authorized, no token")
			return
		}
		if !id.IsAdmin {
			respondError(w, http.StatusForbidden, "forbidden", "not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func identityFromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey).(*Identity); ok {
		return id
	}
	return nil
}

func getUserIDFromContext(ctx context.Context) string {
	if id := identityFromContext(ctx); id != nil {
		return id.UserID
	}
	return ""
}
