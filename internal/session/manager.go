package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/swiftcourier/trackingserver/config"
	"github.com/swiftcourier/trackingserver/types"
)

const (
	defaultTTL        = 24 * time.Hour
	defaultCookieName = "courier.sid"
)

// Manager issues, resolves and destroys admin sessions. The cookie carries an
// HS256 token whose jti is the session id; the session itself stays in Store.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewManager(store Store, cfg config.SessionConfig) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(cfg.Secret),
		ttl:        ttl,
		cookieName: cookieName,
		secure:     cfg.Secure,
		now:        time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Establish starts an admin session for user and sets the session cookie.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, user types.User) (Session, error) {
	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		IsAdmin:   true,
		ExpiresAt: now.Add(m.ttl),
	}

	token, err := m.issueToken(s, now)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Resolve returns the live session referenced by the request cookie, or
// ErrNoSession.
func (m *Manager) Resolve(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return Session{}, ErrNoSession
	}

	claims, err := m.parseToken(cookie.Value)
	if err != nil {
		return Session{}, ErrNoSession
	}

	s, err := m.store.Get(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, err
	}
	if s.Expired(m.now()) || strconv.Itoa(s.UserID) != claims.Subject {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Destroy removes the session referenced by the request, if any, and expires
// the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		if claims, err := m.parseToken(cookie.Value); err == nil {
			if err := m.store.Delete(ctx, claims.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) issueToken(s Session, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   strconv.Itoa(s.UserID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parseToken(tokenString string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return jwt.RegisteredClaims{}, err
	}
	if !token.Valid {
		return jwt.RegisteredClaims{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.ID) == "" {
		return jwt.RegisteredClaims{}, errors.New("missing session id")
	}
	return claims, nil
}
