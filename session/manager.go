package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager moves sessions between the Store and the session cookie. The cookie
// holds an HS256 token whose jti is the session id and whose exp matches the
// server-side expiry.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	log        *slog.Logger
	now        func() time.Time
}

func NewManager(store Store, secret []byte, ttl time.Duration, cookieName string, log *slog.Logger) *Manager {
	return &Manager{
		store:      store,
		secret:     secret,
		ttl:        ttl,
		cookieName: cookieName,
		log:        log,
		now:        time.Now,
	}
}

// RandomSecret returns a signing key for processes started without SESSION_SECRET.
func RandomSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("session.RandomSecret: %w", err)
	}
	return secret, nil
}

// Load returns the request's session, or a new empty one when the cookie is
// missing, forged, expired or points at a session the store no longer has.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}

	id, err := m.parseToken(cookie.Value)
	if err != nil {
		m.log.Debug("rejecting session cookie", slog.Any("error", err))
		return &Session{}
	}

	data, err := m.store.Load(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Warn("failed to load session", slog.Any("error", err))
		}
		return &Session{}
	}

	return &Session{id: id, data: data}
}

// Save persists changes made to s and updates the cookie. It must run before
// the response headers are written.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	const op = "session.Manager.Save"
	ctx := r.Context()

	if s.staleID != "" {
		if err := m.store.Delete(ctx, s.staleID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.staleID = ""
	}

	if !s.dirty {
		return nil
	}

	if s.data.empty() {
		if s.id != "" {
			if err := m.store.Delete(ctx, s.id); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			s.id = ""
		}
		m.expireCookie(w)
		s.dirty = false
		return nil
	}

	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.data.ExpiresAt = m.now().Add(m.ttl).UTC()

	if err := m.store.Save(ctx, s.id, s.data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := m.signToken(s.id, s.data.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.dirty = false
	return nil
}

func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) signToken(id string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(m.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.ID == "" {
		return "", errors.New("token expired or invalid")
	}
	return claims.ID, nil
}
