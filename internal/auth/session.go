package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMalformedCookie = errors.New("malformed session cookie")
)

type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CookieValue is the opaque value stored in the client cookie.
func (s *Session) CookieValue() string {
	return fmt.Sprintf("%d:%s", s.UserID, s.ID)
}

// ParseCookieValue splits "<userID>:<sessionID>".
func ParseCookieValue(value string) (int64, string, error) {
	userPart, sessionID, ok := strings.Cut(value, ":")
	if !ok || sessionID == "" {
		return 0, "", ErrMalformedCookie
	}
	userID, err := strconv.ParseInt(userPart, 10, 64)
	if err != nil || userID <= 0 {
		return 0, "", ErrMalformedCookie
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return 0, "", ErrMalformedCookie
	}
	return userID, sessionID, nil
}

func sessionKey(userID int64, sessionID string) string {
	return fmt.Sprintf("session:%d:%s", userID, sessionID)
}

// Store keeps sessions in Redis under session:<userID>:<sessionID>.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) Create(ctx context.Context, userID int64, email, name, role string) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(userID, session.ID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

func (s *Store) Get(ctx context.Context, userID int64, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *Store) Delete(ctx context.Context, userID int64, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(userID, sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAll removes every session of a user and returns how many were removed.
func (s *Store) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	pattern := fmt.Sprintf("session:%d:*", userID)

	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan sessions: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete sessions: %w", err)
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
