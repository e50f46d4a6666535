package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/repository"
)

const defaultSessionPrefix = "records:session"

// SessionStore keeps login sessions as Redis hashes expiring with the session.
type SessionStore struct {
	client *red.Client
	prefix string
}

// NewSessionStore constructs a Redis-backed session store.
func NewSessionStore(client *red.Client, keyPrefix string) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

// Save writes the session and sets its expiry.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	key := s.key(session.ID)
	if key == "" {
		return fmt.Errorf("session id is required")
	}
	if session.ExpiresAt.IsZero() {
		return fmt.Errorf("session expiry is required")
	}

	fields := map[string]any{
		"principal_id": session.PrincipalID,
		"role":         string(session.Role),
		"created_at":   strconv.FormatInt(session.CreatedAt.UnixNano(), 10),
		"expires_at":   strconv.FormatInt(session.ExpiresAt.UnixNano(), 10),
	}
	if session.IP != nil {
		fields["ip"] = *session.IP
	}
	if session.UserAgent != nil {
		fields["user_agent"] = *session.UserAgent
	}

	_, err := s.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.ExpireAt(ctx, key, session.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

// Get loads a session; repository.ErrNotFound when it expired or was deleted.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	key := s.key(sessionID)
	if key == "" {
		return nil, repository.ErrNotFound
	}

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load session: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	createdAt, err := parseUnixNano(values["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	expiresAt, err := parseUnixNano(values["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("parse session expires_at: %w", err)
	}

	session := &domain.Session{
		ID:          sessionID,
		PrincipalID: values["principal_id"],
		Role:        domain.Role(values["role"]),
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}
	if ip, ok := values["ip"]; ok {
		session.IP = &ip
	}
	if ua, ok := values["user_agent"]; ok {
		session.UserAgent = &ua
	}
	return session, nil
}

// Delete removes the session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	key := s.key(sessionID)
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func parseUnixNano(value string) (time.Time, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}

var _ port.SessionStore = (*SessionStore)(nil)
