package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/arklim/campus-records/internal/core/domain"
)

var (
	// ErrInvalidSessionToken indicates the token is malformed or its signature does not verify.
	ErrInvalidSessionToken = errors.New("jwt: invalid session token")
	// ErrExpiredSessionToken indicates the token is past its expiry.
	ErrExpiredSessionToken = errors.New("jwt: session token expired")
)

const minSigningSecretLength = 32

// SessionClaims binds a signed token to a server-side session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// SessionTokenManager signs and verifies HS256 session tokens.
type SessionTokenManager struct {
	secret   []byte
	issuer   string
	audience string
}

// NewSessionTokenManager validates the secret and builds a manager.
func NewSessionTokenManager(secret, issuer string) (*SessionTokenManager, error) {
	if len(secret) < minSigningSecretLength {
		return nil, fmt.Errorf("jwt: signing secret must be at least %d bytes", minSigningSecretLength)
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, fmt.Errorf("jwt: issuer is required")
	}
	return &SessionTokenManager{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: issuer,
	}, nil
}

// Sign issues a token referencing session. The token expires with the session.
func (m *SessionTokenManager) Sign(session domain.Session) (string, error) {
	if strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.PrincipalID) == "" {
		return "", fmt.Errorf("jwt: session id and principal id are required")
	}

	issuedAt := session.CreatedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	claims := SessionClaims{
		SessionID: session.ID,
		Role:      session.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.PrincipalID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims.
func (m *SessionTokenManager) Parse(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidSessionToken
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithAudience(m.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredSessionToken
		}
		return nil, ErrInvalidSessionToken
	}
	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidSessionToken
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, ErrInvalidSessionToken
	}

	return claims, nil
}
