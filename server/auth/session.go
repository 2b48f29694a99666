package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
	"github.com/neothink-dao/platform-bridge/store/cache"
)

// Session is an authenticated user session held by the bridge.
type Session struct {
	UserID    string
	Email     string
	Platforms []platform.ID
	CreatedTs int64
}

// TokenPair is what a sign-in or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// SessionStore tracks refresh sessions. Refresh tokens are stored
// hashed; the plaintext token exists only in the client's hands.
type SessionStore struct {
	signer   *Signer
	sessions *cache.Cache
}

// NewSessionStore creates a session store backed by an in-memory cache
// with per-session TTL.
func NewSessionStore(signer *Signer) *SessionStore {
	return &SessionStore{
		signer: signer,
		sessions: cache.New(cache.Config{
			DefaultTTL:      RefreshTokenDuration,
			CleanupInterval: time.Hour,
		}),
	}
}

// SignIn opens a session and returns a fresh token pair.
func (s *SessionStore) SignIn(ctx context.Context, userID, email string, platforms []platform.ID) (*TokenPair, error) {
	session := &Session{
		UserID:    userID,
		Email:     email,
		Platforms: platforms,
		CreatedTs: time.Now().Unix(),
	}
	return s.issue(ctx, session)
}

// Refresh rotates the session: the presented refresh token is
// invalidated and a new pair is issued.
func (s *SessionStore) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	key := hashToken(refreshToken)
	value, ok := s.sessions.Get(ctx, key)
	if !ok {
		return nil, ErrInvalidToken
	}
	session, ok := value.(*Session)
	if !ok {
		return nil, ErrInvalidToken
	}

	s.sessions.Delete(ctx, key)
	return s.issue(ctx, session)
}

// SignOut invalidates the refresh session. Unknown tokens are a no-op.
func (s *SessionStore) SignOut(ctx context.Context, refreshToken string) {
	s.sessions.Delete(ctx, hashToken(refreshToken))
}

// Current verifies an access token and returns its session view.
func (s *SessionStore) Current(accessToken string) (*Session, error) {
	claims, err := s.signer.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:    claims.UserID(),
		Email:     claims.Email,
		Platforms: claims.AppMetadata.Platforms,
		CreatedTs: claims.IssuedAt.Unix(),
	}, nil
}

// Close releases the underlying cache.
func (s *SessionStore) Close() {
	s.sessions.Close()
}

func (s *SessionStore) issue(ctx context.Context, session *Session) (*TokenPair, error) {
	accessToken, err := s.signer.GenerateAccessToken(session.UserID, session.Email, session.Platforms)
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}
	s.sessions.Set(ctx, hashToken(refreshToken), session)

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(AccessTokenDuration.Seconds()),
	}, nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate refresh token")
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}
