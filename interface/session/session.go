package session

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/terralens/imagequery/query"
	"github.com/terralens/imagequery/service/log"
)

// Config of the authentication endpoint
type Config struct {
	TokenURL string
	ClientID string
	Username string
	Password string
}

// Session is an authenticated session against a catalog service. It owns a
// self-refreshing token source; the query layer only consumes bearer tokens
// and never manages the session lifecycle.
type Session struct {
	source oauth2.TokenSource
}

// New opens a session with the resource-owner-password grant
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("session.New: TokenURL undefined")
	}
	conf := &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{TokenURL: cfg.TokenURL},
	}
	token, err := conf.PasswordCredentialsToken(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("session.New: %w", err)
	}
	log.Logger(ctx).Sugar().Debugf("session opened against %s", cfg.TokenURL)

	// TokenSource refreshes the token with the refresh_token when it expires
	return &Session{source: conf.TokenSource(ctx, token)}, nil
}

// Static returns a session holding a fixed pre-acquired token
func Static(token string) *Session {
	return &Session{source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})}
}

// Token returns the current bearer token, refreshing it if needed
func (s *Session) Token(ctx context.Context) (string, error) {
	if s == nil || s.source == nil {
		return "", query.ErrAuthenticationRequired{Reason: "no session"}
	}
	token, err := s.source.Token()
	if err != nil {
		return "", query.ErrAuthenticationRequired{Reason: err.Error()}
	}
	if !token.Valid() {
		return "", query.ErrAuthenticationRequired{Reason: "token expired"}
	}
	return token.AccessToken, nil
}
