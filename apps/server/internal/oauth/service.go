package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// ErrMissingCode is returned when a callback carries no authorization code.
var ErrMissingCode = errors.New("missing code parameter")

// ErrUnknownState is returned when a callback's state was never issued or
// has already been used.
var ErrUnknownState = errors.New("unknown or expired oauth state")

// ExchangeError wraps a failed code-for-token exchange with the identity provider.
type ExchangeError struct {
	Err error
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange code for token: %v", e.Err)
}

// Unwrap returns the underlying oauth2 error.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// StateStore issues single-use anti-forgery state values.
type StateStore interface {
	Save(ctx context.Context, state string) error
	// Consume deletes state and reports whether it existed.
	Consume(ctx context.Context, state string) (bool, error)
}

// Config identifies the OAuth application. AuthURL and TokenURL default to
// github.com and are overridable for GitHub Enterprise or a local mock.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// Service runs the authorization-code flow that yields the access token
// clients then send as their conversion credential.
type Service struct {
	oauth  *oauth2.Config
	states StateStore
	log    *slog.Logger
}

// NewService creates a Service. states may be nil, in which case state values
// are issued but not verified.
func NewService(cfg Config, states StateStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"repo"}
	}
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		states: states,
		log:    log,
	}
}

// LoginURL returns the provider's authorization URL with a fresh state.
func (s *Service) LoginURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if s.states != nil {
		if err := s.states.Save(ctx, state); err != nil {
			return "", fmt.Errorf("save oauth state: %w", err)
		}
	}
	return s.oauth.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for an access token. When a state
// store is configured every callback must present a state it issued; a
// missing state is rejected like an unknown one.
func (s *Service) Exchange(ctx context.Context, code, state string) (string, error) {
	if code == "" {
		return "", ErrMissingCode
	}
	if s.states != nil {
		if state == "" {
			return "", ErrUnknownState
		}
		ok, err := s.states.Consume(ctx, state)
		if err != nil {
			return "", fmt.Errorf("consume oauth state: %w", err)
		}
		if !ok {
			return "", ErrUnknownState
		}
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", &ExchangeError{Err: err}
	}
	s.log.Info("oauth code exchanged", "tokenType", tok.TokenType)
	return tok.AccessToken, nil
}
