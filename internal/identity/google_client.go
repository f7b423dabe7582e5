package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"campaign-session/internal/config"
	"campaign-session/internal/entity"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/pkg/logger"
	"campaign-session/internal/tracer"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const ProviderGoogle = "google.com"

// GoogleClient signs in through the OAuth2 authorization code flow with a
// loopback redirect, the desktop equivalent of a provider popup.
type GoogleClient struct {
	oauth       oauth2.Config
	userInfoURL string
	revokeURL   string
	host        string
	timeout     time.Duration
	opener      URLOpener
	httpClient  *http.Client
	bus         *ChangeBus
	log         logger.ILogger

	mu    sync.Mutex
	token *oauth2.Token
}

type GoogleOption func(*GoogleClient)

func WithHTTPClient(client *http.Client) GoogleOption {
	return func(c *GoogleClient) { c.httpClient = client }
}

func WithURLOpener(opener URLOpener) GoogleOption {
	return func(c *GoogleClient) { c.opener = opener }
}

func NewGoogleClient(cfg config.OAuthConfig, bus *ChangeBus, log logger.ILogger, opts ...GoogleOption) *GoogleClient {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	c := &GoogleClient{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		revokeURL:   cfg.RevokeURL,
		host:        cfg.CallbackHost,
		timeout:     time.Duration(cfg.SignInTimeoutSeconds) * time.Second,
		opener:      NewBrowserOpener(log),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		bus:         bus,
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *GoogleClient) SignInInteractive(ctx context.Context) (*entity.ExternalIdentity, error) {
	ctx, span := tracer.Tracer("identity").Start(ctx, "GoogleClient.SignInInteractive")
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(c.host, "0"))
	if err != nil {
		return nil, apperror.ProviderFailure(fmt.Errorf("open callback listener: %w", err))
	}
	callback := newCallbackServer(ln)
	go callback.serve()
	defer callback.shutdown()

	conf := c.oauth
	conf.RedirectURL = "http://" + ln.Addr().String() + callbackPath
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	if err := c.opener.Open(ctx, authURL); err != nil {
		return nil, apperror.ProviderFailure(fmt.Errorf("open consent page: %w", err))
	}

	var result callbackResult
	select {
	case <-ctx.Done():
		return nil, apperror.Cancelled(ctx.Err())
	case result = <-callback.results:
	}

	switch {
	case result.errCode == "access_denied":
		return nil, apperror.Cancelled(errors.New("consent denied"))
	case result.errCode != "":
		return nil, apperror.ProviderFailure(fmt.Errorf("provider returned %s", result.errCode))
	case result.state != state:
		return nil, apperror.ProviderFailure(errors.New("state mismatch on callback"))
	case result.code == "":
		return nil, apperror.ProviderFailure(errors.New("callback carried no code"))
	}

	httpCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.Exchange(httpCtx, result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperror.Cancelled(ctx.Err())
		}
		return nil, apperror.ProviderFailure(fmt.Errorf("exchange code: %w", err))
	}

	identity, err := c.resolveIdentity(httpCtx, &conf, token)
	if err != nil {
		return nil, apperror.ProviderFailure(err)
	}
	span.SetAttributes(attribute.String("identity.uid", identity.UID))

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if err := c.bus.Set(identity); err != nil {
		c.log.Warn("IdentityClient", "Failed to publish identity change", map[string]interface{}{"error": err.Error()})
	}
	c.log.Info("IdentityClient", "Signed in", map[string]interface{}{"uid": identity.UID, "email": identity.Email})
	return identity.Clone(), nil
}

type userInfo struct {
	ID          string `json:"id"`
	Sub         string `json:"sub"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture"`
	PhoneNumber string `json:"phone_number"`
}

// resolveIdentity prefers the userinfo endpoint and fills gaps from the
// id_token claims.
func (c *GoogleClient) resolveIdentity(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*entity.ExternalIdentity, error) {
	identity := &entity.ExternalIdentity{Provider: ProviderGoogle}

	if c.userInfoURL != "" {
		info, err := c.fetchUserInfo(ctx, conf, token)
		if err != nil {
			return nil, err
		}
		identity.UID = info.Sub
		if identity.UID == "" {
			identity.UID = info.ID
		}
		identity.Email = info.Email
		identity.DisplayName = info.Name
		identity.PhotoURL = info.Picture
		identity.PhoneNumber = info.PhoneNumber
	}

	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		claims, err := decodeIDToken(raw)
		if err != nil {
			c.log.Warn("IdentityClient", "Ignoring undecodable id_token", map[string]interface{}{"error": err.Error()})
		} else {
			claims.fill(identity)
		}
	}

	if identity.UID == "" {
		return nil, errors.New("provider returned no subject")
	}
	return identity, nil
}

func (c *GoogleClient) fetchUserInfo(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &info, nil
}

func (c *GoogleClient) SignOut(ctx context.Context) error {
	ctx, span := tracer.Tracer("identity").Start(ctx, "GoogleClient.SignOut")
	defer span.End()

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != nil && c.revokeURL != "" {
		if err := c.revoke(ctx, token); err != nil {
			return apperror.ProviderFailure(err)
		}
	}

	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()

	if err := c.bus.Set(nil); err != nil {
		c.log.Warn("IdentityClient", "Failed to publish identity change", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

func (c *GoogleClient) revoke(ctx context.Context, token *oauth2.Token) error {
	value := token.RefreshToken
	if value == "" {
		value = token.AccessToken
	}
	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request: %w", err)
	}
	defer resp.Body.Close()

	// 400 means the token is already invalid, which is what we wanted.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("revoke returned %d", resp.StatusCode)
	}
	return nil
}

func (c *GoogleClient) ObserveIdentityChanges(fn func(*entity.ExternalIdentity)) (Unsubscribe, error) {
	return c.bus.Observe(fn)
}

// CurrentIdentityToken refreshes an expired token on demand when a refresh
// token is held.
func (c *GoogleClient) CurrentIdentityToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return "", apperror.NotSignedIn()
	}

	if !c.token.Valid() {
		if c.token.RefreshToken == "" {
			return "", apperror.ProviderFailure(errors.New("token expired and no refresh token is held"))
		}
		httpCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
		fresh, err := c.oauth.TokenSource(httpCtx, c.token).Token()
		if err != nil {
			return "", apperror.ProviderFailure(fmt.Errorf("refresh token: %w", err))
		}
		c.token = fresh
	}

	if raw, ok := c.token.Extra("id_token").(string); ok && raw != "" {
		return raw, nil
	}
	return c.token.AccessToken, nil
}

func (c *GoogleClient) Current() *entity.ExternalIdentity {
	return c.bus.Current()
}
