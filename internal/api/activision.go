package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"warzone-tracker/internal/config"
	"warzone-tracker/internal/stats"
)

const baseURL = "https://my.callofduty.com/api/papi-client"
const publicBaseURL = "https://www.callofduty.com/api/papi-client"

// Classified upstream failures. Anything not matching one of these is
// treated as transient and eligible for retry.
var (
	ErrPlayerNotFound  = errors.New("player not found upstream")
	ErrPrivateAccount  = errors.New("player account is private")
	ErrSessionExpired  = errors.New("upstream session cookies invalid or expired")
	ErrInvalidMatchID  = errors.New("invalid match id")
	ErrUpstreamFailure = errors.New("upstream request failed")
)

// Client talks to the Activision API. The protected endpoints authenticate
// with session cookies captured from a logged-in activision.com session and
// passed in through the config.
type Client struct {
	cookieHeader string
	client       *fasthttp.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cookieHeader: fmt.Sprintf("ACT_SSO_COOKIE=%s; ACT_SSO_COOKIE_EXPIRY=%s; atkn=%s;",
			cfg.ActSSOCookie, cfg.ActSSOCookieExpiry, cfg.ActToken),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// envelope is the outer {status, data} wrapper every upstream response uses.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type envelopeError struct {
	Message string `json:"message"`
}

// LastGamesData is the payload of a last-games page.
type LastGamesData struct {
	Matches []stats.RawMatch           `json:"matches"`
	Summary map[string]json.RawMessage `json:"summary"`
}

// LifetimeData is the lifetime + weekly payload. It stays opaque to the
// aggregation core; only the br lifetime block is required to exist.
type LifetimeData struct {
	Lifetime json.RawMessage `json:"lifetime"`
	Weekly   json.RawMessage `json:"weekly"`
}

// FullMatchData is the payload of a public full-match lookup. Each entry of
// allPlayers has the same nested shape as a history entry.
type FullMatchData struct {
	AllPlayers []stats.RawMatch `json:"allPlayers"`
}

// GetLastGames fetches the player's most recent matches page (protected).
func (c *Client) GetLastGames(ctx context.Context, platform, username string) (*LastGamesData, error) {
	url := fmt.Sprintf("%s/crm/cod/v2/title/mw/platform/%s/gamer/%s/matches/wz/start/0/end/0/details",
		baseURL, platform, encodeUsername(platform, username))
	return doRequest[LastGamesData](ctx, c, url, true)
}

// GetLastGamesBefore fetches the matches page ending at the given epoch
// milliseconds, used to page backwards through a player's history.
func (c *Client) GetLastGamesBefore(ctx context.Context, platform, username string, beforeMillis int64) (*LastGamesData, error) {
	url := fmt.Sprintf("%s/crm/cod/v2/title/mw/platform/%s/gamer/%s/matches/wz/start/0/end/%d/details",
		baseURL, platform, encodeUsername(platform, username), beforeMillis)
	return doRequest[LastGamesData](ctx, c, url, true)
}

// GetLifetime fetches the lifetime + weekly stats blob (protected).
func (c *Client) GetLifetime(ctx context.Context, platform, username string) (*LifetimeData, error) {
	url := fmt.Sprintf("%s/stats/cod/v1/title/mw/platform/%s/gamer/%s/profile/type/wz",
		baseURL, platform, encodeUsername(platform, username))
	return doRequest[LifetimeData](ctx, c, url, true)
}

// GetFullMatch fetches every player's stats for one match (public, no
// session needed).
func (c *Client) GetFullMatch(ctx context.Context, matchID string) (*FullMatchData, error) {
	url := fmt.Sprintf("%s/crm/cod/v2/title/mw/platform/battle/fullMatch/wz/%s/it", publicBaseURL, matchID)
	data, err := doRequest[FullMatchData](ctx, c, url, false)
	if err != nil {
		return nil, err
	}
	if len(data.AllPlayers) == 0 {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrInvalidMatchID)
	}
	return data, nil
}

func doRequest[T any](ctx context.Context, c *Client, url string, protected bool) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if protected {
		req.Header.Set("Cookie", c.cookieHeader)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamFailure, resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrUpstreamFailure, err)
	}
	if env.Status == "error" {
		return nil, classifyEnvelopeError(env.Data)
	}

	var result T
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrUpstreamFailure, err)
	}
	return &result, nil
}

// classifyEnvelopeError maps the upstream's in-band error messages onto the
// package's sentinel errors. Unknown messages come back as transient.
func classifyEnvelopeError(data json.RawMessage) error {
	var payload envelopeError
	_ = json.Unmarshal(data, &payload)

	switch payload.Message {
	case "Not permitted: user not found":
		return ErrPlayerNotFound
	case "Not permitted: not allowed":
		return ErrPrivateAccount
	case "Not permitted: not authenticated":
		return ErrSessionExpired
	}
	return fmt.Errorf("%w: %s", ErrUpstreamFailure, payload.Message)
}

// IsPermanent reports whether an upstream error is not worth retrying.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrPrivateAccount) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrInvalidMatchID)
}

// encodeUsername escapes the '#' in battle.net handles; other platforms use
// usernames verbatim.
func encodeUsername(platform, username string) string {
	if platform != "battle" {
		return username
	}
	return strings.Replace(username, "#", "%23", 1)
}
