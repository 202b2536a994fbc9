// Package directory talks to the external directory/messaging API that backs
// delivery: profile resolution, direct messages, and connection invites.
// Credentials (API key + account id) ride on every call.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/reachout/internal/metrics"
	"github.com/FranksOps/reachout/pkg/httpclient"
	"golang.org/x/time/rate"
)

// defaultJobTitle is used whenever a profile carries no usable title.
const defaultJobTitle = "Professional"

// Credentials authenticate every directory API call.
type Credentials struct {
	APIKey    string
	AccountID string
}

// Config defines the setup for the directory Client.
type Config struct {
	// DSN is the API host, e.g. "api.unipile.com".
	DSN         string
	Credentials Credentials
	Timeout     time.Duration
	// RequestsPerSecond bounds the API call rate independently of any batch
	// pacing. 0 disables the bound.
	RequestsPerSecond float64
	Logger            *slog.Logger
	// Transport overrides the HTTP transport, e.g. for tests.
	Transport http.RoundTripper
	// insecureBaseURL is set by tests to talk plain HTTP to a stub server.
	insecureBaseURL string
}

// Client is the directory/messaging API adapter.
type Client struct {
	cfg     Config
	base    string
	client  *httpclient.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a directory client for the given API host and credentials.
func New(cfg Config) (*Client, error) {
	if cfg.DSN == "" && cfg.insecureBaseURL == "" {
		return nil, fmt.Errorf("directory DSN is required")
	}
	if cfg.Credentials.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Credentials.AccountID == "" {
		return nil, fmt.Errorf("account id is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:   cfg.Timeout,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	base := cfg.insecureBaseURL
	if base == "" {
		base = "https://" + cfg.DSN
	}

	return &Client{
		cfg:     cfg,
		base:    base,
		client:  client,
		limiter: limiter,
		logger:  cfg.Logger,
	}, nil
}

// userResponse is the subset of the profile lookup response we read.
type userResponse struct {
	ProviderID string `json:"provider_id"`
	Headline   string `json:"headline"`
	Experience []struct {
		Title string `json:"title"`
	} `json:"experience"`
}

// lookupUser performs the shared GET behind ResolveProfile and JobTitle.
func (c *Client) lookupUser(ctx context.Context, username string) (*userResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("linkedin_sections", "*")
	params.Set("account_id", c.cfg.Credentials.AccountID)

	reqURL := fmt.Sprintf("%s/api/v1/users/%s?%s", c.base, url.PathEscape(username), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.cfg.Credentials.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req.Context(), req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("lookup returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	return &user, nil
}

// ResolveProfile queries the directory by username and returns the opaque
// provider id required to address the profile. A response without a
// provider_id field is a ResolutionError, same as a failed request.
func (c *Client) ResolveProfile(ctx context.Context, username string) (string, error) {
	user, err := c.lookupUser(ctx, username)
	if err != nil {
		metrics.RecordDirectoryCall("resolve", err)
		return "", &ResolutionError{Username: username, Reason: err.Error()}
	}

	if user.ProviderID == "" {
		err := &ResolutionError{Username: username, Reason: "could not find provider_id in the response"}
		metrics.RecordDirectoryCall("resolve", err)
		return "", err
	}

	metrics.RecordDirectoryCall("resolve", nil)
	return user.ProviderID, nil
}

// JobTitle returns the profile's most recent experience title, falling back
// to the headline and finally to a generic label. It is best-effort and
// never fails observably.
func (c *Client) JobTitle(ctx context.Context, username string) string {
	user, err := c.lookupUser(ctx, username)
	metrics.RecordDirectoryCall("job_title", err)
	if err != nil {
		c.logger.Debug("job title lookup failed", "username", username, "error", err)
		return defaultJobTitle
	}

	if len(user.Experience) > 0 && user.Experience[0].Title != "" {
		return user.Experience[0].Title
	}
	if user.Headline != "" {
		return user.Headline
	}
	return defaultJobTitle
}

// SendMessage attempts a direct message to the given provider id. Any
// non-2xx response is a DeliveryError; a rejection for "not connected" looks
// the same as any other failure and the caller falls back to an invite.
func (c *Client) SendMessage(ctx context.Context, providerID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("account_id", c.cfg.Credentials.AccountID)
	form.Set("text", text)
	form.Set("attendees_ids", providerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/chats", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.cfg.Credentials.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req.Context(), req)
	if err != nil {
		derr := &DeliveryError{Op: "message", Reason: err.Error()}
		metrics.RecordDirectoryCall("message", derr)
		return derr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		derr := &DeliveryError{Op: "message", StatusCode: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
		metrics.RecordDirectoryCall("message", derr)
		return derr
	}

	metrics.RecordDirectoryCall("message", nil)
	return nil
}

// SendInvite sends a connection request with an attached note.
func (c *Client) SendInvite(ctx context.Context, providerID, message string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"provider_id": providerID,
		"account_id":  c.cfg.Credentials.AccountID,
		"message":     message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal invite payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/users/invite", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.cfg.Credentials.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req.Context(), req)
	if err != nil {
		derr := &DeliveryError{Op: "invite", Reason: err.Error()}
		metrics.RecordDirectoryCall("invite", derr)
		return derr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		derr := &DeliveryError{Op: "invite", StatusCode: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
		metrics.RecordDirectoryCall("invite", derr)
		return derr
	}

	metrics.RecordDirectoryCall("invite", nil)
	return nil
}
