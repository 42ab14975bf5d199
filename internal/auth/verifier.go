// Package auth verifies bearer credentials against the external identity
// service.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/Oliverpt-1/Thymos/internal/config"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

// Verifier resolves a bearer token to a user identifier
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// HTTPVerifier verifies tokens against a GoTrue-compatible identity service.
// Positive results are cached for a short TTL so a burst of API calls with
// the same session does not hammer the identity service.
type HTTPVerifier struct {
	client     *retryablehttp.Client
	baseURL    string
	serviceKey string
	tokens     *cache.Cache
	logger     *logrus.Logger
}

// userResponse is the subset of the identity service payload we need
type userResponse struct {
	ID string `json:"id"`
}

// NewHTTPVerifier creates a verifier from configuration
func NewHTTPVerifier(cfg *config.AuthConfig, logger *logrus.Logger) *HTTPVerifier {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	return &HTTPVerifier{
		client:     client,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		tokens:     cache.New(ttl, ttl*2),
		logger:     logger,
	}
}

// Verify resolves the token to a user ID, consulting the cache first.
// An empty token and a rejected token both map to models.ErrUnauthorized.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", models.ErrUnauthorized
	}

	if userID, found := v.tokens.Get(token); found {
		return userID.(string), nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.serviceKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", models.ErrUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("identity service returned status %d: %s", resp.StatusCode, string(body))
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("failed to decode identity response: %w", err)
	}
	if user.ID == "" {
		return "", models.ErrUnauthorized
	}

	v.tokens.SetDefault(token, user.ID)

	v.logger.WithField("user_id", user.ID).Debug("Bearer token verified")

	return user.ID, nil
}

// BearerToken extracts the credential from an Authorization header value.
// Returns the empty string when the header is missing or malformed.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
