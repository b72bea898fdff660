// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Authorizer answers whether a presented secret grants admin access.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (bool, error)
}

// KeycloakClient validates admin bearer tokens against Keycloak's token
// introspection endpoint using the client credentials flow.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

type introspectionResponse struct {
	Active bool   `json:"active"`
	Scope  string `json:"scope"`
}

// Authorize introspects the token. An inactive token is a clean "no", not an
// error; transport failures are errors so callers can distinguish an outage
// from a rejection.
func (k *KeycloakClient) Authorize(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to create introspection request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to execute introspection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("keycloak introspection failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result introspectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode introspection response: %w", err)
	}

	return result.Active, nil
}

// StaticAuthorizer grants access for an exact secret match. Used in tests and
// local development where no Keycloak realm is available.
type StaticAuthorizer struct {
	Secret string
}

func (s *StaticAuthorizer) Authorize(_ context.Context, token string) (bool, error) {
	return s.Secret != "" && token == s.Secret, nil
}
