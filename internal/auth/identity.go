package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CredentialVerifier checks an email/password pair against the identity
// provider and returns the provider's user id.
type CredentialVerifier interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// IdentityClient verifies credentials against the Firebase Identity Toolkit
// REST endpoint using the project's web API key.
type IdentityClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewIdentityClient(apiKey string) *IdentityClient {
	return &IdentityClient{
		apiKey:  apiKey,
		baseURL: identityToolkitURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity toolkit request: %w", err)
	}
	defer resp.Body.Close()

	// The toolkit answers 400 for every credential problem
	// (EMAIL_NOT_FOUND, INVALID_PASSWORD, USER_DISABLED, ...).
	if resp.StatusCode == http.StatusBadRequest {
		return "", ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity toolkit returned status %d", resp.StatusCode)
	}

	var parsed signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode identity toolkit response: %w", err)
	}
	if parsed.LocalID == "" {
		return "", ErrInvalidCredentials
	}
	return parsed.LocalID, nil
}
