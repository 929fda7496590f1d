package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const iamGrantType = "urn:ibm:params:oauth:grant-type:apikey"

// iamTokenSource exchanges an API key for a short-lived bearer token
type iamTokenSource struct {
	apiKey string
	url    string
	client *http.Client
}

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Expiration  int64  `json:"expiration"`
}

// NewIAMTokenSource returns a caching token source for apiKey. Tokens are
// refreshed shortly before they expire.
func NewIAMTokenSource(apiKey, iamURL string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &iamTokenSource{
		apiKey: apiKey,
		url:    iamURL,
		client: &http.Client{Timeout: 30 * time.Second},
	})
}

func (s *iamTokenSource) Token() (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", iamGrantType)
	form.Set("apikey", s.apiKey)

	req, err := http.NewRequest(http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("iam", resp)
	}

	var body iamTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("iam: empty access token")
	}

	tok := &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   "Bearer",
	}
	switch {
	case body.Expiration > 0:
		tok.Expiry = time.Unix(body.Expiration, 0)
	case body.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// newIAMClient returns an HTTP client that signs requests with IAM tokens.
func newIAMClient(apiKey, iamURL string, timeout time.Duration) *http.Client {
	client := oauth2.NewClient(context.Background(), NewIAMTokenSource(apiKey, iamURL))
	client.Timeout = timeout
	return client
}
