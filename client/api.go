package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/universitydao/walletauth/core"
)

// AuthAPI is the server side of the login flow
type AuthAPI interface {
	Nonce(ctx context.Context) (string, error)
	Verify(ctx context.Context, assertion core.SignedAssertion) (*VerifyResult, error)
}

// VerifyResult is the server answer to a verified assertion
type VerifyResult struct {
	JWT     string `json:"jwt"`
	Address string `json:"address"`
}

// APIError is a non-2xx answer from the auth server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth server returned %d: %s", e.StatusCode, e.Message)
}

// HTTPAuthAPI talks to the auth endpoints over HTTP
type HTTPAuthAPI struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAuthAPI creates a client for the server at baseURL (without the /auth suffix)
func NewHTTPAuthAPI(baseURL string, httpClient *http.Client) *HTTPAuthAPI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPAuthAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

func (a *HTTPAuthAPI) Nonce(ctx context.Context) (string, error) {
	var out struct {
		Nonce string `json:"nonce"`
	}
	if err := a.do(ctx, http.MethodGet, "/auth/nonce", nil, &out); err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	return out.Nonce, nil
}

func (a *HTTPAuthAPI) Verify(ctx context.Context, assertion core.SignedAssertion) (*VerifyResult, error) {
	body := map[string]string{
		"address":   assertion.Address,
		"nonce":     assertion.Nonce,
		"signature": assertion.Signature,
	}

	out := &VerifyResult{}
	if err := a.do(ctx, http.MethodPost, "/auth/verify", body, out); err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}
	return out, nil
}

func (a *HTTPAuthAPI) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
