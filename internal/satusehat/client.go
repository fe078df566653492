// Package satusehat talks to the SATUSEHAT FHIR exchange: one client for
// authenticated resource calls and one token source for the OAuth2
// client-credentials grant behind them.
package satusehat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adisantoso/klinika-platform/pkg/logging"
)

// nikSystem is the identifier system for national identity numbers on the
// platform's patient directory.
const nikSystem = "https://fhir.kemkes.go.id/id/nik"

// ErrUnauthorized marks a call the platform rejected for credential
// reasons. Callers match it with errors.Is through any wrapping.
var ErrUnauthorized = errors.New("satusehat: unauthorized")

// Response is the uniform envelope every resource call resolves to. The
// client never returns transport errors to callers; failures are folded
// into the envelope so the orchestrator sees one shape.
type Response struct {
	Success    bool
	StatusCode int
	Body       json.RawMessage
}

// ResourceID extracts the created resource's id from the response body.
func (r Response) ResourceID() string {
	var resource struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(r.Body, &resource); err != nil {
		return ""
	}
	return resource.ID
}

// Config holds configuration for the platform client.
type Config struct {
	BaseURL string // e.g. "https://api-satusehat.kemkes.go.id/fhir-r4/v1"
	Tokens  TokenSource
	Timeout time.Duration
	Logger  *logging.Logger
}

// Client is the typed HTTP transport to the platform's resource endpoint.
// It injects the bearer token, negotiates content types and bounds every
// call with the configured timeout. It never retries; retry policy belongs to
// the caller.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a platform client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("satusehat: BaseURL is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("satusehat: Tokens is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:     cfg.Tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Send performs one resource call. path is relative to the FHIR base URL
// ("/Encounter", "/Patient?identifier=..."). A nil body sends no payload.
// When no token can be obtained the call short-circuits with a synthetic
// 401 envelope and no network traffic.
func (c *Client) Send(ctx context.Context, method, path string, body any) Response {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("satusehat call aborted, no token", "method", method, "path", path, "error", err)
		return errResponse(http.StatusUnauthorized, fmt.Sprintf("no access token: %v", err))
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errResponse(http.StatusInternalServerError, fmt.Sprintf("marshal request body: %v", err))
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errResponse(http.StatusInternalServerError, fmt.Sprintf("create request: %v", err))
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		// The platform rejects partial updates unless they are negotiated
		// as JSON-Patch.
		if method == http.MethodPatch {
			req.Header.Set("Content-Type", "application/json-patch+json")
		} else {
			req.Header.Set("Content-Type", "application/json")
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("satusehat call failed", "method", method, "path", path, "error", err)
		return errResponse(http.StatusInternalServerError, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errResponse(http.StatusInternalServerError, fmt.Sprintf("read response: %v", err))
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !success {
		c.logger.Warn("satusehat call rejected", "method", method, "path", path, "status", resp.StatusCode)
	}
	return Response{Success: success, StatusCode: resp.StatusCode, Body: respBody}
}

// Post creates a resource: POST /{resourceType}.
func (c *Client) Post(ctx context.Context, resourceType string, payload any) Response {
	return c.Send(ctx, http.MethodPost, "/"+resourceType, payload)
}

// Patch partially updates a resource with JSON-Patch operations.
func (c *Client) Patch(ctx context.Context, resourceType, id string, ops []PatchOp) Response {
	return c.Send(ctx, http.MethodPatch, "/"+resourceType+"/"+id, ops)
}

// Get fetches a resource or executes a search.
func (c *Client) Get(ctx context.Context, path string) Response {
	return c.Send(ctx, http.MethodGet, path, nil)
}

// SearchPatientByNIK queries the platform patient directory by national
// identity number. Returns the platform patient id and whether one was
// found; a transport or credential failure is an error so that callers can
// distinguish "no such patient" from "could not ask".
func (c *Client) SearchPatientByNIK(ctx context.Context, nik string) (string, bool, error) {
	query := url.Values{}
	query.Set("identifier", nikSystem+"|"+nik)
	resp := c.Get(ctx, "/Patient?"+query.Encode())
	if !resp.Success {
		if resp.StatusCode == http.StatusUnauthorized {
			return "", false, fmt.Errorf("satusehat: patient search: %w", ErrUnauthorized)
		}
		return "", false, fmt.Errorf("satusehat: patient search failed (status %d): %s", resp.StatusCode, resp.Body)
	}

	var bundle struct {
		Total int `json:"total"`
		Entry []struct {
			Resource struct {
				ID string `json:"id"`
			} `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(resp.Body, &bundle); err != nil {
		return "", false, fmt.Errorf("satusehat: decode patient bundle: %w", err)
	}
	if bundle.Total == 0 || len(bundle.Entry) == 0 {
		return "", false, nil
	}
	return bundle.Entry[0].Resource.ID, true, nil
}

func errResponse(status int, msg string) Response {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return Response{Success: false, StatusCode: status, Body: body}
}
