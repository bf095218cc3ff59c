// Package auth issues SuperMap iServer security tokens.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/supermap/iclient-go/headers"
	"github.com/supermap/iclient-go/routes"
)

const defaultUserAgent = "iclient-go-auth/1"

// ClientType selects what the issued token is bound to.
type ClientType string

const (
	ClientTypeIP        ClientType = "IP"
	ClientTypeReferer   ClientType = "Referer"
	ClientTypeRequestIP ClientType = "RequestIP"
	ClientTypeNone      ClientType = "NONE"
)

// Config controls how the auth client talks to iServer.
// BaseURL is the iServer application root, e.g. http://host:8090/iserver.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// Client issues security tokens against an iServer application.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// TokenRequest mirrors the body accepted by the tokens resource.
// Expiration is in minutes; zero leaves the server default.
type TokenRequest struct {
	UserName   string     `json:"userName"`
	Password   string     `json:"password"`
	ClientType ClientType `json:"clientType"`
	IP         string     `json:"ip,omitempty"`
	Referer    string     `json:"referer,omitempty"`
	Expiration int        `json:"expiration,omitempty"`
}

// Error conveys HTTP failures from the tokens resource.
type Error struct {
	Status int
	Body   string
}

func (e Error) Error() string {
	return fmt.Sprintf("iclient/auth: http %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// NewClient constructs a Client with sane defaults.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("iclient/auth: base url required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		baseURL:    strings.TrimSuffix(base, "/"),
		httpClient: client,
		userAgent:  ua,
	}, nil
}

// IssueToken exchanges user credentials for a security token.
func (c *Client) IssueToken(ctx context.Context, req TokenRequest) (string, error) {
	if strings.TrimSpace(req.UserName) == "" || strings.TrimSpace(req.Password) == "" {
		return "", errors.New("iclient/auth: user name and password required")
	}
	if req.ClientType == "" {
		req.ClientType = ClientTypeRequestIP
	}
	switch req.ClientType {
	case ClientTypeIP:
		if strings.TrimSpace(req.IP) == "" {
			return "", errors.New("iclient/auth: ip required for IP client type")
		}
	case ClientTypeReferer:
		if strings.TrimSpace(req.Referer) == "" {
			return "", errors.New("iclient/auth: referer required for Referer client type")
		}
	}
	return c.post(ctx, "/"+routes.SecurityTokens+".json", req)
}

func (c *Client) post(ctx context.Context, path string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set(headers.ContentType, headers.JSON)
	req.Header.Set(headers.Accept, headers.JSON)
	req.Header.Set(headers.UserAgent, c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", Error{Status: resp.StatusCode, Body: string(body)}
	}
	return parseToken(body)
}

// parseToken accepts both the bare token text iServer returns and a JSON string.
func parseToken(body []byte) (string, error) {
	raw := strings.TrimSpace(string(body))
	if strings.HasPrefix(raw, `"`) {
		var token string
		if err := json.Unmarshal([]byte(raw), &token); err != nil {
			return "", err
		}
		raw = strings.TrimSpace(token)
	}
	if raw == "" {
		return "", errors.New("iclient/auth: empty token in response")
	}
	return raw, nil
}
