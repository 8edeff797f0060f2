package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	agentErrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
)

const maxBodyBytes = 8 << 20

// Client issues search requests against SerpAPI's JSON endpoint.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	apiKey     string
}

// NewClient returns nil when apiKey is empty so callers can tell an
// unconfigured provider apart from a failing one.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimSpace(baseURL),
		apiKey:     apiKey,
	}
}

// Search runs one query. params must carry the engine; the API key and output
// format are added here.
func (c *Client) Search(ctx context.Context, params url.Values) (map[string]any, error) {
	if c == nil {
		return nil, agentErrors.Unavailable("serpapi client not configured")
	}

	endpoint, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, agentErrors.InvalidInput(fmt.Sprintf("invalid serpapi base url: %v", err))
	}
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set("api_key", c.apiKey)
	query.Set("output", "json")
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, redactKey(err, c.apiKey)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	var data map[string]any
	decodeErr := json.Unmarshal(body, &data)
	if decodeErr == nil {
		if msg, ok := data["error"].(string); ok && msg != "" {
			return nil, fmt.Errorf("%s", msg)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("serpapi request failed: %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", decodeErr)
	}
	return data, nil
}

// redactKey keeps the api key out of transport errors, which embed the URL.
func redactKey(err error, key string) error {
	needle := "api_key=" + url.QueryEscape(key)
	msg := err.Error()
	if !strings.Contains(msg, needle) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(msg, needle, "api_key=REDACTED"))
}
