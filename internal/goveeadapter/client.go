package goveeadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"govee-panel/internal/lights/domain"
)

// DefaultBaseURL is the production Govee OpenAPI endpoint.
const DefaultBaseURL = "https://openapi.api.govee.com/router/api/v1"

// maxRawSnippet caps how much of an unparseable body gets relayed.
const maxRawSnippet = 2000

// ErrUnreachable marks transport-level failures (DNS, refused connection,
// timeout), as opposed to a vendor response that merely failed to parse.
var ErrUnreachable = errors.New("goveeadapter: upstream unreachable")

// Client is a minimal Govee OpenAPI REST client.
type Client struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewClient constructs a Govee client. The API key may be empty; the facade
// refuses upstream-bound requests before they reach a keyless client.
func NewClient(baseURL, key string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("goveeadapter: empty base url")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// ListDevices fetches the account's device list.
func (c *Client) ListDevices(ctx context.Context) (domain.Result, error) {
	return c.do(ctx, http.MethodGet, "/user/devices", nil)
}

// DeviceState fetches the state of one device with an already-shaped envelope.
func (c *Client) DeviceState(ctx context.Context, env domain.Envelope) (domain.Result, error) {
	return c.do(ctx, http.MethodPost, "/device/state", &env)
}

// ControlDevice submits a capability command with an already-shaped envelope.
func (c *Client) ControlDevice(ctx context.Context, env domain.Envelope) (domain.Result, error) {
	return c.do(ctx, http.MethodPost, "/device/control", &env)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (domain.Result, error) {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.Result{}, err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return domain.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Govee-API-Key", c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return domain.Result{Status: resp.StatusCode, Body: parseBody(raw)}, nil
}

// parseBody never fails: a body that is not a JSON object degrades to a
// parseError marker plus a truncated raw snippet, so the caller can still
// relay something useful.
func parseBody(raw []byte) map[string]any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		snippet := string(raw)
		if len(snippet) > maxRawSnippet {
			snippet = snippet[:maxRawSnippet]
		}
		return map[string]any{"parseError": err.Error(), "raw": snippet}
	}
	if body == nil {
		return map[string]any{}
	}
	return body
}
