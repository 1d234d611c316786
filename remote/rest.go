package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultTimeout = 1500 * time.Millisecond

	// maxBody caps how much of a response is read.
	maxBody = 4 << 20
)

/*
REST talks to a key-value service over HTTP:

	GET  {url}/get/{key}         → {"result": "<json-encoded value>"} or {"result": null}
	POST {url}/set/{key}?EX=secs   body: JSON-encoded value

Every request carries "Authorization: Bearer {token}".
*/
type REST struct {
	base    string
	token   string
	timeout time.Duration
	client  *http.Client
}

// NewREST builds a client from o. Use New to get a Disabled tier for incomplete options.
func NewREST(o Options) *REST {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &REST{
		base:    strings.TrimRight(o.URL, "/"),
		token:   o.Token,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the underlying client, mostly for tests.
func (r *REST) WithHTTPClient(c *http.Client) *REST {
	r.client = c
	return r
}

func (r *REST) Enabled() bool { return true }

type getResponse struct {
	Result *string `json:"result"`
	Error  string  `json:"error,omitempty"`
}

// Load fetches key. found is false when the service holds no value.
func (r *REST) Load(ctx context.Context, key string) (any, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint("get", key), nil)
	if err != nil {
		return nil, false, fmt.Errorf("remote: build get request: %w", err)
	}

	body, err := r.do(req)
	if err != nil {
		return nil, false, err
	}

	var resp getResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if resp.Error != "" {
		return nil, false, fmt.Errorf("%w: %s", ErrStatus, resp.Error)
	}
	if resp.Result == nil {
		return nil, false, nil
	}

	var value any
	if err := json.Unmarshal([]byte(*resp.Result), &value); err != nil {
		return nil, false, fmt.Errorf("%w: stored value: %v", ErrMalformed, err)
	}
	return value, true, nil
}

// Store writes key with an expiry of ttl rounded up to whole seconds.
func (r *REST) Store(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("remote: encode %q: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u := r.endpoint("set", key) + "?EX=" + strconv.FormatInt(Seconds(ttl), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("remote: build set request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = r.do(req)
	return err
}

func (r *REST) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("remote: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return body, nil
}

func (r *REST) endpoint(op, key string) string {
	return r.base + "/" + op + "/" + url.PathEscape(key)
}

// Seconds converts a TTL to the whole-second expiry the service expects, never less than 1.
func Seconds(ttl time.Duration) int64 {
	secs := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}
