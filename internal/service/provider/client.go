// Package provider wraps the public web APIs the chat bot answers from.
//
// Every adapter issues exactly one GET per call and normalizes the JSON body
// into an answer.Result. Failures are logged and returned as values; nothing
// here returns a Go error to the resolver.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/askbot/backend/internal/logging"
	"github.com/zhouzirui/askbot/backend/internal/model/answer"
)

const (
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent identifies the bot to upstream services; Nominatim rejects anonymous clients.
	DefaultUserAgent = "askbot/1.0 (+https://github.com/zhouzirui/askbot)"

	maxBodyBytes = 1 << 20
)

// Adapter fetches one answer from one upstream service.
type Adapter interface {
	ID() answer.ProviderID
	Fetch(ctx context.Context, query string) answer.Result
}

// Options configures the shared HTTP behaviour of all adapters.
type Options struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// jsonClient performs the GET + decode step shared by every adapter.
type jsonClient struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
}

func newJSONClient(opts Options) *jsonClient {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &jsonClient{
		http:      client,
		timeout:   timeout,
		userAgent: userAgent,
		logger:    logging.OrNop(opts.Logger),
	}
}

// getJSON issues GET base?params and decodes the body into out.
// Errors wrap answer.ErrNetwork or answer.ErrParse.
func (c *jsonClient) getJSON(ctx context.Context, base string, params url.Values, out any) error {
	endpoint, err := buildURL(base, params)
	if err != nil {
		return fmt.Errorf("%w: %v", answer.ErrNetwork, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", answer.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", answer.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: http %d", answer.ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", answer.ErrNetwork, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", answer.ErrParse, err)
	}
	return nil
}

// fail logs an upstream failure and converts it to a Failure result.
func (c *jsonClient) fail(id answer.ProviderID, err error) answer.Result {
	c.logger.Warn("provider request failed", zap.String("provider", string(id)), zap.Error(err))
	return answer.Failure(err)
}

func buildURL(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
