// Package gateway is the client side of the portfolio API. It is the only
// code that talks HTTP to the backend and it folds every failure into the
// small Kind taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/RichardoC/folio/internal/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://portfolio-04he.onrender.com/"
	DefaultTimeout = 30 * time.Second

	maxResponseSize = 4 << 20
)

type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client for the API rooted at baseURL. An empty baseURL
// selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchPortfolioData loads the whole site payload. Failures are returned
// as-is; the caller decides how to present them.
func (c *Client) FetchPortfolioData(ctx context.Context) (*models.PortfolioData, error) {
	var data models.PortfolioData
	if err := c.do(ctx, http.MethodGet, "/api/portfolio-data", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Chat sends message together with the conversation so far. The server keeps
// no state between calls, so history must hold everything said before now.
func (c *Client) Chat(ctx context.Context, message string, history []models.Message) (*models.ChatReply, error) {
	req := models.ChatRequest{
		Message:             message,
		ConversationHistory: models.ToHistory(history),
	}
	var reply models.ChatReply
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// FetchSuggestedQuestions propagates failures; substituting a fallback is up
// to the caller.
func (c *Client) FetchSuggestedQuestions(ctx context.Context) ([]string, error) {
	var resp models.SuggestedQuestionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/suggested-questions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

func (c *Client) HealthCheck(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: Generic, Message: MsgGeneric, Err: errors.Wrap(err, "encode request")}
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &Error{Kind: Generic, Message: MsgGeneric, Err: errors.Wrap(err, "build request")}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("api request", zap.String("method", method), zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		gerr := fromTransport(err)
		c.logFailure(method, path, gerr)
		return gerr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		gerr := fromTransport(err)
		c.logFailure(method, path, gerr)
		return gerr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := fromStatus(resp.StatusCode, data)
		c.logFailure(method, path, gerr)
		return gerr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		gerr := &Error{Kind: Generic, Message: MsgGeneric, Status: resp.StatusCode, Err: errors.Wrap(err, "decode response")}
		c.logFailure(method, path, gerr)
		return gerr
	}
	return nil
}

func (c *Client) logFailure(method, path string, gerr *Error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Stringer("kind", gerr.Kind),
		zap.String("message", gerr.Message),
	}
	if gerr.Status != 0 {
		fields = append(fields, zap.Int("status", gerr.Status))
	}
	if gerr.Err != nil {
		fields = append(fields, zap.Error(gerr.Err))
	}
	c.logger.Error("api error", fields...)
}
