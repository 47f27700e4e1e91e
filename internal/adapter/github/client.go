package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"toolbridge/internal/domain"
	"toolbridge/internal/infra/config"
)

const (
	acceptHeader = "application/vnd.github.v3+json"
	userAgent    = "toolbridge/1.0"

	// maxBodyBytes bounds how much of a response we read. GitHub file
	// contents are capped separately in the contents operation.
	maxBodyBytes = 4 << 20
)

// Circuit breaker defaults; open after this many consecutive transport
// failures, probe again after the timeout.
const (
	cbMaxFailures uint32 = 5
	cbTimeout            = 30 * time.Second
)

// apiResponse is one REST exchange: status, quota headers, parsed body.
type apiResponse struct {
	Status    int
	Body      json.RawMessage
	Remaining int   // X-RateLimit-Remaining, -1 when absent
	Reset     int64 // X-RateLimit-Reset (unix), 0 when absent
	NextPage  int   // from the Link header, 0 when no further page
}

// Client issues authenticated requests against the GitHub REST API.
// It is the sole owner of the credential; quota bookkeeping is the
// Governor's job.
type Client struct {
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*apiResponse]
	baseURL  string
	token    string
	username string
	logger   *slog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.GitHubConfig, logger *slog.Logger) *Client {
	c := &Client{
		http:     &http.Client{Timeout: cfg.CallTimeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		username: cfg.Username,
		logger:   logger,
	}
	if c.token == "" {
		logger.Warn("github token not configured, unauthenticated requests are heavily rate limited")
	}

	c.breaker = gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
		Name:        "github",
		MaxRequests: 1, // one probe in half-open state
		Timeout:     cbTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cbMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Username returns the configured identity, empty when not set.
func (c *Client) Username() string { return c.username }

// Authenticated reports whether a token is configured.
func (c *Client) Authenticated() bool { return c.token != "" }

// do issues a single request. Transport-level failures count against the
// circuit breaker; HTTP error statuses do not (they are the Governor's
// concern). An open breaker surfaces as BackendUnavailable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*apiResponse, error) {
	res, err := c.breaker.Execute(func() (*apiResponse, error) {
		return c.roundTrip(ctx, method, path, query, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, domain.NewDomainError("github", domain.ErrBackendUnavailable, "circuit breaker open")
		}
		return nil, domain.NewDomainError("github", domain.ErrTransient, err.Error())
	}
	return res, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) (*apiResponse, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &apiResponse{
		Status:    resp.StatusCode,
		Body:      data,
		Remaining: headerInt(resp.Header, "X-RateLimit-Remaining", -1),
		Reset:     int64(headerInt(resp.Header, "X-RateLimit-Reset", 0)),
		NextPage:  nextPage(resp.Header.Get("Link")),
	}, nil
}

func headerInt(h http.Header, key string, def int) int {
	v := h.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

var nextLinkRe = regexp.MustCompile(`<[^>]*[?&]page=(\d+)[^>]*>;\s*rel="next"`)

// nextPage extracts the next page number from a Link header, 0 when the
// current page is the last one.
func nextPage(link string) int {
	if link == "" {
		return 0
	}
	m := nextLinkRe.FindStringSubmatch(link)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// apiMessage pulls the "message" field out of a GitHub error body.
func apiMessage(body json.RawMessage) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return "github api error"
	}
	return payload.Message
}
