package github

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"toolbridge/internal/domain"
	"toolbridge/internal/infra/config"
)

// Governor sits between operations and the Client. It tracks the quota
// advertised in rate-limit headers, smooths outbound request rate, and
// retries rate-limited and transient failures within configured budgets.
// All waits respect the caller's context.
type Governor struct {
	client  *Client
	cfg     config.RetryConfig
	limiter *rate.Limiter
	logger  *slog.Logger

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	remaining int
	reset     time.Time
	haveQuota bool
}

// NewGovernor wraps client with quota and retry handling.
func NewGovernor(client *Client, cfg config.RetryConfig, logger *slog.Logger) *Governor {
	g := &Governor{
		client:    client,
		cfg:       cfg,
		logger:    logger,
		sleep:     sleepCtx,
		remaining: -1,
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return g
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do issues one logical API call, retrying per policy. Rate-limited
// responses are retried up to MaxRateLimitRetries, transient failures up
// to MaxTransientRetries; the two budgets are independent. Non-quota 4xx
// statuses fail immediately and are never retried.
func (g *Governor) Do(ctx context.Context, method, path string, query url.Values, body any) (*apiResponse, error) {
	rateRetries := 0
	transientRetries := 0

	for {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, domain.NewDomainError("github", domain.ErrTransient, err.Error())
			}
		}
		if err := g.waitForQuota(ctx); err != nil {
			return nil, err
		}

		res, err := g.client.do(ctx, method, path, query, body)
		if err != nil {
			if domain.Retryable(err) && transientRetries < g.cfg.MaxTransientRetries {
				transientRetries++
				if serr := g.backoff(ctx, transientRetries, "transient failure", err.Error()); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, err
		}

		g.observe(res)

		switch {
		case res.Status >= 200 && res.Status < 300:
			return res, nil

		case rateLimited(res):
			if rateRetries >= g.cfg.MaxRateLimitRetries {
				return nil, domain.NewDomainError("github", domain.ErrRateLimited,
					"rate limit retries exhausted: "+apiMessage(res.Body))
			}
			rateRetries++
			if serr := g.backoff(ctx, rateRetries, "rate limited", apiMessage(res.Body)); serr != nil {
				return nil, serr
			}

		case res.Status >= 500:
			if transientRetries >= g.cfg.MaxTransientRetries {
				return nil, domain.NewDomainError("github", domain.ErrTransient,
					fmt.Sprintf("server error %d: %s", res.Status, apiMessage(res.Body)))
			}
			transientRetries++
			if serr := g.backoff(ctx, transientRetries, "server error",
				fmt.Sprintf("status %d", res.Status)); serr != nil {
				return nil, serr
			}

		default:
			return nil, statusError(res)
		}
	}
}

// rateLimited recognizes both explicit 429s and GitHub's 403-with-empty-
// quota convention.
func rateLimited(res *apiResponse) bool {
	if res.Status == 429 {
		return true
	}
	return res.Status == 403 && res.Remaining == 0
}

func statusError(res *apiResponse) error {
	msg := apiMessage(res.Body)
	switch res.Status {
	case 401:
		return domain.NewDomainError("github", domain.ErrAuthInvalid, msg)
	case 404:
		return domain.NewDomainError("github", domain.ErrNotFound, msg)
	default:
		return domain.NewDomainError("github", domain.ErrFatal,
			fmt.Sprintf("status %d: %s", res.Status, msg))
	}
}

// observe folds the response's quota headers into governor state.
func (g *Governor) observe(res *apiResponse) {
	if res.Remaining < 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.haveQuota = true
	g.remaining = res.Remaining
	if res.Reset > 0 {
		g.reset = time.Unix(res.Reset, 0)
	}
}

// waitForQuota blocks until the known quota allows another request. A
// reset further away than MaxRateLimitWait fails fast instead of holding
// the caller for minutes.
func (g *Governor) waitForQuota(ctx context.Context) error {
	g.mu.Lock()
	exhausted := g.haveQuota && g.remaining == 0
	reset := g.reset
	g.mu.Unlock()

	if !exhausted {
		return nil
	}
	wait := time.Until(reset)
	if wait <= 0 {
		return nil
	}
	if wait > g.cfg.MaxRateLimitWait {
		return domain.NewDomainError("github", domain.ErrRateLimited,
			fmt.Sprintf("quota resets in %s, beyond the %s wait ceiling", wait.Round(time.Second), g.cfg.MaxRateLimitWait))
	}
	g.logger.Info("quota exhausted, waiting for reset", "wait", wait.Round(time.Second))
	if err := g.sleep(ctx, wait); err != nil {
		return domain.NewDomainError("github", domain.ErrTransient, err.Error())
	}
	g.mu.Lock()
	g.remaining = -1
	g.haveQuota = false
	g.mu.Unlock()
	return nil
}

// backoff sleeps for BaseBackoff * 2^(attempt-1), capped at MaxBackoff,
// with up to 25% random jitter so concurrent callers do not stampede.
func (g *Governor) backoff(ctx context.Context, attempt int, reason, detail string) error {
	d := g.cfg.BaseBackoff << (attempt - 1)
	if d > g.cfg.MaxBackoff || d <= 0 {
		d = g.cfg.MaxBackoff
	}
	d += time.Duration(rand.Int63n(int64(d)/4 + 1))
	g.logger.Debug("backing off", "reason", reason, "detail", detail, "attempt", attempt, "delay", d)
	if err := g.sleep(ctx, d); err != nil {
		return domain.NewDomainError("github", domain.ErrTransient, err.Error())
	}
	return nil
}
