package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tastemichigan/api-go/metrics"
)

const maxResponseBytes = 8 << 20

// secretParams are query parameters that carry credentials.
var secretParams = []string{"storefront_token", "key", "access_token"}

// Fetcher performs GET requests against one upstream under a per-call
// timeout and a circuit breaker. 4xx answers do not count as failures.
type Fetcher struct {
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	name    string
	timeout time.Duration
}

func NewFetcher(name string, timeout time.Duration, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var upstreamErr *UpstreamError
			return errors.As(err, &upstreamErr) && upstreamErr.clientError()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Fetcher{client: client, cb: cb, name: name, timeout: timeout}
}

// Get returns the body of a 2xx response. Anything else is an *UpstreamError.
func (f *Fetcher) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	start := time.Now()
	body, err := f.cb.Execute(func() ([]byte, error) {
		return f.get(ctx, rawURL, header)
	})
	metrics.RecordUpstream(f.name, start, err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(f.name, "rejected").Inc()
			return nil, &UpstreamError{Source: f.name, URL: redactURL(rawURL), Err: err}
		}
		metrics.CircuitBreakerRequests.WithLabelValues(f.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(f.name, "success").Inc()
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	safeURL := redactURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &UpstreamError{Source: f.name, URL: safeURL, Err: scrubURLError(err, safeURL)}
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Source: f.name, URL: safeURL, Err: scrubURLError(err, safeURL)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Source: f.name, URL: safeURL, Status: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Source: f.name, URL: safeURL, Status: resp.StatusCode}
	}
	return body, nil
}

// redactURL masks credential query parameters so the URL is safe to log.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	changed := false
	for _, name := range secretParams {
		if q.Has(name) {
			q.Set(name, "REDACTED")
			changed = true
		}
	}
	if u.User != nil {
		u.User = url.User("REDACTED")
		changed = true
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// scrubURLError replaces the URL that net/http embeds in transport errors.
func scrubURLError(err error, safeURL string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: safeURL, Err: urlErr.Err}
	}
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
