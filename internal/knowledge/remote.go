package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/resilience"
)

// RemoteOptions configures a RemoteStore.
type RemoteOptions struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Client     *http.Client
	Breaker    *resilience.Breaker
	// Retry applies to transient failures of a single call. Zero values
	// take the resilience defaults.
	Retry resilience.RetryPolicy
}

// RemoteStore reads documents from another advisory-guard instance (or any
// service exposing GET /v1/knowledge/{id}). Every call is bounded by a
// timeout, rate limited, retried on transient failures and guarded by a
// circuit breaker.
type RemoteStore struct {
	base    string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryPolicy
}

// NewRemote creates a RemoteStore.
func NewRemote(opts RemoteOptions) (*RemoteStore, error) {
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, eris.Wrapf(err, "knowledge: invalid base url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 20
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewBreaker(resilience.BreakerConfig{
			Name:       "knowledge",
			ShouldTrip: func(err error) bool { return !IsNotFound(err) },
		})
	}
	if opts.Retry.Name == "" {
		opts.Retry.Name = "knowledge"
	}
	burst := int(opts.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	return &RemoteStore{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		client:  opts.Client,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), burst),
		breaker: opts.Breaker,
		retry:   opts.Retry,
	}, nil
}

func (r *RemoteStore) Get(ctx context.Context, id string) (*model.KnowledgeBaseDocument, error) {
	return resilience.Do(ctx, r.breaker, func(ctx context.Context) (*model.KnowledgeBaseDocument, error) {
		var doc model.KnowledgeBaseDocument
		if err := r.fetch(ctx, "/v1/knowledge/"+url.PathEscape(id), &doc); err != nil {
			if IsNotFound(err) {
				return nil, notFound(id)
			}
			return nil, eris.Wrapf(err, "knowledge: remote get %s", id)
		}
		return &doc, nil
	})
}

func (r *RemoteStore) List(ctx context.Context) ([]model.KnowledgeBaseDocument, error) {
	return resilience.Do(ctx, r.breaker, func(ctx context.Context) ([]model.KnowledgeBaseDocument, error) {
		var docs []model.KnowledgeBaseDocument
		if err := r.fetch(ctx, "/v1/knowledge", &docs); err != nil {
			return nil, eris.Wrap(err, "knowledge: remote list")
		}
		return docs, nil
	})
}

func (r *RemoteStore) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// fetch retries getJSON on transient failures. The breaker sees one outcome
// per logical call.
func (r *RemoteStore) fetch(ctx context.Context, path string, out any) error {
	_, err := resilience.Retry(ctx, r.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.getJSON(ctx, path, out)
	})
	return err
}

func (r *RemoteStore) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrDocumentNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &resilience.StatusError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
