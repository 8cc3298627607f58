package validator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/circuitbreaker"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/metrics"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/tracing"
)

const (
	// DefaultTimeout bounds one URL check, redirects included.
	DefaultTimeout = 10 * time.Second

	// BrowserUserAgent is sent on every request; many publishers reject
	// non-browser agents with 403.
	BrowserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodyBytes      = 2 << 20
	snippetRunes      = 200
	minArticleTextLen = 50
	maxRedirects      = 10
)

// Doer sends an HTTP request. *http.Client and *circuitbreaker.HostBreakers
// both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Validator checks whether a URL is a live article page.
type Validator struct {
	client     *http.Client
	timeout    time.Duration
	limiter    *hostLimiter
	breakerCfg circuitbreaker.HostConfig
	logger     *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithHTTPClient replaces the default client. Its redirect policy is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) { v.client = c }
}

// WithTimeout overrides the per-URL timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithHostRateLimit paces requests to each host. rps <= 0 disables pacing.
func WithHostRateLimit(rps float64, burst int) Option {
	return func(v *Validator) {
		if rps > 0 {
			v.limiter = newHostLimiter(rps, burst)
		}
	}
}

// WithCircuitBreakers routes each ValidateMany batch through per-host
// breakers that live only as long as the batch.
func WithCircuitBreakers(cfg circuitbreaker.HostConfig) Option {
	return func(v *Validator) { v.breakerCfg = cfg }
}

// New creates a Validator. Options are applied in order.
func New(logger *zap.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Validator{
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.client == nil {
		v.client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	return v
}

// batchDoer returns the client for one batch. Breaker state never outlives
// the batch, so one brief's failures cannot reject another brief's URLs.
func (v *Validator) batchDoer() Doer {
	if !v.breakerCfg.Enabled {
		return v.client
	}
	return circuitbreaker.NewHostBreakers(v.client, v.breakerCfg, "url_validator", v.logger)
}

// Validate checks one URL. It never returns an error and never panics:
// every failure is reported through Result.RejectionReason.
func (v *Validator) Validate(ctx context.Context, rawURL string) Result {
	return v.observe(ctx, rawURL, func(ctx context.Context) Result {
		if res, ok := v.pace(ctx, rawURL); !ok {
			return res
		}
		return v.check(ctx, rawURL, v.client)
	})
}

// observe wraps one URL check with a span, metrics and a debug log.
func (v *Validator) observe(ctx context.Context, rawURL string, run func(context.Context) Result) Result {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "refcheck.validate_url", attribute.String("url.full", rawURL))
	defer span.End()

	res := run(ctx)
	res.Duration = time.Since(start)

	label := res.Label()
	metrics.URLValidations.WithLabelValues(label).Inc()
	metrics.URLValidationDuration.WithLabelValues(label).Observe(res.Duration.Seconds())
	span.SetAttributes(
		attribute.String("refcheck.result", label),
		attribute.Int("http.response.status_code", res.HTTPStatus),
	)
	if !res.IsValid {
		span.SetStatus(codes.Error, label)
	}

	v.logger.Debug("URL validated",
		zap.String("url", rawURL),
		zap.String("result", label),
		zap.Int("status", res.HTTPStatus),
		zap.String("resolved_url", res.ResolvedURL),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// pace waits for the host's rate-limit token. ok is false when the wait
// failed; invalid URLs are not paced and fail later in check.
func (v *Validator) pace(ctx context.Context, rawURL string) (res Result, ok bool) {
	if v.limiter == nil {
		return Result{}, true
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return Result{}, true
	}
	if err := v.limiter.wait(ctx, u.Hostname()); err != nil {
		return rejected(Result{URL: rawURL}, classifyError(err), err.Error()), false
	}
	return Result{}, true
}

func (v *Validator) check(ctx context.Context, rawURL string, doer Doer) (res Result) {
	res = Result{URL: rawURL}
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("Panic during URL validation", zap.String("url", rawURL), zap.Any("panic", r))
			res = rejected(res, ReasonNetworkError, fmt.Sprintf("internal error: %v", r))
		}
	}()

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return rejected(res, ReasonNetworkError, "invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return rejected(res, ReasonNetworkError, err.Error())
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	tracing.InjectTraceparent(ctx, req)

	resp, err := doer.Do(req)
	if err != nil {
		return rejected(res, classifyError(err), err.Error())
	}
	defer resp.Body.Close()

	res.HTTPStatus = resp.StatusCode
	final := u
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	res.ResolvedURL = final.String()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return rejected(res, ReasonForbidden, "")
	case resp.StatusCode == http.StatusNotFound:
		return rejected(res, ReasonNotFound, "")
	case resp.StatusCode >= 400:
		return rejected(res, ReasonServerError, http.StatusText(resp.StatusCode))
	}

	if isHomepage(final) {
		return rejected(res, ReasonHomepageRedirect, "resolved to site root")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return rejected(res, classifyError(err), err.Error())
	}

	return judgeContent(res, resp.Header.Get("Content-Type"), body)
}

// judgeContent decides whether a 2xx/3xx body is a real article.
func judgeContent(res Result, contentType string, body []byte) Result {
	switch classifyContentType(contentType) {
	case kindDocument:
		if len(body) == 0 {
			return rejected(res, ReasonNoArticleContent, "empty document")
		}
		res.IsValid = true
		return res
	case kindOther:
		return rejected(res, ReasonNoArticleContent, "unsupported content type "+contentType)
	case kindText:
		text := collapseSpace(string(body))
		if hasNotFoundMarker(leadingRunes(text, snippetRunes)) {
			return rejected(res, ReasonNoArticleContent, "not-found marker in body")
		}
		if len(text) < minArticleTextLen {
			return rejected(res, ReasonNoArticleContent, "body too short")
		}
		res.IsValid = true
		return res
	}

	p := parsePage(body)
	if hasNotFoundMarker(p.title) {
		return rejected(res, ReasonNoArticleContent, "not-found marker in title")
	}
	if hasNotFoundMarker(leadingRunes(p.text, snippetRunes)) {
		return rejected(res, ReasonNoArticleContent, "not-found marker in body")
	}
	if len(p.text) < minArticleTextLen {
		return rejected(res, ReasonNoArticleContent, "body too short")
	}
	res.IsValid = true
	res.Title = p.title
	return res
}

// isHomepage reports whether u is a site root or a generic landing page.
// A root with a query string (e.g. "/?p=123") is treated as content.
func isHomepage(u *url.URL) bool {
	if u.RawQuery != "" {
		return false
	}
	switch strings.ToLower(strings.TrimSuffix(u.Path, "/")) {
	case "", "/index.html", "/index.htm", "/home":
		return true
	}
	return false
}

func classifyError(err error) RejectionReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetworkError
}
