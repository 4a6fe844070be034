package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a whole call, including reading the body
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultIdleConnTimeout is how long a call's idle connections stay open
	DefaultIdleConnTimeout = 90 * time.Second
)

// Executor turns a Request into a Response. It holds only immutable options;
// every call builds its own transport, so calls never share connections or
// TLS policy and may run concurrently.
type Executor struct {
	timeout      time.Duration
	maxRedirects int
	proxyURL     string
	logger       *zap.Logger
}

type ExecutorOption func(*Executor)

func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = d
	}
}

func WithMaxRedirects(max int) ExecutorOption {
	return func(e *Executor) {
		e.maxRedirects = max
	}
}

// WithProxy routes every call through proxyURL
func WithProxy(proxyURL string) ExecutorOption {
	return func(e *Executor) {
		e.proxyURL = proxyURL
	}
}

func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Result is what Go delivers.
type Result struct {
	Response *Response
	Err      error
}

// Go runs Execute on its own goroutine. The channel receives exactly one
// Result and is then closed.
func (e *Executor) Go(ctx context.Context, req *Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := e.Execute(ctx, req)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}

// Execute performs one call. It returns either a Response or an *Error,
// never both.
func (e *Executor) Execute(ctx context.Context, req *Request) (*Response, error) {
	log := e.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("method", req.Method),
		zap.String("url", RedactURL(req.URL)),
	)

	resp, err := e.execute(ctx, req, log)
	if err != nil {
		kind, _ := KindOf(err)
		log.Warn("request failed", zap.Stringer("kind", kind), zap.Error(err))
		return nil, err
	}

	log.Info("request completed",
		zap.Int("status", resp.Status),
		zap.Duration("duration", resp.Duration),
		zap.Int("size", resp.Size()),
	)
	return resp, nil
}

func (e *Executor) execute(ctx context.Context, req *Request, log *zap.Logger) (*Response, error) {
	method, err := ParseMethod(req.Method)
	if err != nil {
		return nil, newError(InvalidMethod, err)
	}

	client, err := e.buildClient(req.Settings)
	if err != nil {
		return nil, newError(TransportConfigError, err)
	}
	defer client.CloseIdleConnections()

	if err := ValidateURL(req.URL); err != nil {
		return nil, newError(RequestFailed, err)
	}

	body, err := EncodeBody(req.Body)
	if err != nil {
		return nil, newError(RequestFailed, err)
	}
	if fd, ok := req.Body.(FormDataBody); ok {
		if dropped := len(fd.Items) - len(EnabledFields(fd.Items)); dropped > 0 {
			log.Debug("skipping disabled or unnamed form fields", zap.Int("count", dropped))
		}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = body.Reader
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, reader)
	if err != nil {
		return nil, newError(RequestFailed, err)
	}

	headers, skipped := CleanHeaders(req.Headers)
	for _, s := range skipped {
		log.Debug("skipping header",
			zap.String("name", s.Header.Name),
			zap.String("reason", s.Reason),
		)
	}
	applyHeaders(httpReq, headers)

	// Set multipart content type if present (must be after headers to override)
	if body != nil && body.ContentType != "" {
		httpReq.Header.Set("Content-Type", body.ContentType)
	}

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, newError(RequestFailed, err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, newError(BodyDecodeError, err)
	}
	duration := time.Since(start)

	text, err := DecodeText(payload, httpResp.Header.Get("Content-Type"))
	if err != nil {
		return nil, newError(BodyDecodeError, err)
	}

	return &Response{
		Status:     httpResp.StatusCode,
		StatusText: http.StatusText(httpResp.StatusCode),
		Headers:    FlattenHeaders(httpResp.Header),
		Body:       text,
		Duration:   duration,
	}, nil
}

// buildClient creates a client whose transport is private to one call.
func (e *Executor) buildClient(settings Settings) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("default transport is not an *http.Transport")
	}
	transport := base.Clone()
	transport.IdleConnTimeout = DefaultIdleConnTimeout

	if !settings.VerifySSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // opt-in per request
		}
	}

	if e.proxyURL != "" {
		proxyURL, err := neturl.Parse(e.proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if proxyURL.Scheme == "" || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q: scheme and host are required", e.proxyURL)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	maxRedirects := e.maxRedirects
	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !settings.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) > maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: redirectPolicy,
	}, nil
}

// applyHeaders adds each header as its own instance. Host is carried on the
// request itself because net/http ignores it in the header map.
func applyHeaders(req *http.Request, headers []Header) {
	for _, h := range headers {
		if http.CanonicalHeaderKey(h.Name) == "Host" {
			req.Host = h.Value
			continue
		}
		req.Header.Add(h.Name, h.Value)
	}
}

// RedactURL returns rawURL fit for logs: the userinfo password is masked and
// the query and fragment are removed, since either may carry credentials.
func RedactURL(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return "<unparsable url>"
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.Redacted()
}

// ValidateURL checks that a URL is absolute and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
