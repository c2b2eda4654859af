package source

import (
	"context"
	"fmt"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"github.com/alexberlino/atp/pkg/logger"
)

// HTTPLoader fetches the page with a plain GET and parses the static HTML.
type HTTPLoader struct {
	client   *resty.Client
	selector string
	log      logger.Logger
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*httpSettings)

type httpSettings struct {
	userAgent        string
	timeout          time.Duration
	cloudflareBypass bool
	selector         string
	client           *resty.Client
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(s *httpSettings) { s.userAgent = ua }
}

// WithTimeout bounds one request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *httpSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCloudflareBypass wraps the transport with browser-like TLS and headers.
func WithCloudflareBypass(on bool) HTTPOption {
	return func(s *httpSettings) { s.cloudflareBypass = on }
}

// WithSelector sets the row selector.
func WithSelector(sel string) HTTPOption {
	return func(s *httpSettings) { s.selector = sel }
}

// WithRestyClient supplies a preconfigured client.
func WithRestyClient(c *resty.Client) HTTPOption {
	return func(s *httpSettings) { s.client = c }
}

// NewHTTPLoader builds a loader with a 30 second timeout by default.
func NewHTTPLoader(opts ...HTTPOption) *HTTPLoader {
	s := httpSettings{timeout: 30 * time.Second, selector: FallbackSelector}
	for _, opt := range opts {
		opt(&s)
	}

	client := s.client
	if client == nil {
		client = resty.New()
	}
	if s.cloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if s.userAgent != "" {
		client.SetHeader("user-agent", s.userAgent)
	}
	client.SetTimeout(s.timeout)

	return &HTTPLoader{
		client:   client,
		selector: s.selector,
		log:      logger.Get().Named("source.http"),
	}
}

// Load issues GET url and returns the parsed table rows.
func (l *HTTPLoader) Load(ctx context.Context, url string) ([][]string, error) {
	res, err := l.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s returned %d", ErrHTTPStatus, url, res.StatusCode())
	}

	l.log.Debug(ctx, "page fetched",
		logger.String("url", url),
		logger.Int("status", res.StatusCode()),
		logger.Int("bytes", len(res.Body())),
		logger.Duration("took", res.Time()),
	)
	return ParseRows(res.Body(), l.selector)
}
