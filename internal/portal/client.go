package portal

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"echodl/internal/config"
	"echodl/internal/logging"
	"echodl/internal/services"
)

const defaultRequestTimeout = time.Minute

// Credentials authenticate a portal session.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether no username was supplied.
func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Username) == ""
}

// Client holds one authenticated portal session.
type Client struct {
	baseURL   *url.URL
	loginURL  string
	userAgent string
	timeout   time.Duration
	jar       *cookiejar.Jar
	client    *http.Client
	cookies   CookieSource
	logger    *slog.Logger
}

// New builds a client for the configured portal with an empty cookie jar.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Portal.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "portal", "parse base url", cfg.Portal.BaseURL, err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	timeout := cfg.PortalRequestTimeout()
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	loginURL := strings.TrimSpace(cfg.Portal.LoginURL)
	if loginURL == "" {
		loginURL = base.String() + "/login"
	}
	return &Client{
		baseURL:   base,
		loginURL:  loginURL,
		userAgent: cfg.Portal.UserAgent,
		timeout:   timeout,
		jar:       jar,
		client:    &http.Client{Jar: jar, Timeout: timeout},
		cookies:   browserCookies,
		logger:    logging.NewComponentLogger(logger, "portal"),
	}, nil
}

// HTTPClient returns the client carrying the session cookies.
func (c *Client) HTTPClient() *http.Client {
	return c.client
}

// BaseURL returns the portal root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// WithCookieSource replaces the browser cookie reader.
func (c *Client) WithCookieSource(source CookieSource) *Client {
	if source != nil {
		c.cookies = source
	}
	return c
}

func (c *Client) resolve(ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(parsed).String()
}

func (c *Client) newRequest(req *http.Request) *http.Request {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req
}
