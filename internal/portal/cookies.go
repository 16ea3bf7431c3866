package portal

import (
	"context"
	"net/http"
	"strings"

	"github.com/browserutils/kooky"
	// Register every supported browser with kooky.
	_ "github.com/browserutils/kooky/browser/all"
	"golang.org/x/net/publicsuffix"

	"echodl/internal/logging"
	"echodl/internal/services"
)

// CookieSource reads stored browser cookies for the given domains.
type CookieSource func(ctx context.Context, domains []string) ([]*http.Cookie, error)

// browserCookies reads every registered browser store. Stores that cannot be
// opened are skipped by kooky, so the only failure is finding nothing.
func browserCookies(ctx context.Context, domains []string) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	for _, domain := range domains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := kooky.ReadCookies(kooky.Valid, kooky.Domain(domain))
		cookies = append(cookies, convertToHTTPCookies(found)...)
	}
	return cookies, nil
}

func convertToHTTPCookies(kookyCookies []*kooky.Cookie) []*http.Cookie {
	httpCookies := make([]*http.Cookie, 0, len(kookyCookies))
	for _, c := range kookyCookies {
		if c == nil {
			continue
		}
		cookie := c.Cookie
		httpCookies = append(httpCookies, &cookie)
	}
	return httpCookies
}

// cookieDomains lists the host and its registrable domain in the forms
// browsers store them.
func cookieDomains(host string) []string {
	host = strings.ToLower(host)
	domains := []string{host, "." + host}
	if registrable, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && registrable != host {
		domains = append(domains, registrable, "."+registrable)
	}
	return domains
}

// ImportBrowserCookies copies the portal's cookies from local browsers into
// the session jar and returns how many were installed.
func (c *Client) ImportBrowserCookies(ctx context.Context) (int, error) {
	host := c.baseURL.Hostname()
	cookies, err := c.cookies(ctx, cookieDomains(host))
	if err != nil {
		return 0, services.Wrap(services.ErrAuthentication, "portal", "read browser cookies", host, err)
	}
	if len(cookies) == 0 {
		return 0, services.Wrap(services.ErrAuthentication, "portal", "read browser cookies", "no browser cookies found for "+host, nil)
	}
	c.jar.SetCookies(c.baseURL, cookies)
	c.logger.Info("imported browser cookies",
		logging.String("host", host),
		logging.Int("count", len(cookies)),
	)
	return len(cookies), nil
}
