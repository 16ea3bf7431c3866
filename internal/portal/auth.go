package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"echodl/internal/logging"
	"echodl/internal/services"
)

const maxLoginPage = 2 << 20

// loginForm is what the login page asks for.
type loginForm struct {
	action        string
	hidden        url.Values
	usernameField string
	passwordField string
}

// hasPassword reports whether the page presented a password input.
func (f loginForm) hasPassword() bool {
	return f.passwordField != ""
}

// Login authenticates with credentials, leaving the session cookies in the
// client's jar.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	if creds.Empty() || creds.Password == "" {
		return services.Wrap(services.ErrAuthentication, "portal", "login", "username and password are required", nil)
	}
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("logging in", logging.String("url", c.loginURL), logging.String("username", creds.Username))

	page, _, err := c.fetchPage(ctx, http.MethodGet, c.loginURL, nil)
	if err != nil {
		return err
	}
	form := parseLoginForm(page)

	data := url.Values{}
	for key, values := range form.hidden {
		for _, value := range values {
			data.Add(key, value)
		}
	}
	data.Set(form.usernameFieldOr("username"), creds.Username)
	data.Set(form.passwordFieldOr("password"), creds.Password)
	logger.Debug("submitting login form",
		logging.Int("hidden_fields", len(form.hidden)),
		logging.String("username_field", form.usernameFieldOr("username")),
	)

	target := c.loginURL
	if form.action != "" {
		if ref, err := url.Parse(form.action); err == nil {
			if base, err := url.Parse(c.loginURL); err == nil {
				target = base.ResolveReference(ref).String()
			}
		}
	}

	body, status, err := c.fetchPage(ctx, http.MethodPost, target, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return services.Wrap(services.ErrAuthentication, "portal", "login", fmt.Sprintf("login returned status %d", status), nil)
	}
	if parseLoginForm(body).hasPassword() {
		return services.Wrap(services.ErrAuthentication, "portal", "login", "credentials rejected", nil)
	}
	logger.Info("login succeeded")
	return nil
}

func (f loginForm) usernameFieldOr(fallback string) string {
	if f.usernameField != "" {
		return f.usernameField
	}
	return fallback
}

func (f loginForm) passwordFieldOr(fallback string) string {
	if f.passwordField != "" {
		return f.passwordField
	}
	return fallback
}

// fetchPage returns the body and final status of a login request. Transport
// failures are network errors; status handling is left to the caller.
func (c *Client) fetchPage(ctx context.Context, method, target string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrConfiguration, "portal", "build request", target, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.client.Do(c.newRequest(req))
	if err != nil {
		return nil, 0, services.Wrap(services.ErrNetwork, "portal", strings.ToLower(method)+" login page", target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLoginPage))
	if err != nil {
		return nil, resp.StatusCode, services.Wrap(services.ErrNetwork, "portal", "read login page", target, err)
	}
	return data, resp.StatusCode, nil
}

// parseLoginForm walks the page for the first form holding a password input,
// collecting its hidden inputs and the names of its credential fields. Pages
// without such a form yield an empty loginForm.
func parseLoginForm(page []byte) loginForm {
	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return loginForm{}
	}

	var forms []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "form" {
			forms = append(forms, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	// Inputs outside any form still count, since some portals render the
	// login fields without a form element.
	if len(forms) == 0 {
		forms = append(forms, doc)
	}
	for _, node := range forms {
		form := collectInputs(node)
		if form.hasPassword() {
			return form
		}
	}
	return loginForm{}
}

func collectInputs(root *html.Node) loginForm {
	form := loginForm{hidden: url.Values{}, action: attr(root, "action")}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			name := attr(n, "name")
			switch strings.ToLower(attr(n, "type")) {
			case "hidden":
				if name != "" {
					form.hidden.Add(name, attr(n, "value"))
				}
			case "password":
				if form.passwordField == "" {
					form.passwordField = name
					if name == "" {
						form.passwordField = "password"
					}
				}
			case "", "text", "email":
				if form.usernameField == "" && name != "" {
					form.usernameField = name
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return form
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
