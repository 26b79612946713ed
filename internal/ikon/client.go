package ikon

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"ikonwatch/logger"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// loggedInMarker is the "Make a Reservation" button, only rendered for an
// authenticated account. Its presence is the login success signal.
const loggedInMarker = `a[data-testid="button"][href="/myaccount/reservations/add/"]`

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Credentials holds the Ikon account login
type Credentials struct {
	Email    string
	Password string
}

// Client logs in to the Ikon Pass site and produces authenticated sessions
type Client struct {
	loginURL string
	creds    Credentials
	log      *logger.Logger
}

// NewClient creates a new login client for the given login page URL
func NewClient(loginURL string, creds Credentials) *Client {
	return &Client{
		loginURL: loginURL,
		creds:    creds,
		log:      logger.ForComponent("ikon"),
	}
}

// newHTTPClient builds a fresh resty client with its own cookie jar.
// Every login attempt starts from a clean jar so a failed or expired
// session never leaks cookies into the next one.
func newHTTPClient() (*resty.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	httpClient.SetTimeout(time.Second * 30)

	// 2 requests max per second, burst of 2 so nothing is dropped
	rateLimiter := rate.NewLimiter(2, 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	return httpClient, nil
}

// Login authenticates against the Ikon site and returns a fresh session.
// The old session, if any, is simply abandoned; nothing is reused.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	loginError := func(err error) error {
		return fmt.Errorf("ikon login failed: %w", err)
	}

	httpClient, err := newHTTPClient()
	if err != nil {
		return nil, loginError(err)
	}

	res, err := httpClient.R().
		SetContext(ctx).
		Get(c.loginURL)
	if err != nil {
		return nil, loginError(fmt.Errorf("login page request: %w", err))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, loginError(fmt.Errorf("parse login page: %w", err))
	}

	// An ambient cookie state may already be valid (e.g. a warm CDN session)
	if len(doc.Find(loggedInMarker).Nodes) > 0 {
		c.log.Info().Msg("Already logged in, skipping login form")
		return newSession(httpClient), nil
	}

	formData, action, err := c.loginForm(doc)
	if err != nil {
		return nil, loginError(err)
	}

	_, err = httpClient.R().
		SetContext(ctx).
		SetFormData(formData).
		Post(action)
	if err != nil {
		return nil, loginError(fmt.Errorf("login form submit: %w", err))
	}

	res, err = httpClient.R().
		SetContext(ctx).
		Get(c.loginURL)
	if err != nil {
		return nil, loginError(fmt.Errorf("post-login page request: %w", err))
	}
	doc, err = goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, loginError(fmt.Errorf("parse post-login page: %w", err))
	}

	if len(doc.Find(loggedInMarker).Nodes) == 0 {
		return nil, loginError(fmt.Errorf("reservation button not found after login"))
	}

	c.log.Info().Msg("Login successful")
	return newSession(httpClient), nil
}

// loginForm locates the email/password form on the login page and returns
// the form fields to submit (hidden inputs included, so CSRF tokens
// survive) and the resolved action URL.
func (c *Client) loginForm(doc *goquery.Document) (map[string]string, string, error) {
	emailInput := doc.Find(`input[name="email"]`)
	passwordInput := doc.Find(`input[name="password"]`)
	if emailInput.Length() == 0 || passwordInput.Length() == 0 {
		return nil, "", fmt.Errorf("could not locate login form fields")
	}

	form := emailInput.Closest("form")
	formData := map[string]string{}
	form.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		formData[name] = s.AttrOr("value", "")
	})
	formData["email"] = c.creds.Email
	formData["password"] = c.creds.Password

	action := form.AttrOr("action", "")
	if action == "" {
		return formData, c.loginURL, nil
	}

	base, err := url.Parse(c.loginURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse login URL: %w", err)
	}
	ref, err := url.Parse(action)
	if err != nil {
		return nil, "", fmt.Errorf("parse form action %q: %w", action, err)
	}
	return formData, base.ResolveReference(ref).String(), nil
}
