package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ikonwatch/logger"
	"ikonwatch/pkg/errors"

	"github.com/go-resty/resty/v2"
)

const sinchAuthURL = "https://auth.sinch.com/oauth2/token"

// SinchConfig holds the Sinch SMS provider settings
type SinchConfig struct {
	KeyID      string
	KeySecret  string
	ProjectID  string
	FromNumber string
	ToNumbers  []string
	Region     string
}

// SinchNotifier sends SMS batches through the Sinch REST API. An OAuth2
// client-credentials token is cached and refreshed shortly before expiry.
type SinchNotifier struct {
	cfg  SinchConfig
	http *resty.Client
	log  *logger.Logger

	// overridable for tests
	authURL  string
	batchURL string

	token    string
	tokenExp time.Time
}

var _ Notifier = (*SinchNotifier)(nil)

// NewSinchNotifier creates an SMS notifier for the given Sinch project
func NewSinchNotifier(cfg SinchConfig) *SinchNotifier {
	return &SinchNotifier{
		cfg:      cfg,
		http:     resty.New().SetTimeout(time.Second * 15),
		log:      logger.ForComponent("sinch"),
		authURL:  sinchAuthURL,
		batchURL: fmt.Sprintf("https://zt.%s.sms.api.sinch.com/xms/v1/%s/batches", cfg.Region, cfg.ProjectID),
	}
}

// Name identifies the channel in logs
func (s *SinchNotifier) Name() string {
	return "sinch"
}

// Send dispatches one SMS batch to all configured recipients
func (s *SinchNotifier) Send(ctx context.Context, message string) error {
	token, err := s.accessToken(ctx)
	if err != nil {
		return err
	}

	var result struct {
		ID string `json:"id"`
	}
	res, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]interface{}{
			"from":            s.cfg.FromNumber,
			"to":              s.cfg.ToNumbers,
			"body":            message,
			"delivery_report": "none",
		}).
		SetResult(&result).
		ForceContentType("application/json").
		Post(s.batchURL)
	if err != nil {
		return errors.NewTransport("sinch", "batch request failed", err)
	}
	if err := s.classify(res.StatusCode(), "batch send"); err != nil {
		return err
	}

	s.log.Info().
		Str("batch_id", result.ID).
		Int("recipients", len(s.cfg.ToNumbers)).
		Msg("SMS batch sent")
	return nil
}

// accessToken returns a cached token or fetches a fresh one
func (s *SinchNotifier) accessToken(ctx context.Context) (string, error) {
	if s.token != "" && time.Now().Before(s.tokenExp) {
		return s.token, nil
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	res, err := s.http.R().
		SetContext(ctx).
		SetBasicAuth(s.cfg.KeyID, s.cfg.KeySecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&result).
		ForceContentType("application/json").
		Post(s.authURL)
	if err != nil {
		return "", errors.NewTransport("sinch", "token request failed", err)
	}
	if err := s.classify(res.StatusCode(), "token request"); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", errors.NewNotify("sinch", "token response carried no access token", nil)
	}

	s.token = result.AccessToken
	// refresh a minute early so an expiring token never rides into a batch send
	s.tokenExp = time.Now().Add(time.Duration(result.ExpiresIn)*time.Second - time.Minute)
	return s.token, nil
}

// classify maps a Sinch response status to the error taxonomy: client
// rejections are permanent, throttling and server failures are transient.
func (s *SinchNotifier) classify(status int, op string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusBadRequest:
		s.token = "" // a rejected token is not worth caching
		return errors.NewNotify("sinch", fmt.Sprintf("%s rejected with %d", op, status), nil)
	default:
		return errors.NewTransport("sinch", fmt.Sprintf("%s returned %d", op, status), nil)
	}
}
