package ikon

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Session is an authenticated handle to the Ikon site. It wraps the HTTP
// client (and its cookie jar) produced by a successful login. Sessions are
// replaced wholesale on expiry, never refreshed in place.
type Session struct {
	http      *resty.Client
	createdAt time.Time
}

func newSession(httpClient *resty.Client) *Session {
	return &Session{
		http:      httpClient,
		createdAt: time.Now(),
	}
}

// CreatedAt returns when this session was established
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// FetchRaw performs a cookie-authenticated GET against the given endpoint
// and returns the raw body and HTTP status. Classifying the status
// (auth expiry, transport failure) is the caller's job.
func (s *Session) FetchRaw(ctx context.Context, endpoint string) ([]byte, int, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		Get(endpoint)
	if err != nil {
		return nil, 0, err
	}
	return res.Body(), res.StatusCode(), nil
}
