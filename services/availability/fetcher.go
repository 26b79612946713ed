package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ikonwatch/logger"
	"ikonwatch/pkg/errors"

	"github.com/cenkalti/backoff/v4"
)

// Session is the authenticated handle availability data is fetched with.
// It is produced by the login collaborator and consumed here.
type Session interface {
	// FetchRaw performs an authenticated GET against the endpoint and
	// returns the raw body and HTTP status
	FetchRaw(ctx context.Context, endpoint string) (body []byte, status int, err error)
}

// Record is one (pass, date) availability observation. Records are built
// fresh every cycle and never retained.
type Record struct {
	PassID string
	Date   string
	Open   bool
}

// passAvailability mirrors one entry of the reservation-availability payload
type passAvailability struct {
	ID                    string   `json:"id"`
	ReservationsAvailable int      `json:"reservations_available"`
	ClosedDates           []string `json:"closed_dates"`
	BlackoutDates         []string `json:"blackout_dates"`
	UnavailableDates      []string `json:"unavailable_dates"`
}

// Fetcher retrieves the raw availability payload through a session and
// normalizes it into Records for the desired dates.
type Fetcher struct {
	endpoint    string
	desired     []string
	maxRetries  int
	backoffBase time.Duration
	log         *logger.Logger
}

// NewFetcher creates a fetcher for the given endpoint and desired dates.
// maxRetries bounds the in-cycle retries on transport failures; a negative
// value means no retries (it would wrap to unbounded in the uint64
// conversion below otherwise).
func NewFetcher(endpoint string, desired []string, maxRetries int, backoffBase time.Duration) *Fetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Fetcher{
		endpoint:    endpoint,
		desired:     desired,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		log:         logger.ForComponent("fetcher"),
	}
}

// Fetch retrieves and parses one availability snapshot. Transport failures
// are retried up to the configured budget with short backoff; auth expiry
// and parse failures surface immediately so the scheduler can end the cycle
// (an expired session is not worth hammering, and a malformed payload will
// not fix itself within the cycle).
func (f *Fetcher) Fetch(ctx context.Context, sess Session) ([]Record, error) {
	var records []Record

	operation := func() error {
		body, status, err := sess.FetchRaw(ctx, f.endpoint)
		if err != nil {
			return errors.NewTransport("fetcher", "availability request failed", err)
		}
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return backoff.Permanent(errors.NewAuthExpired("fetcher",
				fmt.Sprintf("availability endpoint returned %d", status)))
		case status != http.StatusOK:
			return errors.NewTransport("fetcher",
				fmt.Sprintf("availability endpoint returned %d", status), nil)
		}

		records, err = f.parse(body)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.backoffBase
	bo.MaxElapsedTime = 0

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(f.maxRetries)), ctx),
		func(err error, wait time.Duration) {
			f.log.Warn().Err(err).Dur("retry_in", wait).Msg("Availability fetch failed, retrying")
		},
	)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// parse normalizes the raw payload into one Record per (pass, desired date).
// A desired date is open for a pass iff the pass still has reservations
// available and the date appears in none of the closed, blackout, and
// unavailable lists.
func (f *Fetcher) parse(body []byte) ([]Record, error) {
	var payload struct {
		Data *[]passAvailability `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewParse("fetcher", "availability payload is not valid JSON", err)
	}
	if payload.Data == nil {
		return nil, errors.NewParse("fetcher", "availability payload has no top-level data array", nil)
	}

	records := make([]Record, 0, len(*payload.Data)*len(f.desired))
	for _, pass := range *payload.Data {
		closed := NewDateSet(pass.ClosedDates...)
		blackout := NewDateSet(pass.BlackoutDates...)
		unavailable := NewDateSet(pass.UnavailableDates...)

		for _, date := range f.desired {
			open := pass.ReservationsAvailable >= 1 &&
				!closed.Has(date) && !blackout.Has(date) && !unavailable.Has(date)
			records = append(records, Record{PassID: pass.ID, Date: date, Open: open})
		}
	}
	return records, nil
}
