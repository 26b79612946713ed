package ikon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form action="/session" method="post">
  <input type="hidden" name="authenticity_token" value="tok-123"/>
  <input type="text" name="email"/>
  <input type="password" name="password"/>
  <button type="submit">Log In</button>
</form>
</body></html>`

const loggedInPage = `<html><body>
<a data-testid="button" href="/myaccount/reservations/add/">Make a Reservation</a>
</body></html>`

// fakeIkon serves a login form that sets a session cookie on a correct
// credential POST, and renders the reservation button only with that cookie.
func fakeIkon(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("ikon_session"); err == nil && c.Value == "valid" {
			fmt.Fprint(w, loggedInPage)
			return
		}
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostFormValue("authenticity_token") != "tok-123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.PostFormValue("email") != "skier@example.com" || r.PostFormValue("password") != "hunter2" {
			fmt.Fprint(w, loginPage)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ikon_session", Value: "valid", Path: "/"})
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/api/availability", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("ikon_session"); err != nil || c.Value != "valid" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	})
	return httptest.NewServer(mux)
}

func TestLogin(t *testing.T) {
	srv := fakeIkon(t)
	defer srv.Close()

	client := NewClient(srv.URL+"/login", Credentials{Email: "skier@example.com", Password: "hunter2"})
	sess, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.CreatedAt().IsZero())

	// the session cookie must carry over into authenticated fetches
	body, status, err := sess.FetchRaw(context.Background(), srv.URL+"/api/availability")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}

func TestLoginBadCredentials(t *testing.T) {
	srv := fakeIkon(t)
	defer srv.Close()

	client := NewClient(srv.URL+"/login", Credentials{Email: "skier@example.com", Password: "wrong"})
	_, err := client.Login(context.Background())
	assert.ErrorContains(t, err, "login failed")
}

func TestLoginMissingFormFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>maintenance</p></body></html>`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{Email: "a@b.c", Password: "x"})
	_, err := client.Login(context.Background())
	assert.ErrorContains(t, err, "login form")
}

func TestFetchRawStatusPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	httpClient, err := newHTTPClient()
	require.NoError(t, err)
	sess := newSession(httpClient)

	_, status, err := sess.FetchRaw(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, status)
}
