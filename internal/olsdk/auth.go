package olsdk

import (
	"context"
	"fmt"
	"net/http"
)

type loginRequest struct {
	CSRF     string `json:"_csrf"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the server with a username and password and
// returns the session to persist. The credentials themselves are neither
// stored nor logged.
func Login(ctx context.Context, serverURL, email, password string) (*Session, error) {
	c, err := New(serverURL, nil)
	if err != nil {
		return nil, err
	}

	// The login page sets the pre-auth cookies and carries the CSRF token.
	getResp, err := c.client.R().
		SetContext(ctx).
		Get(loginPath)
	if err := handleAPIError(getResp, err, "login page"); err != nil {
		return nil, err
	}

	body, err := getResp.ToString()
	if err != nil {
		return nil, fmt.Errorf("login page body: %w", err)
	}

	csrf := extractCSRF(body)
	if csrf == "" {
		return nil, fmt.Errorf("login page: csrf token not found")
	}

	preCookies := getResp.Cookies()

	postResp, err := c.client.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetCookies(preCookies...).
		SetBodyJsonMarshal(&loginRequest{
			CSRF:     csrf,
			Email:    email,
			Password: password,
		}).
		Post(loginPath)
	if err != nil {
		return nil, fmt.Errorf("http request error: login: %w", err)
	}

	// A successful login replaces the session cookie with an authenticated
	// one. Same status code either way, so the cookie change is the signal.
	if postResp.StatusCode != http.StatusOK {
		return nil, ErrLoginFailed
	}

	sessionName := cookieSession
	if cookieValue(preCookies, cookieSessionCE) != "" || cookieValue(postResp.Cookies(), cookieSessionCE) != "" {
		sessionName = cookieSessionCE
	}

	before := cookieValue(preCookies, sessionName)
	after := cookieValue(postResp.Cookies(), sessionName)
	if after == "" || after == before {
		return nil, ErrLoginFailed
	}

	// Keep every cookie from both exchanges, the authenticated ones winning.
	// overleaf.com needs the routing cookie from the GET alongside the
	// session cookie from the POST.
	cookies := make(map[string]string)
	for _, ck := range preCookies {
		cookies[ck.Name] = ck.Value
	}
	for _, ck := range postResp.Cookies() {
		cookies[ck.Name] = ck.Value
	}

	return &Session{
		Cookies:   cookies,
		CSRF:      csrf,
		ServerURL: serverURL,
	}, nil
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
