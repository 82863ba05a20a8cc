// Package olsdk is a minimal Overleaf API client.
//
// It supports cookie login, querying the project dashboard, downloading a
// project as a zip archive, uploading files and creating folders. The same
// endpoints work against overleaf.com and self-hosted Community Edition
// servers (which use a different session cookie name).
package olsdk

import (
	"time"

	"github.com/imroc/req/v3"
	"github.com/olsync/olsync/internal/version"
)

const (
	DefaultServerURL = "https://www.overleaf.com"

	loginPath    = "/login"
	projectPath  = "/project"
	downloadPath = "/project/%s/download/zip"
	uploadPath   = "/project/%s/upload"
	folderPath   = "/project/%s/folder"

	// Session cookie names. Which one the server sets tells overleaf.com
	// apart from a Community Edition instance.
	cookieSession   = "overleaf_session2"
	cookieSessionCE = "sharelatex.sid"
	cookieRoute     = "gke-route"
)

// Client is an authenticated Overleaf API client.
type Client struct {
	client  *req.Client
	baseURL string
	session *Session
}

// New creates a Client for baseURL using a previously persisted session.
func New(baseURL string, session *Session) (*Client, error) {
	if baseURL == "" {
		return nil, ErrNoServerURL
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetUserAgent("olsync/"+version.Version).
		SetTimeout(2 * time.Minute).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1 * time.Second)

	if session != nil {
		client.SetCommonCookies(session.HTTPCookies()...)
	}

	return &Client{
		client:  client,
		baseURL: baseURL,
		session: session,
	}, nil
}

// BaseURL returns the server this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
