package olsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/olsync/olsync/internal/utils"
)

// Session is the persisted login state: the authenticated cookies and the
// CSRF token required by mutating endpoints. It is stored as a JSON blob
// (default `.olauth`); the raw credentials are never part of it.
type Session struct {
	Cookies   map[string]string `json:"cookie"`
	CSRF      string            `json:"csrf"`
	ServerURL string            `json:"server_url,omitempty"`
}

// HTTPCookies returns the session cookies in net/http form.
func (s *Session) HTTPCookies() []*http.Cookie {
	names := make([]string, 0, len(s.Cookies))
	for name := range s.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: s.Cookies[name]})
	}
	return cookies
}

// CookieHeader renders the session cookies as a Cookie header value, as
// needed by the socket.io handshake.
func (s *Session) CookieHeader() string {
	parts := make([]string, 0, len(s.Cookies))
	for _, c := range s.HTTPCookies() {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// SaveSession persists the session at path with owner-only permissions.
func SaveSession(path string, s *Session) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// LoadSession reads a persisted session. A missing or unreadable store is
// reported as ErrAuthRequired so callers can point the user at login.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session store %q: %w", path, ErrAuthRequired)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session store %q: %w", path, ErrAuthRequired)
	}

	if len(s.Cookies) == 0 || s.CSRF == "" {
		return nil, fmt.Errorf("session store %q is incomplete: %w", path, ErrAuthRequired)
	}

	return &s, nil
}
