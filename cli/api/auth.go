package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sistemabuses/busadmin/pkg/logger"
)

const (
	loginPath  = "/auth/login/"
	logoutPath = "/auth/logout/"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token. The request is sent without
// the current session's Authorization header. The returned session is not
// installed on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	body, err := c.doRequest(withoutAuth(ctx), http.MethodPost, loginPath,
		credentials{Username: username, Password: password}, nil)
	if err != nil {
		return nil, err
	}
	doc := gjson.ParseBytes(body)
	token := firstString(doc, "token", "key", "access")
	if token == "" {
		return nil, errors.New("login response did not include a token")
	}
	name := firstString(doc, "username", "user.username")
	if name == "" {
		name = username
	}
	return &Session{Token: token, Username: name, CreatedAt: time.Now().UTC()}, nil
}

// Logout invalidates the token on the backend. Failures are logged and
// swallowed; the caller always drops the local session.
func (c *Client) Logout(ctx context.Context) {
	if sess := c.Session(); !sess.Authenticated() {
		return
	}
	if _, err := c.doRequest(ctx, http.MethodPost, logoutPath, nil, nil); err != nil {
		logger.FromContext(ctx).Warn("logout request failed", "error", err)
	}
}

func firstString(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := doc.Get(p); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
