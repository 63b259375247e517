// internal/app/system/auth/visitor.go
package auth

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// ErrBadVisitorToken is returned when a chat token is missing, forged or expired.
var ErrBadVisitorToken = errors.New("invalid chat token")

// VisitorTokenHeader carries the chat token on visitor requests. Websocket
// clients pass it as the "token" query parameter instead.
const VisitorTokenHeader = "X-Chat-Token"

const visitorTokenName = "chat-visitor"

// VisitorTokens issues signed tokens binding an anonymous visitor to one
// chat session id, so the public chat endpoints only serve the visitor who
// opened the session.
type VisitorTokens struct {
	codec *securecookie.SecureCookie
}

type visitorClaims struct {
	SessionID string
	VisitorID string
}

// NewVisitorTokens derives a signing key from secret (the session key).
func NewVisitorTokens(secret string, maxAge time.Duration) *VisitorTokens {
	sum := sha256.Sum256([]byte("chat-visitor:" + secret))
	codec := securecookie.New(sum[:], nil)
	codec.MaxAge(int(maxAge.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &VisitorTokens{codec: codec}
}

// Issue returns a token for sessionID/visitorID.
func (t *VisitorTokens) Issue(sessionID, visitorID string) (string, error) {
	return t.codec.Encode(visitorTokenName, visitorClaims{SessionID: sessionID, VisitorID: visitorID})
}

// Verify checks token and returns the session and visitor ids it was issued for.
func (t *VisitorTokens) Verify(token string) (sessionID, visitorID string, err error) {
	if token == "" {
		return "", "", ErrBadVisitorToken
	}
	var c visitorClaims
	if err := t.codec.Decode(visitorTokenName, token, &c); err != nil {
		return "", "", ErrBadVisitorToken
	}
	return c.SessionID, c.VisitorID, nil
}

// FromRequest reads the token from the header or the "token" query parameter.
func FromRequest(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get(VisitorTokenHeader)); tok != "" {
		return tok
	}
	return r.URL.Query().Get("token")
}
