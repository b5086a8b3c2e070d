// credentials.go - Bearer token capture from Dataverse API traffic.
package refresh

import (
	"strings"
	"sync"
	"time"

	"github.com/dev-console/gridmat/internal/util"
)

const apiPathMarker = "/api/data"

// Credentials are the last token and instance seen on an API request.
type Credentials struct {
	Token       string    `json:"-"`
	InstanceURL string    `json:"instance_url"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Valid reports whether both parts are present.
func (c Credentials) Valid() bool {
	return c.Token != "" && c.InstanceURL != ""
}

// CredentialStore holds the most recently captured Credentials.
type CredentialStore struct {
	mu    sync.RWMutex
	creds Credentials
	now   func() time.Time
}

// NewCredentialStore returns an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{now: time.Now}
}

// Capture records the Authorization header of requests to the Dataverse API.
// The "Bearer " prefix is stripped. Returns true when credentials changed.
func (s *CredentialStore) Capture(ev NetworkEvent) bool {
	if !strings.Contains(ev.URL, apiPathMarker) {
		return false
	}
	auth := strings.TrimSpace(ev.Header("Authorization"))
	origin := util.ExtractOrigin(ev.URL)
	if auth == "" || origin == "" {
		return false
	}
	token := auth
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		token = strings.TrimSpace(auth[7:])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds.Token == token && s.creds.InstanceURL == origin {
		return false
	}
	s.creds = Credentials{Token: token, InstanceURL: origin, CapturedAt: s.now()}
	return true
}

// Credentials returns the current credentials and whether any were captured.
func (s *CredentialStore) Credentials() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, s.creds.Valid()
}
