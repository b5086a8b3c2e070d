// handler.go - HTTP intake for extension network pushes.
package refresh

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/dev-console/gridmat/internal/util"
)

const maxPushBytes = 1 << 20

// Handler serves POST requests carrying either a JSON array of events or an
// object {"entries": [...]}.
type Handler struct {
	Watcher     *Watcher
	Credentials *CredentialStore
	Logger      *slog.Logger
}

type pushResult struct {
	Received  int  `json:"received"`
	Refreshed bool `json:"refreshed"`
	Captured  bool `json:"credentials_captured"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.JSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxPushBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		util.JSONError(w, http.StatusBadRequest, "request body too large")
		return
	}
	events, err := decodeEvents(body)
	if err != nil {
		util.JSONError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var res pushResult
	res.Received = len(events)
	for _, ev := range events {
		if h.Credentials != nil && h.Credentials.Capture(ev) {
			res.Captured = true
			h.logger().Info("credentials captured", "instance", util.ExtractOrigin(ev.URL))
		}
		if h.Watcher != nil && h.Watcher.Observe(ev) {
			res.Refreshed = true
		}
	}
	util.JSONResponse(w, http.StatusOK, res)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func decodeEvents(body []byte) ([]NetworkEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var events []NetworkEvent
		err := json.Unmarshal(body, &events)
		return events, err
	}
	var payload struct {
		Entries []NetworkEvent `json:"entries"`
	}
	err := json.Unmarshal(body, &payload)
	return payload.Entries, err
}
