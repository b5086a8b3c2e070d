// event.go - Captured network event shape.
package refresh

import (
	"net/http"
	"strings"
	"time"
)

// NetworkEvent is one request/response pair captured in the page.
type NetworkEvent struct {
	Timestamp      time.Time         `json:"ts,omitempty"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Status         int               `json:"status"`
	RequestHeaders map[string]string `json:"request_headers,omitempty"`
	TabID          int               `json:"tab_id,omitempty"`
}

// OK reports a 2xx status.
func (e NetworkEvent) OK() bool {
	return e.Status >= http.StatusOK && e.Status < http.StatusMultipleChoices
}

// Header returns a request header by case-insensitive name.
func (e NetworkEvent) Header(name string) string {
	for k, v := range e.RequestHeaders {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
