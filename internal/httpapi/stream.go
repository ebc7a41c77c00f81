package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Stream serves the activity feed over Server-Sent Events. Clients may narrow
// the feed with ?types=favorite_added,post_created; an empty filter means
// every event. Each frame carries the event type in the SSE event field so
// EventSource listeners can subscribe per type.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	if a.stream == nil {
		writeError(w, r, http.StatusServiceUnavailable, reasonInternal, "streaming disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "streaming unsupported")
		return
	}

	wanted := parseTypeFilter(r.URL.Query().Get("types"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The feed is long-lived; the server's WriteTimeout must not cut it.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ch := a.stream.Subscribe(r.Context())

	_, _ = fmt.Fprint(w, ": stream started\n\n")
	flusher.Flush()

	for event := range ch {
		if len(wanted) > 0 && !wanted[event.Type] {
			continue
		}
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
		flusher.Flush()
	}
}

func parseTypeFilter(raw string) map[string]bool {
	wanted := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			wanted[part] = true
		}
	}
	return wanted
}
