package httpx

import (
	"io"
	"net/http"
)

// healthHandler answers liveness probes. It deliberately touches no backing
// store: a wedged database surfaces through the API, not the restart loop.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	// A write error here means the prober went away.
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}
