package sse

import (
	"net/http"
	"time"

	"github.com/kbukum/livepage/logger"
)

// SetHeaders sets the response headers of an event stream.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
}

// Stream drains client's queue onto w until the request ends or the hub
// detaches the client. The client is always closed on return.
func Stream(w http.ResponseWriter, r *http.Request, client *Client) {
	defer client.Close()
	log := logger.Get("sse").WithFields(logger.Fields(logger.FieldSubscriberID, client.ID()))

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Event streams outlive the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.WithError(err).Debug("could not disable write deadline")
	}

	SetHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Debug("client connected", logger.Fields("remote_addr", r.RemoteAddr))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("client disconnected")
			return
		case frame, ok := <-client.Events():
			if !ok {
				log.Debug("client detached")
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
