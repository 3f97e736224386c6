package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

const (
	eventProgress = "progress"
	eventResult   = "result"
	eventError    = "error"
)

var errStreamingUnsupported = errors.New("response writer does not support streaming")

// eventStream writes numbered server-sent events, flushing after each one.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

func openEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher, nextID: 1}, nil
}

func (s *eventStream) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	frame := "id: " + strconv.Itoa(s.nextID) + "\nevent: " + event + "\ndata: " + string(data) + "\n\n"
	if _, err := s.w.Write([]byte(frame)); err != nil {
		return err
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

// close ends the stream with an error event when ctx was cancelled, otherwise with the result.
func (s *eventStream) close(ctx context.Context, result any) error {
	if err := ctx.Err(); err != nil {
		return s.send(eventError, map[string]string{"error": err.Error()})
	}
	return s.send(eventResult, result)
}
