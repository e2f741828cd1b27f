package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/helixml/greenhouse/infrastructure/api/jsonapi"
	"github.com/helixml/greenhouse/internal/dispatch"
)

// HeartbeatInterval is how often an idle event stream sends a comment line
// so proxies keep the connection open.
const HeartbeatInterval = 15 * time.Second

// StreamEvent is the data of one server-sent event.
type StreamEvent struct {
	Generation uint64         `json:"generation"`
	Loading    *bool          `json:"loading,omitempty"`
	Data       any            `json:"data,omitempty"`
	Meta       jsonapi.Meta   `json:"meta,omitempty"`
	Error      *jsonapi.Error `json:"error,omitempty"`
}

// eventStream writes text/event-stream frames and flushes after each one.
type eventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &eventStream{w: w, rc: http.NewResponseController(w)}
	if err := s.rc.Flush(); err != nil {
		return nil, fmt.Errorf("open event stream: %w", err)
	}
	return s, nil
}

// send writes one event named name. id is the dispatcher generation.
func (s *eventStream) send(name string, id uint64, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	if _, err := fmt.Fprintf(s.w, "id: %s\nevent: %s\ndata: %s\n\n", strconv.FormatUint(id, 10), name, body); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *eventStream) heartbeat() error {
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

// sendDispatch renders a dispatcher event. render converts a result value
// into the event's data and meta.
func sendDispatch[T any](s *eventStream, ev dispatch.Event[T], render func(T) (any, jsonapi.Meta)) error {
	payload := StreamEvent{Generation: ev.Generation}
	switch ev.Kind {
	case dispatch.EventLoading:
		loading := ev.Loading
		payload.Loading = &loading
	case dispatch.EventResult:
		payload.Data, payload.Meta = render(ev.Value)
	case dispatch.EventFailed:
		e := jsonapi.NewError(strconv.Itoa(http.StatusBadGateway), "Query Failed", ev.Err.Error())
		payload.Error = &e
	}
	return s.send(ev.Kind.String(), ev.Generation, payload)
}
