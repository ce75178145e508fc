package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/hunter"
)

// sseMaxDuration is the maximum time an SSE stream may remain open.
const sseMaxDuration = 1 * time.Hour

// sseEvent represents an event sent via SSE.
type sseEvent struct {
	EventType string    `json:"event_type"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`

	// Results is populated only on the terminal "completed" event.
	Results []*domain.PaperResult `json:"results,omitempty"`
}

// streamBatchHunt handles POST /api/v1/papers/batch/stream (SSE).
// The batch runs server-side while per-item progress events stream to the
// client; the terminal event carries the full result list in request order.
func (s *Server) streamBatchHunt(w http.ResponseWriter, r *http.Request) {
	var req batchHuntRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	total := len(req.Identifiers)
	sendSSEEvent(w, flusher, sseEvent{
		EventType: "stream_started",
		Total:     total,
		Message:   fmt.Sprintf("batch hunt started for %d identifiers", total),
		Timestamp: time.Now(),
	})

	// Progress callbacks arrive from hunt goroutines; events are relayed
	// through a buffered channel so a slow client never blocks the batch.
	// When the buffer fills, intermediate progress events are dropped.
	progressCh := make(chan sseEvent, 100)
	done := make(chan []*domain.PaperResult, 1)

	go func() {
		results := s.hunter.BatchHunt(r.Context(), req.Identifiers, hunter.BatchOptions{
			MaxConcurrency: s.batchBound(req.MaxConcurrency),
			Progress: func(completed, total int, message string) {
				select {
				case progressCh <- sseEvent{
					EventType: "progress",
					Completed: completed,
					Total:     total,
					Message:   message,
					Timestamp: time.Now(),
				}:
				default:
				}
			},
		})
		done <- results
	}()

	deadlineTimer := time.NewTimer(sseMaxDuration)
	defer deadlineTimer.Stop()

	for {
		select {
		case <-r.Context().Done():
			// Client went away; BatchHunt observes the same context and
			// winds down on its own.
			return

		case <-deadlineTimer.C:
			sendSSEEvent(w, flusher, sseEvent{
				EventType: "timeout",
				Total:     total,
				Message:   "stream max duration exceeded",
				Timestamp: time.Now(),
			})
			return

		case event := <-progressCh:
			sendSSEEvent(w, flusher, event)

		case results := <-done:
			// Drain any progress events that raced with completion.
			for {
				select {
				case event := <-progressCh:
					sendSSEEvent(w, flusher, event)
					continue
				default:
				}
				break
			}
			sendSSEEvent(w, flusher, sseEvent{
				EventType: "completed",
				Completed: total,
				Total:     total,
				Message:   "batch hunt completed",
				Timestamp: time.Now(),
				Results:   results,
			})
			return
		}
	}
}

// sendSSEEvent writes a single SSE event to the response writer.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event sseEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
	flusher.Flush()
}
