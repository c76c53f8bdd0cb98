package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alienxp03/santa/internal/core"
	"github.com/alienxp03/santa/internal/draw"
)

// keepAlive is how often an idle stream gets a comment line.
const keepAlive = 25 * time.Second

// handleEvents streams the round events of a game using Server-Sent Events.
// Interactive games start with a snapshot of the current round.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.logger.Debug("New event stream connection", "id", id, "remote_addr", r.RemoteAddr)

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel, err := h.engine.Subscribe(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer cancel()

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	game, err := h.engine.GetGame(id)
	if err != nil {
		h.sendSSEError(w, flusher, err.Error())
		return
	}
	if game.Mode == core.ModeInteractive {
		snap, err := h.engine.Round(id)
		if err != nil {
			h.sendSSEError(w, flusher, err.Error())
			return
		}
		h.sendSSEEvent(w, flusher, "round", snap)
	} else {
		h.sendSSEEvent(w, flusher, "game", game)
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("Event stream closed by client", "id", id)
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				h.logger.Debug("Event stream ended", "id", id)
				h.sendSSEEvent(w, flusher, "closed", map[string]string{"id": id})
				return
			}
			h.sendSSEEvent(w, flusher, string(ev.Type), ev)
			if ev.Type == draw.EventFinished && game.Mode == core.ModeBatch {
				return
			}
		}
	}
}

// sendSSEEvent sends a server-sent event.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		h.logger.Error("Failed to write SSE event", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		h.logger.Error("Failed to write SSE data", "error", err)
		return
	}
	flusher.Flush()
}

// sendSSEError sends an error event.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	errorData := map[string]string{"message": message}
	h.sendSSEEvent(w, flusher, "error", errorData)
}
