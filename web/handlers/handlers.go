// Package handlers provides HTTP handlers for the web interface.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alienxp03/santa/internal/core"
	"github.com/alienxp03/santa/internal/engine"
	"github.com/alienxp03/santa/internal/export"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New creates a new Handler.
func New(eng *engine.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, logger: logger}
}

// Routes returns the router serving the API and the web page.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	h.RegisterRoutes(r)
	h.RegisterSPARoutes(r)
	return r
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Get("/games", h.handleListGames)
		r.Post("/games", h.handleCreateGame)

		r.Route("/games/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetGame)
			r.Delete("/", h.handleDeleteGame)

			r.Get("/participants", h.handleListParticipants)
			r.Post("/participants", h.handleAddParticipant)

			r.Post("/generate", h.handleGenerate)
			r.Get("/assignments", h.handleAssignments)
			r.Get("/export/{format}", h.handleExport)
			r.Get("/events", h.handleEvents)

			r.Route("/round", func(r chi.Router) {
				r.Get("/", h.handleRound)
				r.Get("/eligible", h.handleEligible)
				r.Post("/giver", h.handleChooseGiver)
				r.Post("/draw", h.handleDraw)
				r.Post("/confirm", h.handleConfirm)
				r.Post("/abandon", h.handleAbandon)
				r.Post("/rollback", h.handleRollback)
				r.Post("/reset", h.handleReset)
			})
		})
	})
}

// requestLogger logs each request through the handler's logger.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.json(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleListGames(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	games, err := h.engine.ListGames(limit, offset)
	if err != nil {
		h.fail(w, err)
		return
	}
	if games == nil {
		games = []*core.GameSummary{}
	}
	h.json(w, games)
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req core.NewGameConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Mode != "" && !req.Mode.Valid() {
		h.jsonError(w, fmt.Sprintf("invalid game mode: %s", req.Mode), http.StatusBadRequest)
		return
	}

	game, err := h.engine.CreateGame(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Location", "/api/games/"+game.ID)
	h.jsonStatus(w, game, http.StatusCreated)
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sheet, err := h.engine.Sheet(id)
	if err != nil {
		h.fail(w, err)
		return
	}

	pending := sheet.Pending()
	if pending == nil {
		pending = []core.Participant{}
	}
	h.json(w, map[string]interface{}{
		"game":         sheet.Game,
		"participants": sheet.Participants,
		"assignments":  sheet.Assignments,
		"pending":      core.Names(pending),
	})
}

func (h *Handler) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DeleteGame(id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	roster, err := h.engine.Participants(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.json(w, roster)
}

func (h *Handler) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p core.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.engine.AddParticipant(r.Context(), id, p); err != nil {
		h.fail(w, err)
		return
	}

	roster, err := h.engine.Participants(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.jsonStatus(w, roster, http.StatusCreated)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Generate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.json(w, result)
}

func (h *Handler) handleAssignments(w http.ResponseWriter, r *http.Request) {
	set, err := h.engine.Assignments(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.json(w, set)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	exporter, err := export.GetExporter(format)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sheet, err := h.engine.Sheet(id)
	if err != nil {
		h.fail(w, err)
		return
	}

	filename := export.GenerateFilename(sheet.Game, exporter.FileExtension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	if err := exporter.Export(sheet, w); err != nil {
		h.logger.Error("Export failed", "game", id, "format", format, "error", err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
	}
}

func (h *Handler) handleRound(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Round(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.json(w, snap)
}

func (h *Handler) handleEligible(w http.ResponseWriter, r *http.Request) {
	eligible, err := h.engine.Eligible(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.json(w, core.Names(eligible))
}

func (h *Handler) handleChooseGiver(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Giver string `json:"giver"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snap, err := h.engine.ChooseGiver(chi.URLParam(r, "id"), req.Giver)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.json(w, snap)
}

// handleDraw blocks for the spin. A client that disconnects mid-spin
// abandons the draw.
func (h *Handler) handleDraw(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	receiver, err := h.engine.Draw(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	snap, err := h.engine.Round(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.json(w, map[string]interface{}{
		"giver":    snap.CurrentGiver,
		"receiver": receiver,
		"round":    snap,
	})
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	commit, err := h.engine.Confirm(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := map[string]interface{}{
		"assignment": commit.Assignment,
		"finished":   commit.Finished,
		"notified":   commit.NotifyErr == nil,
	}
	if commit.NotifyErr != nil {
		resp["notify_error"] = commit.NotifyErr.Error()
	}
	h.json(w, resp)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.Abandon(id); err != nil {
		h.fail(w, err)
		return
	}
	h.handleRound(w, r)
}

func (h *Handler) handleRollback(w http.ResponseWriter, r *http.Request) {
	last, err := h.engine.Rollback(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.json(w, map[string]interface{}{"rolled_back": last})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Reset(chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	h.handleRound(w, r)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidParticipant),
		errors.Is(err, core.ErrInvalidGiver):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrDuplicateIdentity),
		errors.Is(err, core.ErrDrawInProgress),
		errors.Is(err, core.ErrDrawCancelled),
		errors.Is(err, core.ErrInvalidState),
		errors.Is(err, core.ErrGameFinished):
		return http.StatusConflict
	case errors.Is(err, core.ErrInsufficientParticipants),
		errors.Is(err, core.ErrNoEligibleReceivers):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
	}
	h.jsonError(w, err.Error(), code)
}

func (h *Handler) json(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
