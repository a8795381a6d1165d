package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/tzoverlap/libs/httpx"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/evaluator"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/storage"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/zoned"
)

// ParticipantStore persists named work windows.
type ParticipantStore interface {
	Create(ctx context.Context, p storage.Participant) (storage.Participant, error)
	Get(ctx context.Context, id string) (storage.Participant, error)
	List(ctx context.Context, limit int) ([]storage.Participant, error)
}

type OverlapHandler struct {
	svc          *evaluator.Service
	participants ParticipantStore
	logger       *slog.Logger
}

// NewOverlapHandler wires the HTTP surface. participants may be nil, which
// disables the participant directory endpoints.
func NewOverlapHandler(svc *evaluator.Service, participants ParticipantStore, logger *slog.Logger) *OverlapHandler {
	return &OverlapHandler{svc: svc, participants: participants, logger: logger}
}

func (h *OverlapHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/overlap", h.Overlap)
	mux.HandleFunc("/api/v1/participants", h.Participants)
	mux.HandleFunc("/api/v1/participants/overlap", h.ParticipantsOverlap)
}

// Overlap evaluates two work windows given as query parameters (GET) or a
// JSON body (POST).
func (h *OverlapHandler) Overlap(w http.ResponseWriter, r *http.Request) {
	var req evaluator.Request
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req = evaluator.Request{
			TZ1:    q.Get("tz1"),
			Start1: q.Get("start1"),
			End1:   q.Get("end1"),
			TZ2:    q.Get("tz2"),
			Start2: q.Get("start2"),
			End2:   q.Get("end2"),
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	default:
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	view, err := h.svc.Evaluate(r.Context(), req)
	if err != nil {
		h.writeEvalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *OverlapHandler) writeEvalError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, evaluator.ErrMissingInput):
		httpx.WriteError(w, http.StatusBadRequest, "Please fill in all fields.")
	case errors.Is(err, zoned.ErrInvalidWallClock):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, zoned.ErrInvalidZone):
		httpx.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("overlap evaluation failed", "request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "evaluation failed")
	}
}

type createParticipantRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type participantItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Timezone        string `json:"timezone"`
	Start           string `json:"start"`
	End             string `json:"end"`
	CrossesMidnight bool   `json:"crosses_midnight"`
	CreatedAt       string `json:"created_at"`
}

func toParticipantItem(p storage.Participant) participantItem {
	item := participantItem{
		ID:        p.ID,
		Name:      p.Name,
		Timezone:  p.Timezone,
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if win, err := p.Window(); err == nil {
		item.Start = win.Start.String()
		item.End = win.End.String()
		item.CrossesMidnight = win.CrossesMidnight()
	}
	return item
}

func (h *OverlapHandler) Participants(w http.ResponseWriter, r *http.Request) {
	if h.participants == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "participant directory disabled")
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.createParticipant(w, r)
	case http.MethodGet:
		if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
			h.getParticipant(w, r, id)
			return
		}
		h.listParticipants(w, r)
	default:
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *OverlapHandler) createParticipant(w http.ResponseWriter, r *http.Request) {
	var req createParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Name == "" || req.Timezone == "" || strings.TrimSpace(req.Start) == "" || strings.TrimSpace(req.End) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "name, timezone, start, and end are required")
		return
	}
	start, err := zoned.ParseWallClock(req.Start)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := zoned.ParseWallClock(req.End)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Oracle().Validate(req.Timezone); err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	p, err := h.participants.Create(r.Context(), storage.Participant{
		Name:        req.Name,
		Timezone:    req.Timezone,
		StartMinute: start.Minutes(),
		EndMinute:   end.Minutes(),
	})
	if err != nil {
		h.logger.Error("participant create failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create participant")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toParticipantItem(p))
}

func (h *OverlapHandler) getParticipant(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.participants.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "participant not found")
		return
	}
	if err != nil {
		h.logger.Error("participant lookup failed", "err", err, "participant_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load participant")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toParticipantItem(p))
}

func (h *OverlapHandler) listParticipants(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	list, err := h.participants.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("participant list failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list participants")
		return
	}
	items := make([]participantItem, 0, len(list))
	for _, p := range list {
		items = append(items, toParticipantItem(p))
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

// ParticipantsOverlap evaluates two stored participants, ?a=<id>&b=<id>.
func (h *OverlapHandler) ParticipantsOverlap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.participants == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "participant directory disabled")
		return
	}
	idA := strings.TrimSpace(r.URL.Query().Get("a"))
	idB := strings.TrimSpace(r.URL.Query().Get("b"))
	if idA == "" || idB == "" {
		httpx.WriteError(w, http.StatusBadRequest, "a and b are required")
		return
	}

	var windows [2]storage.Participant
	for i, id := range []string{idA, idB} {
		p, err := h.participants.Get(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "participant not found: "+id)
			return
		}
		if err != nil {
			h.logger.Error("participant lookup failed", "err", err, "participant_id", id)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to load participant")
			return
		}
		windows[i] = p
	}

	w1, err := windows[0].Window()
	if err != nil {
		h.writeEvalError(w, r, err)
		return
	}
	w2, err := windows[1].Window()
	if err != nil {
		h.writeEvalError(w, r, err)
		return
	}
	view, err := h.svc.EvaluateWindows(r.Context(), w1, w2)
	if err != nil {
		h.writeEvalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}
