package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openreel/reelrender/internal/db"
	"github.com/openreel/reelrender/internal/models"
	"github.com/openreel/reelrender/internal/queue"
	"github.com/openreel/reelrender/internal/render"
)

type Handler struct {
	db       *db.DB
	queue    *queue.Queue
	renderer *render.Renderer
}

func NewHandler(database *db.DB, q *queue.Queue, renderer *render.Renderer) *Handler {
	return &Handler{
		db:       database,
		queue:    q,
		renderer: renderer,
	}
}

// CreateRender handles POST /v1/renders
//
// By default the job is queued and processed asynchronously; poll
// GET /v1/renders/{id} for the result. With ?wait=true the render runs
// inline and the response carries the finished video URL.
func (h *Handler) CreateRender(w http.ResponseWriter, r *http.Request) {
	var req models.RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate
	if req.VoiceoverURL == "" {
		respondError(w, http.StatusBadRequest, "voiceover_url is required")
		return
	}

	stored, err := requestToJSONB(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unstorable request body")
		return
	}

	record := &models.Render{
		ID:      uuid.New().String(),
		Status:  models.RenderStatusQueued,
		Request: stored,
	}

	if err := h.db.CreateRender(r.Context(), record); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create render")
		return
	}

	// Synchronous path: render inline and return the video URL directly
	if r.URL.Query().Get("wait") == "true" {
		h.renderInline(w, r, record.ID, req)
		return
	}

	if err := h.queue.EnqueueRender(r.Context(), record.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue render")
		return
	}

	respondJSON(w, http.StatusAccepted, models.CreateRenderResponse{
		RenderID: record.ID,
		Status:   record.Status,
	})
}

func (h *Handler) renderInline(w http.ResponseWriter, r *http.Request, renderID string, req models.RenderRequest) {
	if err := h.db.UpdateRenderStatus(r.Context(), renderID, models.RenderStatusRunning); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update render")
		return
	}

	result, err := h.renderer.Render(r.Context(), renderID, req)
	if err != nil {
		h.db.UpdateRenderError(r.Context(), renderID, err.Error())
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.db.SetRenderResult(r.Context(), renderID, result.VideoURL); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store render result")
		return
	}

	respondJSON(w, http.StatusOK, models.RenderResultResponse{
		VideoURL: result.VideoURL,
		RenderID: result.RenderID,
	})
}

// GetRender handles GET /v1/renders/{id}
func (h *Handler) GetRender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.db.GetRender(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Render not found")
		return
	}

	respondJSON(w, http.StatusOK, models.RenderStatusResponse{
		RenderID:     record.ID,
		Status:       record.Status,
		VideoURL:     record.VideoURL,
		ErrorMessage: record.ErrorMessage,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	})
}

// ListRenders handles GET /v1/renders
// Query params:
//   - limit: max results (default 20, max 100)
func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}

	renders, err := h.db.ListRecentRenders(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list renders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"renders": renders,
		"count":   len(renders),
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	depth, err := h.queue.GetQueueLength(r.Context(), queue.QueueRender)
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  "queue unreachable",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"queue_depth": depth,
	})
}

// requestToJSONB converts the typed request into the stored JSONB form.
func requestToJSONB(req models.RenderRequest) (models.JSONB, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var stored models.JSONB
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return stored, nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
