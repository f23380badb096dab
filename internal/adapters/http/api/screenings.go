package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/wellscreen/internal/adapters/repository"
	"github.com/okian/wellscreen/internal/domain/dedupe"
	"github.com/okian/wellscreen/internal/domain/model"
)

// ScreeningsHandler handles screening submissions and lookups.
type ScreeningsHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewScreeningsHandler creates a new screenings handler.
func NewScreeningsHandler(deps Dependencies, maxBodyBytes int64) *ScreeningsHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &ScreeningsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

type recordResponse struct {
	ID  string       `json:"id"`
	Doc model.Record `json:"doc"`
}

// HandlePostScreening handles POST /screenings requests.
func (h *ScreeningsHandler) HandlePostScreening(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_screening"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var sub model.Submission
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	subjectID := r.Header.Get(HeaderSubjectID)
	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))

	receipt, err := h.deps.Submit(r.Context(), subjectID, key, sub)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	status := http.StatusCreated
	if receipt.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}

// HandleGetScreening handles GET /screenings/{id} requests.
func (h *ScreeningsHandler) HandleGetScreening(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_screening"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/screenings/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}

	rec, err := h.deps.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{ID: id, Doc: rec})
}

// writeFailure maps upstream errors onto status codes. Unexpected errors
// are not echoed back to the client.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, dedupe.ErrInFlight):
		writeError(w, http.StatusConflict, "in_flight", WrapKind(op, ErrConflict, err))
	case errors.Is(err, repository.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
	}
}
