package report

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/logger"
)

const defaultListLimit = 50

// Handler exposes the Service over HTTP.
type Handler struct {
	service      *Service
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewHandler serves s. Request bodies above maxTextBytes plus a small
// allowance for the JSON envelope are rejected.
func NewHandler(s *Service, maxTextBytes int) *Handler {
	return &Handler{
		service:      s,
		maxBodyBytes: int64(maxTextBytes) + 64<<10,
		logger:       slog.Default().With("component", "report-handler"),
	}
}

// Register mounts the report routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/analyses", h.Submit)
	mux.HandleFunc("GET /api/v1/analyses", h.List)
	mux.HandleFunc("GET /api/v1/analyses/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/analyses/{id}/sections/{name}", h.Section)
}

// Submit accepts either a JSON Submission or, with Content-Type text/plain,
// the raw text with an optional ?title= query parameter.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	sub, err := decodeSubmission(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep, cached, err := h.service.Analyze(ctx, sub, SourceHTTP)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.fail(w, r, "analysis failed", err)
		return
	}

	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/api/v1/analyses/"+rep.ID)
	h.writeJSON(w, status, rep)
}

func decodeSubmission(r *http.Request) (*Submission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		text, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		return &Submission{Title: r.URL.Query().Get("title"), Text: string(text)}, nil
	}

	var sub Submission
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "report lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) Section(w http.ResponseWriter, r *http.Request) {
	sec, err := h.service.Section(r.Context(), r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		h.fail(w, r, "section lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sec)
}

// List accepts ?limit=N.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	summaries, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "report listing failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"reports": summaries})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err, "status_code", status)
	} else {
		log.Debug(msg, "error", err, "status_code", status)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.writeError(w, status, appErr.Message)
		return
	}
	h.writeError(w, status, msg)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
