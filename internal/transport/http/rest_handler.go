package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"ochem-lab-service/internal/app"
	"ochem-lab-service/internal/domain"
	"ochem-lab-service/internal/logger"
	"ochem-lab-service/internal/structure"
)

// StructureLookup resolves compound structures for rendering.
type StructureLookup interface {
	Lookup(ctx context.Context, cid int) structure.Structure
	ResolveCID(ctx context.Context, name string) (int, error)
}

// RESTHandler serves the read-mostly surface around the widgets: activity
// outlines, learning-path progress and compound structures.
type RESTHandler struct {
	activities app.ActivityRepository
	paths      *app.PathService
	structures StructureLookup
	log        *logger.Logger
}

func NewRESTHandler(activities app.ActivityRepository, paths *app.PathService, structures StructureLookup, log *logger.Logger) *RESTHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RESTHandler{activities: activities, paths: paths, structures: structures, log: log}
}

// activityOutline never carries expected answers.
type activityOutline struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Chapter       int               `json:"chapter,omitempty"`
	PathID        string            `json:"pathId,omitempty"`
	ModuleID      string            `json:"moduleId,omitempty"`
	RequireAnswer bool              `json:"requireAnswer"`
	TimeLimit     float64           `json:"timeLimitSeconds,omitempty"`
	MaxScore      int               `json:"maxScore"`
	Steps         []domain.StepView `json:"steps"`
}

func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /activities/{id}", h.getActivity)
	mux.HandleFunc("GET /paths", h.listPaths)
	mux.HandleFunc("GET /paths/{learnerID}/{pathID}", h.getProgress)
	mux.HandleFunc("POST /paths/{learnerID}/{pathID}/modules/{moduleID}/toggle", h.toggleModule)
	if h.structures != nil {
		mux.HandleFunc("GET /structures/{cid}", h.getStructure)
		mux.HandleFunc("GET /compounds/{name}", h.getCompound)
	}
}

func (h *RESTHandler) getActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.activities.GetActivity(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := activityOutline{
		ID:            activity.ID,
		Title:         activity.Title,
		Chapter:       activity.Chapter,
		PathID:        activity.PathID,
		ModuleID:      activity.ModuleID,
		RequireAnswer: activity.RequireAnswer,
		TimeLimit:     activity.TimeLimit.Seconds(),
		MaxScore:      app.MaxScore(activity),
		Steps:         make([]domain.StepView, 0, len(activity.Steps)),
	}
	for _, step := range activity.Steps {
		out.Steps = append(out.Steps, domain.NewStepView(step))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RESTHandler) listPaths(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.paths.Paths())
}

func (h *RESTHandler) getProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.paths.Progress(r.Context(), r.PathValue("learnerID"), r.PathValue("pathID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *RESTHandler) toggleModule(w http.ResponseWriter, r *http.Request) {
	progress, err := h.paths.Toggle(r.Context(), r.PathValue("learnerID"), r.PathValue("pathID"), r.PathValue("moduleID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *RESTHandler) getStructure(w http.ResponseWriter, r *http.Request) {
	cid, err := strconv.Atoi(r.PathValue("cid"))
	if err != nil || cid <= 0 {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "bad_request", Message: "cid must be a positive integer"})
		return
	}
	writeJSON(w, http.StatusOK, h.structures.Lookup(r.Context(), cid))
}

// getCompound resolves a name first; an unknown name still answers with the fallback.
func (h *RESTHandler) getCompound(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cid, err := h.structures.ResolveCID(r.Context(), name)
	if err != nil {
		h.log.Debug("compound name not resolved", "name", name, "error", err)
		writeJSON(w, http.StatusOK, structure.Structure{Fallback: structure.FallbackText})
		return
	}
	writeJSON(w, http.StatusOK, h.structures.Lookup(r.Context(), cid))
}

func (h *RESTHandler) writeError(w http.ResponseWriter, err error) {
	code, status := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorPayload{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
