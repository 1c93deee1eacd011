package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/service"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/middleware"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/validator"
)

var errMissingTaskDetails = apperrors.New("T01", "Missing task details", http.StatusBadRequest, apperrors.ErrInvalidInput)

// TaskHandler exposes the to-do list over HTTP. All routes require a bearer
// token; tasks are always scoped to the caller.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type taskRequest struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required,max=200"`
	IsCompleted bool      `json:"is_completed"`
	Ts          time.Time `json:"ts"`
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	tasks, err := h.tasks.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// Save handles POST /api/tasks: creates the task when id is absent, updates
// it otherwise.
func (h *TaskHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errMissingTaskDetails)
		return
	}
	if err := validator.Validate(req); err != nil {
		respondError(w, r, err)
		return
	}

	task, err := h.tasks.Save(r.Context(), userID, &domain.Task{
		ID:          req.ID,
		Name:        req.Name,
		IsCompleted: req.IsCompleted,
		Ts:          req.Ts,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	respondJSON(w, status, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || taskID <= 0 {
		respondError(w, r, apperrors.InvalidInput("task id must be a positive integer"))
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
