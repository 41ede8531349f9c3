package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskhive.org/internal/access"
	"taskhive.org/internal/ids"
	"taskhive.org/internal/task"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Department  string `json:"department"`
	AssigneeID  string `json:"assignee_id"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type reassignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

type taskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Department  string    `json:"department,omitempty"`
	CreatorID   string    `json:"creator_id"`
	AssigneeID  string    `json:"assignee_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func taskResponseFrom(t *task.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    string(t.Category),
		Department:  t.Department,
		CreatorID:   t.CreatorID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	caller, ok := access.CallerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	category, ok := access.ParseCategory(req.Category)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "category must be \"work\" or \"personal\"")
		return
	}

	created, err := a.tasks.Create(r.Context(), caller, task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Department:  req.Department,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		handleTaskError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskResponseFrom(created))
}

func (a *API) handleTasksMine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, ok := access.CallerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	mine, err := a.tasks.ListMine(r.Context(), caller)
	if err != nil {
		handleTaskError(w, r, err)
		return
	}
	items := make([]taskResponse, 0, len(mine))
	for _, t := range mine {
		items = append(items, taskResponseFrom(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": items,
		"count": len(items),
	})
}

func (a *API) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	caller, ok := access.CallerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/tasks/")
	taskID, action, _ := strings.Cut(rest, "/")
	if taskID == "" || !ids.IsValid(taskID) {
		writeError(w, r, http.StatusNotFound, "task not found")
		return
	}

	switch {
	case action == "reassign":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		var req reassignRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.tasks.Reassign(r.Context(), caller, taskID, req.AssigneeID)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, taskResponseFrom(t))

	case action != "":
		writeError(w, r, http.StatusNotFound, "not found")

	case r.Method == http.MethodGet:
		t, err := a.tasks.Get(r.Context(), caller, taskID)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, taskResponseFrom(t))

	case r.Method == http.MethodPatch:
		var req updateTaskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.tasks.Update(r.Context(), caller, taskID, task.UpdateInput{
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, taskResponseFrom(t))

	case r.Method == http.MethodDelete:
		if err := a.tasks.Delete(r.Context(), caller, taskID); err != nil {
			handleTaskError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func handleTaskError(w http.ResponseWriter, r *http.Request, err error) {
	var denied *access.DeniedError
	switch {
	case errors.As(err, &denied):
		writeError(w, r, http.StatusForbidden, denied.Reason)
	case errors.Is(err, access.ErrNotFound), errors.Is(err, task.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "task not found")
	case errors.Is(err, task.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
