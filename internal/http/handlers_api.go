package httpx

import (
	"errors"
	"net/http"

	"github.com/twpol/personalmissioncontrol/internal/service"
)

// APIHandlers serves the dashboard's JSON data endpoints. Every endpoint
// reads through the session's account context; data for providers the
// session is not signed in with is simply absent from responses.
type APIHandlers struct {
	Tasks  *service.TaskService
	Email  *service.EmailService
	Habits *service.HabitService
}

// TaskLists returns the session's task lists.
// GET /api/tasks.
func (h *APIHandlers) TaskLists(w http.ResponseWriter, r *http.Request) {
	accounts, ok := AccountsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_session", Err: errors.New("no session")})
		return
	}
	lists, err := h.Tasks.Lists(r.Context(), accounts)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "task_lists_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

// TasksForList returns one list's tasks.
// GET /api/tasks/{list}.
func (h *APIHandlers) TasksForList(w http.ResponseWriter, r *http.Request) {
	accounts, ok := AccountsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_session", Err: errors.New("no session")})
		return
	}
	listID := r.PathValue("list")
	tasks, err := h.Tasks.Tasks(r.Context(), accounts, listID)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "tasks_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// EmailFolders returns the session's mail folder summaries.
// GET /api/email/folders.
func (h *APIHandlers) EmailFolders(w http.ResponseWriter, r *http.Request) {
	accounts, ok := AccountsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_session", Err: errors.New("no session")})
		return
	}
	folders, err := h.Email.Folders(r.Context(), accounts)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "email_folders_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// HabitList returns the session's habits.
// GET /api/habits.
func (h *APIHandlers) HabitList(w http.ResponseWriter, r *http.Request) {
	accounts, ok := AccountsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_session", Err: errors.New("no session")})
		return
	}
	habits, err := h.Habits.Habits(r.Context(), accounts)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "habits_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"habits": habits})
}

// Accounts returns the session's signed-in accounts.
// GET /api/accounts.
func (h *APIHandlers) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, ok := AccountsFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"accounts": []any{}})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"accounts": identitySummaries(accounts.Principal()),
	})
}
