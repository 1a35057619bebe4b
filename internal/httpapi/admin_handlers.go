package httpapi

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"todoManagement/internal/apperr"
	"todoManagement/models"
	"todoManagement/repository"
)

type roleRequest struct {
	Role string `json:"role"`
}

func (r roleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required,
			validation.In(string(models.RoleUser), string(models.RoleAdmin)).Error("must be one of user, admin")),
	)
}

func (h *handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	p := repository.ListUsersParams{Active: q.optBool("is_active")}
	p.Skip, p.Limit = q.page()
	if err := q.err(); err != nil {
		h.fail(w, r, err)
		return
	}
	if raw := q.get("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			h.fail(w, r, apperr.BadRequest("Invalid role: "+raw+". Must be 'user' or 'admin'"))
			return
		}
		p.Role = &role
	}
	users, err := h.Users.List(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.InfoContext(r.Context(), "admin listed users", "admin", currentUser(r).Username)
	writeJSON(w, http.StatusOK, users)
}

// targetUser loads the user named in the path.
func (h *handler) targetUser(r *http.Request) (*models.User, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

func (h *handler) adminGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.targetUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) adminUpdateRole(w http.ResponseWriter, r *http.Request) {
	u, err := h.targetUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validationError(req.Validate()); err != nil {
		h.fail(w, r, err)
		return
	}
	admin := currentUser(r)
	role := models.Role(req.Role)
	if u.ID == admin.ID && role != models.RoleAdmin {
		h.fail(w, r, apperr.BadRequest("Cannot demote yourself from admin role"))
		return
	}
	if err := h.Users.UpdateRole(r.Context(), u.ID, role); err != nil {
		h.fail(w, r, gone(err, "User not found"))
		return
	}
	h.Logger.InfoContext(r.Context(), "admin changed user role",
		"admin", admin.Username, "user", u.Username, "from", u.Role, "to", role)
	h.writeUser(w, r, u.ID)
}

// adminToggleActive flips is_active on another account.
func (h *handler) adminToggleActive(w http.ResponseWriter, r *http.Request) {
	u, err := h.targetUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	admin := currentUser(r)
	if u.ID == admin.ID {
		h.fail(w, r, apperr.BadRequest("Cannot deactivate your own account"))
		return
	}
	if err := h.Users.SetActive(r.Context(), u.ID, !u.IsActive); err != nil {
		h.fail(w, r, gone(err, "User not found"))
		return
	}
	h.Logger.InfoContext(r.Context(), "admin changed user active status",
		"admin", admin.Username, "user", u.Username, "active", !u.IsActive)
	h.writeUser(w, r, u.ID)
}

func (h *handler) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.targetUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	admin := currentUser(r)
	if u.ID == admin.ID {
		h.fail(w, r, apperr.BadRequest("Cannot delete your own account"))
		return
	}
	if err := h.Users.Delete(r.Context(), u.ID); err != nil {
		h.fail(w, r, gone(err, "User not found"))
		return
	}
	h.Logger.InfoContext(r.Context(), "admin deleted user", "admin", admin.Username, "user", u.Username)
	writeMessage(w, "User "+u.Username+" successfully deleted")
}

func (h *handler) writeUser(w http.ResponseWriter, r *http.Request, id int64) {
	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if u == nil {
		h.fail(w, r, apperr.NotFound("User not found"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) adminListTodos(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	p := repository.ListTodosParams{Completed: q.optBool("completed"), OwnerID: q.optInt64("user_id")}
	p.Skip, p.Limit = q.page()
	if err := q.err(); err != nil {
		h.fail(w, r, err)
		return
	}
	todos, err := h.Todos.ListWithOwner(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

type overview struct {
	Users *models.UserStats `json:"users"`
	Todos todoTotals        `json:"todos"`
}

type todoTotals struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

func (h *handler) adminStats(w http.ResponseWriter, r *http.Request) {
	us, err := h.Users.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ts, err := h.Todos.Stats(r.Context(), nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview{
		Users: us,
		Todos: todoTotals{Total: ts.Total, Completed: ts.Completed, Pending: ts.Pending},
	})
}
