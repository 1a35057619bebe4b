package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"todoManagement/internal/apperr"
	"todoManagement/models"
	"todoManagement/repository"
)

var priorityRule = validation.In(string(models.PriorityLow), string(models.PriorityMedium), string(models.PriorityHigh)).
	Error("must be one of low, medium, high")

type createTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

func (r createTodoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 1000)),
		validation.Field(&r.Priority, validation.NilOrNotEmpty, priorityRule),
	)
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	IsCompleted *bool   `json:"is_completed"`
}

func (r updateTodoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 1000)),
		validation.Field(&r.Priority, validation.NilOrNotEmpty, priorityRule),
	)
}

func (h *handler) createTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validationError(req.Validate()); err != nil {
		h.fail(w, r, err)
		return
	}
	t := &models.Todo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.PriorityMedium,
		OwnerID:     currentUser(r).ID,
	}
	if req.Priority != nil {
		t.Priority = models.Priority(*req.Priority)
	}
	created, err := h.Todos.Create(r.Context(), t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listTodos(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	me := currentUser(r)
	p := repository.ListTodosParams{OwnerID: &me.ID, Completed: q.optBool("completed")}
	p.Skip, p.Limit = q.page()
	if raw := q.get("priority"); raw != "" {
		pr := models.Priority(raw)
		if !pr.Valid() {
			q.errs["priority"] = "must be one of low, medium, high"
		}
		p.Priority = &pr
	}
	if err := q.err(); err != nil {
		h.fail(w, r, err)
		return
	}
	todos, err := h.Todos.List(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (h *handler) todoStats(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	st, err := h.Todos.Stats(r.Context(), &me.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ownedTodo loads the todo named in the path and checks the caller owns it.
// A missing todo is reported before ownership so "absent" and "not yours" stay distinct.
func (h *handler) ownedTodo(ctx context.Context, r *http.Request, verb string) (*models.Todo, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	t, err := h.Todos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("Todo not found")
	}
	if t.OwnerID != currentUser(r).ID {
		return nil, apperr.Forbidden("Not authorized to " + verb + " this todo")
	}
	return t, nil
}

func (h *handler) getTodo(w http.ResponseWriter, r *http.Request) {
	t, err := h.ownedTodo(r.Context(), r, "access")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) updateTodo(w http.ResponseWriter, r *http.Request) {
	t, err := h.ownedTodo(r.Context(), r, "update")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := validationError(req.Validate()); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Priority != nil {
		t.Priority = models.Priority(*req.Priority)
	}
	if req.IsCompleted != nil {
		t.SetCompleted(*req.IsCompleted, time.Now())
	}
	if err := h.Todos.Update(r.Context(), t); err != nil {
		h.fail(w, r, gone(err, "Todo not found"))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) toggleTodo(w http.ResponseWriter, r *http.Request) {
	t, err := h.ownedTodo(r.Context(), r, "update")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t.SetCompleted(!t.IsCompleted, time.Now())
	if err := h.Todos.Update(r.Context(), t); err != nil {
		h.fail(w, r, gone(err, "Todo not found"))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	t, err := h.ownedTodo(r.Context(), r, "delete")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Todos.Delete(r.Context(), t.ID); err != nil {
		h.fail(w, r, gone(err, "Todo not found"))
		return
	}
	writeMessage(w, "Todo successfully deleted")
}
