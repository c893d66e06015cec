package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
	"github.com/BuzzLyutic/optimistic-todo/internal/repo"
	"github.com/BuzzLyutic/optimistic-todo/internal/service"
	"github.com/BuzzLyutic/optimistic-todo/pkg/respond"
)

type ItemHandler struct {
	service *service.ItemService
	logger  *zap.Logger
}

func NewItemHandler(srv *service.ItemService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req model.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	it, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/items/%d", it.ID))
	respond.JSON(w, r, http.StatusCreated, it)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	it, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, it)
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.list(w, r, filter)
}

// Active lists items that are not completed.
func (h *ItemHandler) Active(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.ItemFilter{Completed: model.Bool(false)})
}

// Completed lists items that are completed.
func (h *ItemHandler) Completed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, model.ItemFilter{Completed: model.Bool(true)})
}

func (h *ItemHandler) list(w http.ResponseWriter, r *http.Request, filter model.ItemFilter) {
	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, items)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req model.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	it, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, it)
}

// Delete answers with an empty object, matching what json-server clients expect.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, struct{}{})
}

func (h *ItemHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, cats)
}

func (h *ItemHandler) Priorities(w http.ResponseWriter, r *http.Request) {
	prios, err := h.service.Priorities(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, prios)
}

func (h *ItemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

// itemID parses the {id} URL param. A malformed id can never exist, so it is
// reported as not found.
func (h *ItemHandler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, r, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func parseFilter(r *http.Request) (model.ItemFilter, error) {
	var filter model.ItemFilter
	q := r.URL.Query()

	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := q.Get("priority"); v != "" {
		filter.Priority = &v
	}
	if v := q.Get("completed"); v != "" {
		done, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid completed value %q", v)
		}
		filter.Completed = &done
	}
	return filter, nil
}

func (h *ItemHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
