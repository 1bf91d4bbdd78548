package httpapi

import (
	"context"
	"net/http"
)

type ResourceService[T any] interface {
	Create(ctx context.Context, v *T) (*T, error)
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Update(ctx context.Context, id int64, v *T) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// ResourceHandler exposes a ResourceService as JSON CRUD endpoints. It backs
// /abrigos, /alertas and /mapas.
type ResourceHandler[T any] struct {
	Service ResourceService[T]
}

func (h *ResourceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	v := new(T)
	if err := decodeJSON(w, r, v); err != nil {
		writeAppError(w, err)
		return
	}

	created, err := h.Service.Create(r.Context(), v)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ResourceHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ResourceHandler[T]) GetByID(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.Get(r.Context(), pathID(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *ResourceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	v := new(T)
	if err := decodeJSON(w, r, v); err != nil {
		writeAppError(w, err)
		return
	}

	updated, err := h.Service.Update(r.Context(), pathID(r), v)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ResourceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), pathID(r)); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
