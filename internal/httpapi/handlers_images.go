package httpapi

import "net/http"

type ImageResolver interface {
	Path(url string) (string, bool, error)
}

// ImagesHandler serves stored report images. Request paths are resolved
// through the image store so nothing outside its root is reachable.
type ImagesHandler struct {
	Store ImageResolver
}

func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	path, ok, err := h.Store.Path(r.URL.Path)
	if err != nil || !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, path)
}
