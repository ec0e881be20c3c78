package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/swiftcourier/trackingserver/internal/storage"
)

// UploadsRouter serves stored package photos by file name.
func UploadsRouter(r chi.Router, photos *storage.Storage) {
	r.Get("/{filename}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		if !storage.ValidKey(name) || name[0] == '.' {
			http.NotFound(w, r)
			return
		}

		object, err := photos.Get(r.Context(), name)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
				http.NotFound(w, r)
				return
			}
			writeInternalError(w, r, err, "failed to open upload")
			return
		}
		defer object.Close()

		if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, object)
	})
}
