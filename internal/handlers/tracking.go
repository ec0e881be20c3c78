package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swiftcourier/trackingserver/internal/services"
	"github.com/swiftcourier/trackingserver/internal/store"
	"github.com/swiftcourier/trackingserver/types"
)

// TrackingHandler serves the public tracking lookup.
type TrackingHandler struct {
	packageService *services.PackageService
}

func NewTrackingHandler(packageService *services.PackageService) *TrackingHandler {
	return &TrackingHandler{packageService: packageService}
}

// TrackingRouter registers the public tracking route on the given router.
func TrackingRouter(r chi.Router, packageService *services.PackageService) {
	handler := NewTrackingHandler(packageService)
	r.Get("/{trackingNumber}", handler.Track)
}

// Track looks a package up by tracking number, ignoring case.
func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	trackingNumber := types.NormalizeTrackingNumber(chi.URLParam(r, "trackingNumber"))

	pkg, err := h.packageService.Track(r.Context(), trackingNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgPackageNotFound)
			return
		}
		writeInternalError(w, r, err, "failed to track package")
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}
