package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swiftcourier/trackingserver/internal/services"
	"github.com/swiftcourier/trackingserver/internal/store"
	"github.com/swiftcourier/trackingserver/internal/validation"
)

const msgInvalidPackage = "Invalid package data"

// multipartOverhead is the room left for form fields next to the photo.
const multipartOverhead = 1 << 20

// PackageHandler provides the admin package endpoints.
type PackageHandler struct {
	packageService *services.PackageService
	maxBodyBytes   int64
}

// NewPackageHandler constructs a handler accepting photos up to maxPhotoBytes.
func NewPackageHandler(packageService *services.PackageService, maxPhotoBytes int64) *PackageHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = services.DefaultMaxPhotoBytes
	}
	return &PackageHandler{
		packageService: packageService,
		maxBodyBytes:   maxPhotoBytes + multipartOverhead,
	}
}

// PackageRouter registers admin package routes on the given router. Callers
// are expected to guard the router with RequireAdmin.
func PackageRouter(r chi.Router, packageService *services.PackageService, maxPhotoBytes int64) {
	handler := NewPackageHandler(packageService, maxPhotoBytes)

	r.Get("/", handler.ListPackages)
	r.Post("/", handler.CreatePackage)
	r.Route("/{packageID}", func(r chi.Router) {
		r.Put("/", handler.UpdatePackage)
		r.Delete("/", handler.DeletePackage)
	})
}

func (h *PackageHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.packageService.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err, "failed to list packages")
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (h *PackageHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	form, err := readPackageForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPackage)
		return
	}
	input, result := form.newPackage()
	if !result.OK() {
		writeInvalid(w, msgInvalidPackage, result)
		return
	}

	photo, file, err := form.openPhoto()
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPackage)
		return
	}
	if file != nil {
		defer file.Close()
	}

	created, err := h.packageService.Create(r.Context(), input, photo)
	if err != nil {
		if h.writePhotoError(w, err) {
			return
		}
		writeInternalError(w, r, err, "failed to create package")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *PackageHandler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "packageID")
	if err != nil {
		writeError(w, http.StatusNotFound, msgPackageNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	form, err := readPackageForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPackage)
		return
	}
	patch, result := form.patch()
	if !result.OK() {
		writeInvalid(w, msgInvalidPackage, result)
		return
	}

	photo, file, err := form.openPhoto()
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPackage)
		return
	}
	if file != nil {
		defer file.Close()
	}

	updated, err := h.packageService.Update(r.Context(), id, patch, photo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgPackageNotFound)
			return
		}
		if h.writePhotoError(w, err) {
			return
		}
		writeInternalError(w, r, err, "failed to update package")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *PackageHandler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "packageID")
	if err != nil {
		writeError(w, http.StatusNotFound, msgPackageNotFound)
		return
	}

	if err := h.packageService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgPackageNotFound)
			return
		}
		writeInternalError(w, r, err, "failed to delete package")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Package deleted successfully"})
}

func (h *PackageHandler) writePhotoError(w http.ResponseWriter, err error) bool {
	var result validation.Result
	switch {
	case errors.Is(err, services.ErrUnsupportedImage):
		result.Add(formFieldPhoto, "image type")
	case errors.Is(err, services.ErrImageTooLarge):
		result.Add(formFieldPhoto, "max size")
	default:
		return false
	}
	writeInvalid(w, msgInvalidPackage, result)
	return true
}
