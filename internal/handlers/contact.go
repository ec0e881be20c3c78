package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swiftcourier/trackingserver/internal/services"
	"github.com/swiftcourier/trackingserver/internal/validation"
)

const msgInvalidContact = "Invalid contact form data"

// ContactHandler serves the public contact form and the admin inbox.
type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRouter registers the public contact form route.
func ContactRouter(r chi.Router, contactService *services.ContactService) {
	handler := NewContactHandler(contactService)
	r.Post("/", handler.Submit)
}

// ContactAdminRouter registers the admin contact listing. Callers guard it
// with RequireAdmin.
func ContactAdminRouter(r chi.Router, contactService *services.ContactService) {
	handler := NewContactHandler(contactService)
	r.Get("/", handler.List)
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	input, err := readContact(r)
	if err != nil {
		var result validation.Result
		result.Add("", "malformed body")
		writeInvalid(w, msgInvalidContact, result)
		return
	}
	if result := validation.Validate(input); !result.OK() {
		writeInvalid(w, msgInvalidContact, result)
		return
	}

	contact, err := h.contactService.Submit(r.Context(), input)
	if err != nil {
		writeInternalError(w, r, err, "failed to store contact")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{
		Message: "Contact form submitted successfully",
		ID:      contact.ID,
	})
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contactService.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err, "failed to list contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}
