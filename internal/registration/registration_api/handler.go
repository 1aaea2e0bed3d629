package registration_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"ms-registration/internal/auth"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/registration"
	regdb "ms-registration/internal/registration/db"
	"ms-registration/internal/utils"
)

type Handler struct {
	Service   *registration.Service
	Logger    *logger.Logger
	QRBaseURL string
}

func NewHandler(service *registration.Service, log *logger.Logger, qrBaseURL string) *Handler {
	return &Handler{
		Service:   service,
		Logger:    log,
		QRBaseURL: qrBaseURL,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.CreateRegistration)
		r.Get("/count", h.GetTotalCount)
		r.Get("/qrcode/{qrCode}", h.LookupByQRCode)
		r.Get("/{registrationId}", h.GetRegistration)
		r.Put("/{registrationId}", h.UpdateRegistration)
		r.Delete("/{registrationId}", h.DeleteRegistration)
		r.Get("/{registrationId}/qrcode", h.GetQRCode)
		r.Post("/{registrationId}/qrcode/regenerate", h.RegenerateQRCode)
		r.Post("/{registrationId}/checkin", h.CheckIn)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

// writeError maps service errors onto the response envelope and HTTP status.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var valErr *registration.ValidationError
	var bizErr *registration.BusinessRuleError

	switch {
	case errors.As(err, &valErr):
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Validation failed", valErr.Errors...))
	case errors.As(err, &bizErr):
		h.writeJSON(w, http.StatusConflict, utils.ErrorResponse(bizErr.Message))
	case errors.Is(err, regdb.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Registration not found"))
	case errors.Is(err, registration.ErrNoQRCode):
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Registration has no QR code"))
	case errors.Is(err, registration.ErrInvalidQRCode):
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid QR code"))
	default:
		h.Logger.Error("API", fmt.Sprintf("internal error: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error"))
	}
}

func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req models.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateRegistration: bad request body: %v", err))
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	requesterID := auth.UserID(r.Context())
	if requesterID == "" {
		// Routed without the OIDC middleware; fall back to the raw token.
		if token, err := auth.ExtractTokenFromRequest(r); err == nil {
			requesterID, _ = auth.ExtractUserIDFromJWT(token)
		}
	}
	reg, err := h.Service.Create(r.Context(), req, requesterID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateRegistration: %v", err))
		h.writeError(w, err)
		return
	}

	h.Logger.LogRegistration("CREATED", reg.RegistrationID, "registration persisted")
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Registration created", reg))
}

func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")

	detail, err := h.Service.Get(r.Context(), registrationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Registration retrieved", detail))
}

func (h *Handler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")

	var upd models.RegistrationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	reg, err := h.Service.Update(r.Context(), registrationID, upd)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Registration updated", reg))
}

func (h *Handler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")

	if err := h.Service.Delete(r.Context(), registrationID); err != nil {
		h.writeError(w, err)
		return
	}

	h.Logger.LogRegistration("DELETED", registrationID, "registration removed")
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Registration deleted", nil))
}

func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")

	filename, err := h.Service.GetQRCode(r.Context(), registrationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("QR code retrieved", models.QRCodeResponse{
		RegistrationID: registrationID,
		QRCode:         filename,
		URL:            path.Join(h.QRBaseURL, filename),
	}))
}

func (h *Handler) RegenerateQRCode(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")

	filename, err := h.Service.RegenerateQRCode(r.Context(), registrationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("QR code regenerated", models.QRCodeResponse{
		RegistrationID: registrationID,
		QRCode:         filename,
		URL:            path.Join(h.QRBaseURL, filename),
	}))
}

func (h *Handler) LookupByQRCode(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "qrCode")

	detail, err := h.Service.LookupByQRPayload(r.Context(), raw)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Registration matched", detail))
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")

	reg, err := h.Service.CheckIn(r.Context(), registrationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Check-in recorded", reg))
}

func (h *Handler) GetTotalCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.TotalCount(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Total registrations", map[string]int{"count": count}))
}
