package handler

import (
	"net/http"

	"github.com/edumon-sync/internal/application/profile"
	"github.com/edumon-sync/internal/domain"
)

// maxPhotoSize caps the multipart body of a profile photo upload.
const maxPhotoSize = 10 << 20

// ProfileHandler handles the stored user's profile endpoints.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.Update(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	h.writeUser(w, r, u)
}

func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	u, err := h.svc.UploadPhoto(r.Context(), f, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		httpError(w, err)
		return
	}
	h.writeUser(w, r, u)
}

func (h *ProfileHandler) writeUser(w http.ResponseWriter, r *http.Request, u *domain.UserData) {
	complete, err := h.svc.Completeness(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u, ProfileComplete: complete})
}
