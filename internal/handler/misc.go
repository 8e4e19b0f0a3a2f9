package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
)

// Dashboard returns portfolio statistics for staff users
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	stats, err := h.svc.Stats(r.Context(), act)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Notifications lists the actor's notifications
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	list, err := h.svc.ListNotifications(r.Context(), act)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// MarkNotificationRead flags one of the actor's notifications as read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, lmserr.Validationf("invalid notification id"))
		return
	}
	if err := h.svc.MarkNotificationRead(r.Context(), act, id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Settings returns all system settings
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	settings, err := h.svc.ListSettings(r.Context(), act)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

type settingRequest struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// UpdateSetting creates or updates a system setting
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req settingRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.UpdateSetting(r.Context(), act, req.Key, req.Value, req.Description); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UploadDocument stores a multipart file against a loan
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id, err := loanID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// 16MB cap, matching the document store's purpose of holding
	// application paperwork rather than arbitrary blobs.
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		h.writeError(w, lmserr.Validationf("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, lmserr.Validationf("no file selected"))
		return
	}
	defer file.Close()

	saved, err := h.docs.Save(header.Filename, file)
	if err != nil {
		h.writeError(w, err)
		return
	}

	doc := &models.Document{
		Filename:         saved.Filename,
		OriginalFilename: header.Filename,
		FilePath:         saved.Path,
		FileType:         saved.Type,
		FileSize:         saved.Size,
	}
	if err := h.svc.AttachDocument(r.Context(), act, id, doc); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, doc)
}

// DownloadDocument streams a stored document
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, lmserr.Validationf("invalid document id"))
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), act, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	f, err := h.docs.Open(doc.FilePath)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.OriginalFilename+`"`)
	io.Copy(w, f)
}
