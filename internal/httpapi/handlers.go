// Package httpapi is the thin JSON request layer over the ledger and profile
// services. The services own all semantics; handlers only decode, dispatch,
// and map errors to status codes.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pennywise-app/pennywise/internal/auth"
	"github.com/pennywise-app/pennywise/internal/files"
	"github.com/pennywise-app/pennywise/internal/ledger"
	"github.com/pennywise-app/pennywise/internal/models"
	"github.com/pennywise-app/pennywise/internal/profile"
	"github.com/pennywise-app/pennywise/internal/session"
	"github.com/pennywise-app/pennywise/internal/storage"
)

// Handler bundles the services the API exposes.
type Handler struct {
	ledger   *ledger.Service
	profiles *profile.Service
	sessions *session.Resolver
	files    files.Store
}

// New creates the API handler. files may be nil when no file storage is
// configured; the download endpoint then reports 404.
func New(l *ledger.Service, p *profile.Service, s *session.Resolver, f files.Store) *Handler {
	return &Handler{ledger: l, profiles: p, sessions: s, files: f}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/records", h.addRecord)
	mux.HandleFunc("PUT /api/records/{id}", h.updateRecord)
	mux.HandleFunc("DELETE /api/records/{id}", h.deleteRecord)
	mux.HandleFunc("POST /api/records/batch-delete", h.deleteRecordsBatch)
	mux.HandleFunc("GET /api/accounts/{id}/records", h.listRecords)
	mux.HandleFunc("PUT /api/session/account", h.selectAccount)
	mux.HandleFunc("GET /api/users/me", h.userInfo)
	mux.HandleFunc("PUT /api/users/me", h.updateProfile)
	mux.HandleFunc("PUT /api/users/me/avatar", h.updateAvatar)
	mux.HandleFunc("DELETE /api/users/me", h.deleteUser)
	mux.HandleFunc("GET /api/files/{name}", h.downloadFile)
}

type recordRequest struct {
	Amount          float64 `json:"amount"`
	Type            string  `json:"type"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	Method          string  `json:"method"`
	TransactionTime int64   `json:"transaction_time"`
}

func (r recordRequest) input() ledger.RecordInput {
	return ledger.RecordInput{
		Amount:          r.Amount,
		Type:            r.Type,
		Category:        r.Category,
		Description:     r.Description,
		Method:          r.Method,
		TransactionTime: r.TransactionTime,
	}
}

func (h *Handler) addRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := h.ledger.AddRecord(r.Context(), GetUserID(r.Context()), req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.ledger.UpdateRecord(r.Context(), r.PathValue("id"), req.input()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteRecord(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRecordsBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string   `json:"account_id"`
		RecordIDs []string `json:"record_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.ledger.DeleteRecordsBatch(r.Context(), req.AccountID, req.RecordIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	ctx := r.Context()

	var (
		records []models.TransactionRecord
		err     error
	)
	switch {
	case r.URL.Query().Get("days") != "":
		days, perr := strconv.Atoi(r.URL.Query().Get("days"))
		if perr != nil || days < 0 {
			writeError(w, http.StatusBadRequest, errors.New("days must be a non-negative integer"))
			return
		}
		records, err = h.ledger.ListRecent(ctx, accountID, days)
	case r.URL.Query().Get("type") != "":
		typ, perr := models.ParseRecordType(r.URL.Query().Get("type"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr)
			return
		}
		records, err = h.ledger.ListByAccountAndType(ctx, accountID, typ)
	default:
		records, err = h.ledger.ListByAccount(ctx, accountID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []models.TransactionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) selectAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		writeError(w, http.StatusBadRequest, errors.New("account_id required"))
		return
	}
	if err := h.sessions.SetCurrentAccount(r.Context(), GetUserID(r.Context()), req.AccountID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.profiles.UserInfo(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err := h.profiles.Update(r.Context(), GetUserID(r.Context()), profile.UpdateInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateAvatar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Avatar string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.profiles.UpdateAvatar(r.Context(), GetUserID(r.Context()), req.Avatar); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.Delete(r.Context(), GetUserID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		writeError(w, http.StatusNotFound, files.ErrFileNotFound)
		return
	}
	data, err := h.files.Download(r.Context(), GetUserID(r.Context()), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("file download write failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeServiceError maps service-layer errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrAccountNotFound),
		errors.Is(err, storage.ErrRecordNotFound),
		errors.Is(err, files.ErrFileNotFound),
		errors.Is(err, session.ErrNoActiveAccount):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ledger.ErrInvalidRecordType),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrBatchMismatch),
		errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, err)
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
