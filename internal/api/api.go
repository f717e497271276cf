// Package api exposes the mail core's entry points over HTTP/JSON for
// external collaborators: command handlers, menu code, and join-event
// handlers call these instead of touching the service directly.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oumaimaa/mailvault/internal/mailbox"
	"github.com/oumaimaa/mailvault/internal/notify"
	"github.com/oumaimaa/mailvault/internal/session"
	"github.com/oumaimaa/mailvault/internal/store"
	"github.com/oumaimaa/mailvault/pkg/types"
)

// Server holds the HTTP handlers for the mail core.
type Server struct {
	svc      *mailbox.Service
	sessions *session.Registry
	gate     *notify.Gate
	logger   *logrus.Logger
}

// NewServer creates the API server.
func NewServer(svc *mailbox.Service, sessions *session.Registry, gate *notify.Gate, logger *logrus.Logger) *Server {
	return &Server{
		svc:      svc,
		sessions: sessions,
		gate:     gate,
		logger:   logger,
	}
}

// RegisterRoutes registers all API endpoints on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/mail", s.handleSendMail)
	mux.HandleFunc("GET /api/v1/mail/{id}", s.handleGetMail)
	mux.HandleFunc("POST /api/v1/mail/{id}/read", s.handleMarkRead)
	mux.HandleFunc("POST /api/v1/mail/{id}/claim", s.handleClaim)
	mux.HandleFunc("GET /api/v1/inbox/{recipient}", s.handleInbox)
	mux.HandleFunc("GET /api/v1/inbox/{recipient}/unread", s.handleUnread)
	mux.HandleFunc("DELETE /api/v1/inbox/{recipient}/read", s.handleClearRead)
	mux.HandleFunc("GET /api/v1/actors/{id}/stats", s.handleStats)
	mux.HandleFunc("POST /api/v1/connect", s.handleConnect)
	mux.HandleFunc("PUT /api/v1/sessions/{owner}", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{owner}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{owner}", s.handleRemoveSession)
}

// --- Mail ---

type sendMailRequest struct {
	SenderID      string   `json:"sender_id"`
	SenderName    string   `json:"sender_name"`
	RecipientID   string   `json:"recipient_id"`
	RecipientName string   `json:"recipient_name"`
	Body          string   `json:"body"`
	Attachments   [][]byte `json:"attachments,omitempty"`
}

func (s *Server) handleSendMail(w http.ResponseWriter, r *http.Request) {
	var req sendMailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mail, err := s.svc.SendMail(r.Context(), req.SenderID, req.SenderName, req.RecipientID, req.RecipientName, req.Body, req.Attachments)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mail)
}

func (s *Server) handleGetMail(w http.ResponseWriter, r *http.Request) {
	mail, err := s.svc.MailByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mail)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	mail, err := s.svc.MailByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	result, err := s.svc.ClaimItems(r.Context(), mail)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Inbox ---

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := s.svc.InboxPage(r.Context(), r.PathValue("recipient"), page, pageSize)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUnread(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.UnreadCount(r.Context(), r.PathValue("recipient"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (s *Server) handleClearRead(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.svc.ClearRead(r.Context(), r.PathValue("recipient"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- Connect events ---

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActorID string `json:"actor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required")
		return
	}
	accepted := s.gate.OnConnect(r.Context(), req.ActorID)
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": accepted})
}

// --- Sessions ---

type sessionResponse struct {
	OwnerID   string      `json:"owner_id"`
	Draft     *types.Mail `json:"draft"`
	CreatedAt string      `json:"created_at"`
}

func toSessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		OwnerID:   sess.OwnerID,
		Draft:     sess.Draft,
		CreatedAt: sess.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var draft types.Mail
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft")
		return
	}
	sess := s.sessions.Create(r.PathValue("owner"), &draft)
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("owner"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Remove(r.PathValue("owner"))
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// writeServiceError maps the error taxonomy onto HTTP statuses: validation
// errors are 400/404, state errors 409, storage errors 503.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mailbox.ErrRecipientNotFound), errors.Is(err, store.ErrMailNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, mailbox.ErrCannotSendToSelf),
		errors.Is(err, mailbox.ErrMessageEmpty),
		errors.Is(err, mailbox.ErrMessageTooLong),
		errors.Is(err, mailbox.ErrTooManyAttachments):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrAlreadyClaimed), errors.Is(err, store.ErrNoAttachments):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "mail store unavailable")
	default:
		s.logger.WithError(err).Error("Unhandled API error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
