// Package api is the HTTP request layer: route parsing, JSON encoding, and
// status-code mapping over the chat facade. Sessions travel as a decimal
// session_id query parameter.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"relay/cmd/internal/chat"
	"relay/cmd/internal/store"
)

const defaultMaxBodyBytes = 1 << 20

// Handler wires the public routes to the chat facade.
type Handler struct {
	log *slog.Logger
	svc *chat.Service

	maxBodyBytes int64
}

// NewHandler constructs the route handler.
func NewHandler(log *slog.Logger, svc *chat.Service) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, svc: svc, maxBodyBytes: defaultMaxBodyBytes}
}

// Register wires the routes onto the provided mux. The alias routes
// (/getUsers, /sendActivity) are kept for client compatibility.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/users", h.handleUsers)
	mux.HandleFunc("/getUsers", h.handleUsers)
	mux.HandleFunc("/chats", h.handleChats)
	mux.HandleFunc("/messages", h.handleMessages)
	mux.HandleFunc("/devices", h.handleDevices)
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/logout", h.handleLogout)
	mux.HandleFunc("/message", h.handleMessage)
	mux.HandleFunc("/invite", h.handleInvite)
	mux.HandleFunc("/create", h.handleCreate)
	mux.HandleFunc("/heartbeat", h.handleHeartbeat)
	mux.HandleFunc("/sendActivity", h.handleHeartbeat)
	mux.HandleFunc("/getActivity", h.handleActivity)
}

// sessionUser validates the session_id query parameter and returns the owning
// user. On failure it writes 401 and reports done=false.
func (h *Handler) sessionUser(w http.ResponseWriter, r *http.Request) (store.UserID, bool) {
	uid, ok := h.svc.ValidateSession(r.URL.Query().Get("session_id"))
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_session", "missing or invalid session")
		return 0, false
	}
	return uid, true
}

// ---- reads ----

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	users, err := h.svc.Users(r.Context())
	if err != nil {
		h.log.Error("api.users.fail", "err", err)
		writeError(w, http.StatusNotFound, "storage_error", "could not list users")
		return
	}
	if users == nil {
		users = []store.User{}
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (h *Handler) handleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	uid, ok := h.sessionUser(w, r)
	if !ok {
		return
	}

	chats, err := h.svc.ChatsFor(r.Context(), uid)
	if err != nil {
		h.log.Error("api.chats.fail", "user_id", uid, "err", err)
		writeError(w, http.StatusNotFound, "storage_error", "could not list chats")
		return
	}
	if chats == nil {
		chats = []store.Chat{}
	}
	writeJSON(w, http.StatusOK, chatsResponse{Chats: chats})
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	chatID, err := strconv.ParseInt(r.URL.Query().Get("chat_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "chat_id must be a decimal integer")
		return
	}

	msgs, err := h.svc.MessagesIn(r.Context(), chatID)
	if err != nil {
		h.log.Error("api.messages.fail", "chat_id", chatID, "err", err)
		writeError(w, http.StatusBadRequest, "storage_error", "could not list messages")
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	writeJSON(w, http.StatusOK, messagesResponse{Messages: msgs})
}

func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	uid, ok := h.sessionUser(w, r)
	if !ok {
		return
	}

	devices, err := h.svc.DevicesFor(r.Context(), uid)
	if err != nil {
		h.log.Error("api.devices.fail", "user_id", uid, "err", err)
		writeError(w, http.StatusBadRequest, "storage_error", "could not list devices")
		return
	}
	if devices == nil {
		devices = []store.Device{}
	}
	writeJSON(w, http.StatusOK, devicesResponse{Devices: devices})
}

// ---- auth ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	id, err := h.svc.Register(r.Context(), req.Name, req.Surname, req.Password)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", "name and password are required")
			return
		}
		h.log.Error("api.register.fail", "err", err)
		writeError(w, http.StatusBadRequest, "storage_error", "could not register user")
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{UserID: id})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	sid, err := h.svc.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrUserNotFound), errors.Is(err, chat.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		default:
			h.log.Error("api.login.fail", "err", err)
			writeError(w, http.StatusUnauthorized, "server_error", "login failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{SessionID: sid, UserID: req.UserID})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	text := r.URL.Query().Get("session_id")
	if _, ok := h.svc.ValidateSession(text); !ok {
		writeError(w, http.StatusUnauthorized, "invalid_session", "missing or invalid session")
		return
	}

	sid, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "session_id must be a decimal integer")
		return
	}

	h.svc.Logout(sid)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	text := r.URL.Query().Get("session_id")
	sid, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_session", "missing or invalid session")
		return
	}

	if err := h.svc.Heartbeat(r.Context(), sid); err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_session", "missing or invalid session")
			return
		}
		h.log.Error("api.heartbeat.fail", "err", err)
		writeError(w, http.StatusBadRequest, "storage_error", "could not record activity")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req activityRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, activityResponse{Active: h.svc.IsActive(req.UserID)})
}

// ---- chat operations ----

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	uid, ok := h.sessionUser(w, r)
	if !ok {
		return
	}

	var req createChatRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	id, err := h.svc.CreateChatOwned(r.Context(), req.Title, req.Description, uid)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
			return
		}
		h.log.Error("api.create.fail", "err", err)
		writeError(w, http.StatusBadRequest, "storage_error", "could not create chat")
		return
	}
	writeJSON(w, http.StatusOK, createChatResponse{ChatID: id})
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, ok := h.sessionUser(w, r); !ok {
		return
	}

	var req inviteRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	if err := h.svc.Invite(r.Context(), req.UserID, req.ChatID); err != nil {
		h.log.Error("api.invite.fail", "err", err)
		writeError(w, http.StatusBadRequest, "storage_error", "could not invite user")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	uid, ok := h.sessionUser(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	if err := h.svc.Message(r.Context(), uid, req.ChatID, req.Content); err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", "content is required")
			return
		}
		h.log.Error("api.message.fail", "err", err)
		writeError(w, http.StatusBadRequest, "storage_error", "could not store message")
		return
	}
	w.WriteHeader(http.StatusOK)
}
