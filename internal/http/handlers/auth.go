package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/mosque-donations/internal/accounts"
	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/http/respond"
	"github.com/hongminglow/mosque-donations/internal/log"
	"github.com/hongminglow/mosque-donations/internal/models/dto"
)

// AuthHandler owns register, login and current-user endpoints.
type AuthHandler struct {
	accounts *accounts.Service
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *accounts.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register attaches the public credential routes.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

// RegisterProtected attaches routes that need a verified caller.
func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Get("/me", h.handleMe)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.accounts.Register(r.Context(), accounts.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		MosqueID: req.MosqueID,
	})
	if err != nil {
		writeError(w, r, "register", err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).Info("user registered", log.FieldUserID, created.ID)
	respond.JSON(w, http.StatusCreated, "user registered successfully", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	token, user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	callerID, err := auth.CallerID(r.Context())
	if err != nil {
		writeError(w, r, "me", err)
		return
	}
	user, err := h.accounts.Me(r.Context(), callerID)
	if err != nil {
		writeError(w, r, "me", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}
