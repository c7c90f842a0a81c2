package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"projex/backend/middleware"
	"projex/backend/services"
)

type AuthHandler struct {
	UserService *services.UserService
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{UserService: userService}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	if err := h.UserService.Register(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			writeMessage(w, http.StatusBadRequest, "User already exists.")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	token, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Dashboard greets the authenticated caller. Exists mostly as a smoke test for
// the auth middleware.
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountFromContext(r.Context())
	writeMessage(w, http.StatusOK, fmt.Sprintf("Hello user %s, welcome to your dashboard!", accountID))
}
