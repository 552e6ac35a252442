package handlers

import (
	"net/http"

	"github.com/Dias221467/Recovery_Tracker/internal/services"
)

// UserHandler handles signup, login and the caller's own profile.
type UserHandler struct {
	Service *services.UserService
	Responder
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, debug bool) *UserHandler {
	return &UserHandler{
		Service:   service,
		Responder: Responder{Debug: debug},
	}
}

// SignupHandler handles POST /auth/signup.
func (h *UserHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}

	user, err := h.Service.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	h.Message(w, http.StatusCreated, "User created successfully", user)
}

// LoginHandler handles POST /auth/login with either an idToken or a password.
func (h *UserHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}

	var (
		result *services.AuthResult
		err    error
	)
	if req.IDToken != "" {
		result, err = h.Service.LoginWithToken(r.Context(), req.IDToken)
	} else {
		result, err = h.Service.Login(r.Context(), req.Email, req.Password)
	}
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, result)
}

// GetProfileHandler handles GET /user/profile.
func (h *UserHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, email := currentUser(r)
	user, err := h.Service.GetProfile(r.Context(), userID, email)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, user)
}

// UpdateProfileHandler handles PUT /user/profile.
func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	in, err := req.toUpdate()
	if err != nil {
		h.Error(w, r, err)
		return
	}

	userID, email := currentUser(r)
	user, err := h.Service.UpdateProfile(r.Context(), userID, email, in)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Profile updated successfully", user)
}

// DeleteAccountHandler handles DELETE /user/account.
func (h *UserHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	if err := h.Service.DeleteAccount(r.Context(), userID); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Account deleted", nil)
}
