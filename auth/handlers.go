package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tourtab/globals"
	"tourtab/rdx"
	"tourtab/structs"
	"tourtab/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func userSummary(u *structs.User) utils.M {
	return utils.M{"id": u.UserID, "name": u.Name, "email": u.Email}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.svc.Signup(r.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	cacheToken(res)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message":     "Account created successfully",
		"accessToken": res.Token,
		"user":        userSummary(res.User),
	})
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.svc.Signin(r.Context(), input.Email, input.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	cacheToken(res)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":     "Login successful",
		"accessToken": res.Token,
		"user":        userSummary(res.User),
	})
}

// Logout drops the cached session token; the JWT itself simply ages out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if _, err := rdx.RdxHdel("sessions", userID); err != nil {
		log.Printf("Error removing session from Redis: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logged out successfully"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), input.Email); err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "OTP sent to your email"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), input.Email, input.OTP, input.NewPassword); err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Password reset successfully"})
}

// cacheToken records the live session in Redis. A cache miss only disables
// explicit logout, so failures are logged and ignored.
func cacheToken(res *AuthResult) {
	if err := rdx.RdxHset("sessions", res.User.UserID, res.Token); err != nil {
		log.Printf("Failed to cache session token: %v", err)
	}
}

func respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingFields):
		utils.RespondWithError(w, http.StatusBadRequest, "All fields are required")
	case errors.Is(err, ErrEmailTaken):
		utils.RespondWithError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, ErrInvalidCredentials):
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, ErrUnknownEmail):
		utils.RespondWithError(w, http.StatusNotFound, "No account found with this email")
	case errors.Is(err, ErrCodeInvalid):
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, ErrSendFailed):
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to send OTP")
	default:
		log.Printf("auth error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
