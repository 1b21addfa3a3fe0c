package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coursehub/campus-api/internal/api"
)

// AuthHandler handles HTTP requests for authentication operations.
type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register a new account
// @Description  Creates a student or lecturer identity and returns an access token. Admin accounts cannot be created here.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body RegisterRequest true "Registration payload"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} map[string]interface{} "validation errors"
// @Failure      403 {object} map[string]interface{} "admin role rejected"
// @Failure      409 {object} map[string]interface{} "email already registered"
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, accessToken, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, AuthResponse{
		Message:     "User registered successfully.",
		User:        userResponse(user),
		AccessToken: accessToken,
	})
}

// Login godoc
// @Summary      Log in
// @Description  Authenticates email and password, returning an access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body LoginRequest true "Login payload"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} map[string]interface{} "validation errors"
// @Failure      401 {object} map[string]interface{} "invalid email or password"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, accessToken, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, AuthResponse{
		Message:     "Login successful.",
		User:        userResponse(user),
		AccessToken: accessToken,
	})
}

// Me godoc
// @Summary      Current identity
// @Description  Returns the identity bound to the bearer token.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} map[string]interface{} "invalid or expired token"
// @Failure      404 {object} map[string]interface{} "identity no longer exists"
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, userResponse(user))
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Anything
// unrecognized is a store-level failure and reads as a 500.
func (h *AuthHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *api.ValidationError
	switch {
	case errors.As(err, &validationErr):
		api.ValidationErrorResponse(w, r, validationErr.Fields)
	case errors.Is(err, api.ErrForbidden):
		api.ErrorResponse(w, r, http.StatusForbidden,
			"You cannot register as admin via this endpoint. Ask an existing admin to create your account.")
	case errors.Is(err, api.ErrConflict):
		api.ErrorResponse(w, r, http.StatusConflict, "Email is already registered.")
	case errors.Is(err, api.ErrUnauthenticated):
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, api.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "User not found.")
	default:
		h.logger.ErrorContext(r.Context(), "Unhandled service error", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
