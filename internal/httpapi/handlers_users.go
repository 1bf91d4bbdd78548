package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/telemetry"
	"github.com/PabloPavan/alerta_api/internal/users"
)

type UsersService interface {
	Register(ctx context.Context, in *users.RegisterInput) (*users.User, error)
	Login(ctx context.Context, in *users.LoginInput) (*users.User, error)
	Get(ctx context.Context, id int64) (*users.User, error)
	List(ctx context.Context) ([]*users.User, error)
	Update(ctx context.Context, id int64, in *users.UpdateInput) (*users.User, error)
	Delete(ctx context.Context, id int64) error
	ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error
}

type UsersHandler struct {
	Service UsersService
}

// Register User
// @Summary Register user
// @Tags usuarios
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body UserRegisterDTO true "user"
// @Success 201 {object} users.User
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /usuarios/registrar [post]
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req UserRegisterDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	u, err := h.Service.Register(r.Context(), req.Input())
	if err != nil {
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "user registered",
		telemetry.LogString("event", "user.registered"),
		telemetry.LogString("api.client", clientLabel(r.Context())),
		telemetry.LogInt64("user.id", u.ID),
	)

	writeJSON(w, http.StatusCreated, u)
}

// Login User
// @Summary Check credentials
// @Tags usuarios
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body LoginDTO true "credentials"
// @Success 200 {object} users.User
// @Failure 401 {string} string
// @Failure 429 {string} string
// @Failure 500 {string} string
// @Router /usuarios/login [post]
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginDTO
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	u, err := h.Service.Login(r.Context(), &users.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		// bad input and bad credentials both answer 401
		if errors.Is(err, users.ErrInvalidCredentials) || apperrors.KindOf(err) == apperrors.KindInvalidInput {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		writeAppError(w, err)
		return
	}

	telemetry.LogInfo(r.Context(), "user logged in",
		telemetry.LogString("event", "user.login"),
		telemetry.LogString("api.client", clientLabel(r.Context())),
		telemetry.LogInt64("user.id", u.ID),
	)

	writeJSON(w, http.StatusOK, u)
}

// List Users
// @Summary List users
// @Tags usuarios
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} users.User
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /usuarios [get]
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetByID User
// @Summary Get user by id
// @Tags usuarios
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Success 200 {object} users.User
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /usuarios/{id} [get]
func (h *UsersHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Get(r.Context(), pathID(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Update User
// @Summary Update user profile
// @Tags usuarios
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Param body body UserUpdateDTO true "user"
// @Success 200 {object} users.User
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /usuarios/{id} [put]
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UserUpdateDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	u, err := h.Service.Update(r.Context(), pathID(r), req.Input())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ChangePassword User
// @Summary Change user password
// @Tags usuarios
// @Accept json
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Param body body PasswordChangeDTO true "passwords"
// @Success 204
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /usuarios/{id}/senha [put]
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordChangeDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeAppError(w, err)
		return
	}

	if err := h.Service.ChangePassword(r.Context(), pathID(r), req.OldPassword, req.NewPassword); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete User
// @Summary Delete user
// @Tags usuarios
// @Security ApiKeyAuth
// @Param id path int true "user id"
// @Success 204
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /usuarios/{id} [delete]
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), pathID(r)); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
