package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviedesk/movie-booking-api/internal/config"
	"github.com/moviedesk/movie-booking-api/internal/model"
	"github.com/moviedesk/movie-booking-api/internal/repository"
	"github.com/moviedesk/movie-booking-api/internal/utils"
)

// AuthHandler implements registration, login, token refresh/rotation,
// logout and profile management.
type AuthHandler struct {
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	cfg    config.Config
}

// NewAuthHandler wires an AuthHandler.
func NewAuthHandler(users *repository.UserRepo, tokens *repository.TokenRepo, cfg config.Config) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, cfg: cfg}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

type userResponse struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
}

// Register creates a customer account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	id, err := h.users.Create(ctx, req.Email, req.Password, req.FirstName, req.LastName, model.RoleUser, h.cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return respondError(c, http.StatusConflict, "email is already registered")
	}
	if err != nil {
		return fail(c, err)
	}
	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "registration successful", toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	AccessExp    int64  `json:"access_expires_at"`
	RefreshToken string `json:"refresh_token"`
	RefreshExp   int64  `json:"refresh_expires_at"`
}

// Login verifies credentials and issues an access/refresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return respondError(c, http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		return fail(c, err)
	}
	if !user.IsActive {
		return respondError(c, http.StatusForbidden, "account is deactivated")
	}
	if !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return respondError(c, http.StatusUnauthorized, "invalid email or password")
	}
	pair, err := h.issueTokens(c, user)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "login successful", echo.Map{
		"user":   toUserResponse(user),
		"tokens": pair,
	})
}

func (h *AuthHandler) issueTokens(c echo.Context, user *model.User) (tokenPair, error) {
	access, err := utils.NewAccessToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.AccessTTLMin)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(h.cfg.RefreshTTLDays)
	if err != nil {
		return tokenPair{}, err
	}
	ctx := c.Request().Context()
	if err := h.tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return tokenPair{}, err
	}
	return tokenPair{
		AccessToken:  access.Token,
		AccessExp:    access.Exp.Unix(),
		RefreshToken: refresh.Raw,
		RefreshExp:   refresh.Exp.Unix(),
	}, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates a refresh token: the presented token is revoked and
// a fresh pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return respondError(c, http.StatusUnauthorized, "invalid or expired refresh token")
	}
	if err != nil {
		return fail(c, err)
	}
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	if !user.IsActive {
		return respondError(c, http.StatusForbidden, "account is deactivated")
	}
	if err := h.tokens.RevokeByHash(ctx, hash); err != nil {
		return fail(c, err)
	}
	pair, err := h.issueTokens(c, user)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "token refreshed", pair)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	if err := h.tokens.RevokeByHash(c.Request().Context(), utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "logged out", nil)
}

// Profile returns the authenticated user's account.
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, _ := currentUser(c)
	user, err := h.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "profile", toUserResponse(user))
}

type updateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

// UpdateProfile changes the caller's display names.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	userID, _ := currentUser(c)
	ctx := c.Request().Context()
	if err := h.users.UpdateProfile(ctx, userID, req.FirstName, req.LastName); err != nil {
		return fail(c, err)
	}
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "profile updated", toUserResponse(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ChangePassword verifies the current password, stores the new hash
// and revokes every refresh token for the account.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	userID, _ := currentUser(c)
	ctx := c.Request().Context()
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	if !utils.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		return respondError(c, http.StatusUnauthorized, "current password is incorrect")
	}
	if err := h.users.UpdatePassword(ctx, userID, req.NewPassword, h.cfg.BcryptCost); err != nil {
		return fail(c, err)
	}
	if err := h.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "password changed; please log in again", nil)
}
